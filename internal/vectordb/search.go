package vectordb

import (
	"fmt"
	"strings"
)

// FormatHits renders search hits as human-readable text.
func FormatHits(hits []Hit) string {
	if len(hits) == 0 {
		return "No matching chunks."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d chunk(s):\n\n", len(hits)))

	for i, h := range hits {
		sb.WriteString(fmt.Sprintf("--- Chunk %d (similarity: %.4f) ---\n", i+1, h.Score))
		if h.Source != "" {
			sb.WriteString(fmt.Sprintf("Source: %s\n", h.Source))
		}
		sb.WriteString("\n")
		sb.WriteString(h.Text)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
