// Package chunker splits document text into overlapping fixed-size windows.
package chunker

import "strings"

// DefaultChunkSize is the number of characters per chunk.
const DefaultChunkSize = 512

// DefaultChunkOverlap is the number of characters shared by consecutive chunks.
const DefaultChunkOverlap = 20

// Splitter cuts text into windows measured in characters (runes), not tokens.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a Splitter. Without options it uses 512/20.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Overlap must leave room for the window to advance.
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}
	return s
}

// ChunkSize returns the configured window size.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the ordered chunks of text. Newlines become single spaces.
// The final chunk may be shorter than the chunk size; nothing is dropped.
// Empty or whitespace-only text yields no chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(normalizeNewlines(text))
	total := len(runes)
	step := s.chunkSize - s.overlap

	chunks := make([]string, 0, s.Count(total))
	for start := 0; ; start += step {
		end := start + s.chunkSize
		if end >= total {
			chunks = append(chunks, string(runes[start:total]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Count returns how many chunks Split produces for a text of n characters.
func (s *Splitter) Count(n int) int {
	if n <= 0 {
		return 0
	}
	if n <= s.chunkSize {
		return 1
	}
	step := s.chunkSize - s.overlap
	return (n - s.overlap + step - 1) / step
}

// normalizeNewlines maps each line break rune to a space so that rune
// offsets are preserved.
func normalizeNewlines(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, text)
}
