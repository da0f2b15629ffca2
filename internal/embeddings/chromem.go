package embeddings

import (
	"context"
	"errors"

	chromem "github.com/philippgille/chromem-go"
)

var errEmptyEmbedding = errors.New("embedder returned no vectors")

// ToChromemFunc converts an Embedder into a chromem.EmbeddingFunc.
// chromem-go embeds one text per call.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return EmbedOne(ctx, e, text)
	}
}
