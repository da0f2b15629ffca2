package embeddings

import "context"

// Embedder produces fixed-dimension vectors for text. The same Embedder
// configuration must be used for ingestion and for queries, otherwise
// similarity scores are meaningless.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the length of every vector Embed produces.
	Dimensions() int

	// Name identifies the embedding model.
	Name() string
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, errEmptyEmbedding
	}
	return vecs[0], nil
}
