package vectordb

import "context"

// Index stores chunks and answers owner-filtered similarity searches.
type Index interface {
	// Insert stores chunks and returns their assigned IDs in input order.
	// The whole batch is rejected when any chunk is invalid.
	Insert(ctx context.Context, chunks []Chunk) ([]string, error)

	// Search returns the chunks of q.Owner most similar to vector, best first.
	Search(ctx context.Context, vector []float32, q Query) ([]Hit, error)

	// Delete removes every chunk matching pred and returns how many were removed.
	Delete(ctx context.Context, pred Predicate) (int, error)

	// Metadata lists every stored chunk in no particular order.
	Metadata(ctx context.Context) ([]ChunkMeta, error)

	// Reset removes every chunk for every owner.
	Reset(ctx context.Context) error

	// Persist saves the index to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the index from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the number of stored chunks.
	Count() int
}
