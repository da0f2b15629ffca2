package vectordb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/docvault/internal/apperr"
	"github.com/ziadkadry99/docvault/internal/embeddings"
)

const (
	collectionName = "main"
	snapshotFile   = "chromem.gob.gz"

	// chromem refuses queries whose nResults exceeds the collection size, so
	// an empty collection cannot be queried at all. Every collection keeps
	// this one placeholder document; it is filtered out of everything the
	// index returns.
	sentinelID     = "__sentinel__"
	sentinelOwner  = "admin"
	sentinelSource = "none"

	insertConcurrency = 4
)

// ChromemIndex implements Index on a single chromem-go collection.
//
// Search, Metadata and Insert hold the read lock: they only read or grow the
// collection, so the size observed before a query can never shrink under it.
// Delete, Reset, Persist and Load hold the write lock.
type ChromemIndex struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection

	embedFunc chromem.EmbeddingFunc
	dims      int
	logger    zerolog.Logger
}

// IndexOption configures a ChromemIndex.
type IndexOption func(*ChromemIndex)

// WithLogger sets the logger used for reset and load events.
func WithLogger(l zerolog.Logger) IndexOption {
	return func(ix *ChromemIndex) { ix.logger = l }
}

// NewChromemIndex creates an in-memory index holding only the sentinel.
// Vector dimensions are taken from the embedder.
func NewChromemIndex(embedder embeddings.Embedder, opts ...IndexOption) (*ChromemIndex, error) {
	if embedder.Dimensions() <= 0 {
		return nil, fmt.Errorf("embedder %s reports %d dimensions", embedder.Name(), embedder.Dimensions())
	}

	ix := &ChromemIndex{
		embedFunc: embeddings.ToChromemFunc(embedder),
		dims:      embedder.Dimensions(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(ix)
	}

	db, col, err := ix.freshCollection(context.Background())
	if err != nil {
		return nil, err
	}
	ix.db, ix.collection = db, col
	return ix, nil
}

// freshCollection builds a new DB whose "main" collection holds only the sentinel.
func (ix *ChromemIndex) freshCollection(ctx context.Context) (*chromem.DB, *chromem.Collection, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, ix.embedFunc)
	if err != nil {
		return nil, nil, fmt.Errorf("create collection: %w", err)
	}
	if err := col.AddDocument(ctx, ix.sentinel()); err != nil {
		return nil, nil, fmt.Errorf("seed sentinel: %w", err)
	}
	return db, col, nil
}

func (ix *ChromemIndex) sentinel() chromem.Document {
	vec := make([]float32, ix.dims)
	vec[0] = 1
	return chromem.Document{
		ID:        sentinelID,
		Metadata:  map[string]string{metaOwner: sentinelOwner, metaSource: sentinelSource},
		Embedding: vec,
	}
}

func (ix *ChromemIndex) Insert(ctx context.Context, chunks []Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	for i, c := range chunks {
		if err := c.validate(ix.dims); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	ids := make([]string, len(chunks))
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		ids[i] = uuid.NewString()
		docs[i] = chromem.Document{
			ID:        ids[i],
			Content:   c.Text,
			Embedding: c.Vector,
			Metadata:  map[string]string{metaOwner: c.Owner, metaSource: c.Source},
		}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if err := ix.collection.AddDocuments(ctx, docs, insertConcurrency); err != nil {
		return nil, fmt.Errorf("chromem add: %w", err)
	}
	return ids, nil
}

func (ix *ChromemIndex) Search(ctx context.Context, vector []float32, q Query) ([]Hit, error) {
	if q.Owner == "" {
		return nil, apperr.Validation("vectordb.search", "owner is required")
	}
	if len(vector) != ix.dims {
		return nil, apperr.Validation("vectordb.search", "query vector has %d dimensions, want %d", len(vector), ix.dims)
	}
	k := q.K
	if k <= 0 {
		k = DefaultK
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	// One extra result covers the sentinel for an owner literally named "admin".
	n := min(k+1, ix.collection.Count())
	results, err := ix.collection.QueryEmbedding(ctx, vector, n, q.where(), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		if r.ID == sentinelID {
			continue
		}
		hits = append(hits, Hit{
			ID:     r.ID,
			Text:   r.Content,
			Source: r.Metadata[metaSource],
			Score:  r.Similarity,
		})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

func (ix *ChromemIndex) Metadata(ctx context.Context) ([]ChunkMeta, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.scan(ctx)
}

// scan lists every non-sentinel chunk. The caller holds a lock.
func (ix *ChromemIndex) scan(ctx context.Context) ([]ChunkMeta, error) {
	count := ix.collection.Count()
	results, err := ix.collection.QueryEmbedding(ctx, ix.sentinel().Embedding, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem scan: %w", err)
	}

	metas := make([]ChunkMeta, 0, len(results))
	for _, r := range results {
		if r.ID == sentinelID {
			continue
		}
		metas = append(metas, metaFromMap(r.ID, r.Metadata))
	}
	return metas, nil
}

func (ix *ChromemIndex) Delete(ctx context.Context, pred Predicate) (int, error) {
	if pred == nil {
		return 0, apperr.Validation("vectordb.delete", "predicate is required")
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	metas, err := ix.scan(ctx)
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, m := range metas {
		if pred(m) {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := ix.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return 0, fmt.Errorf("chromem delete: %w", err)
	}
	return len(ids), nil
}

// Reset swaps in a new collection holding only the sentinel. When the new
// collection cannot be built the current one is left untouched.
func (ix *ChromemIndex) Reset(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	db, col, err := ix.freshCollection(ctx)
	if err != nil {
		ix.logger.Error().Err(err).Msg("collection reset failed, keeping existing collection")
		return apperr.ResetFailed("vectordb.reset", err)
	}
	removed := ix.collection.Count() - 1
	ix.db, ix.collection = db, col
	ix.logger.Warn().Int("removed", removed).Msg("collection reset")
	return nil
}

func (ix *ChromemIndex) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.db.ExportToFile(filepath.Join(dir, snapshotFile), true, "", collectionName); err != nil {
		return fmt.Errorf("export to file: %w", err)
	}
	return nil
}

// ErrNoSnapshot is returned by Load when dir holds no saved index.
var ErrNoSnapshot = errors.New("no index snapshot")

// ErrDimensionMismatch is returned by Load when the snapshot was written with
// a different embedding size. Re-ingest after changing the embedding model.
var ErrDimensionMismatch = errors.New("index snapshot dimension mismatch")

func (ix *ChromemIndex) Load(ctx context.Context, dir string) error {
	path := filepath.Join(dir, snapshotFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w in %s", ErrNoSnapshot, dir)
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(path, "", collectionName); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}
	col := db.GetCollection(collectionName, ix.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	if sent, err := col.GetByID(ctx, sentinelID); err == nil {
		if len(sent.Embedding) != ix.dims {
			return fmt.Errorf("%w: snapshot has %d dimensions, embedder has %d", ErrDimensionMismatch, len(sent.Embedding), ix.dims)
		}
	} else {
		// Without a sentinel, check the stored vectors with a query of our size.
		if col.Count() > 0 {
			if _, err := col.QueryEmbedding(ctx, ix.sentinel().Embedding, 1, nil, nil); err != nil {
				return fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
			}
		}
		if err := col.AddDocument(ctx, ix.sentinel()); err != nil {
			return fmt.Errorf("seed sentinel: %w", err)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.db, ix.collection = db, col
	ix.logger.Info().Int("chunks", col.Count()-1).Str("path", path).Msg("index loaded")
	return nil
}

func (ix *ChromemIndex) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.collection.Count() - 1
}
