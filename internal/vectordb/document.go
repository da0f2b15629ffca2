package vectordb

import (
	"strings"

	"github.com/ziadkadry99/docvault/internal/apperr"
)

// Metadata keys stored on every chromem document.
const (
	metaOwner  = "owner"
	metaSource = "source"
)

// Chunk is one embedded window of a document, owned by exactly one user.
type Chunk struct {
	ID     string
	Text   string
	Vector []float32
	Owner  string
	Source string
}

// NewChunk builds a Chunk, rejecting a missing owner, source, or vector.
// The ID is assigned by the index on insertion.
func NewChunk(text string, vector []float32, owner, source string) (Chunk, error) {
	c := Chunk{Text: text, Vector: vector, Owner: owner, Source: source}
	if err := c.validate(0); err != nil {
		return Chunk{}, err
	}
	return c, nil
}

// validate checks the required fields. dims <= 0 skips the dimension check.
func (c Chunk) validate(dims int) error {
	if strings.TrimSpace(c.Owner) == "" {
		return apperr.Validation("vectordb.chunk", "owner is required")
	}
	if strings.TrimSpace(c.Source) == "" {
		return apperr.Validation("vectordb.chunk", "source is required")
	}
	if len(c.Vector) == 0 {
		return apperr.Validation("vectordb.chunk", "vector is empty")
	}
	if dims > 0 && len(c.Vector) != dims {
		return apperr.Validation("vectordb.chunk", "vector has %d dimensions, want %d", len(c.Vector), dims)
	}
	if isZero(c.Vector) {
		return apperr.Validation("vectordb.chunk", "vector has zero magnitude")
	}
	return nil
}

// isZero reports whether every component of v is zero. Such a vector has no
// direction and scores NaN under cosine similarity.
func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// ChunkMeta is the searchable identity of a stored chunk.
type ChunkMeta struct {
	ID     string
	Source string
	Owner  string
}

// Hit is a search result.
type Hit struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float32 `json:"score"`
}

// Query narrows a search to one owner and optionally one source.
type Query struct {
	Owner  string
	Source string
	K      int
}

// DefaultK is used when Query.K is not positive.
const DefaultK = 10

// where converts the query into a chromem metadata filter.
func (q Query) where() map[string]string {
	w := map[string]string{metaOwner: q.Owner}
	if q.Source != "" {
		w[metaSource] = q.Source
	}
	return w
}

// Predicate selects chunks for deletion.
type Predicate func(ChunkMeta) bool

// BySourceAndOwner matches the chunks of one source uploaded by one owner.
func BySourceAndOwner(source, owner string) Predicate {
	return func(m ChunkMeta) bool {
		return m.Source == source && m.Owner == owner
	}
}

// ByOwner matches every chunk of one owner.
func ByOwner(owner string) Predicate {
	return func(m ChunkMeta) bool {
		return m.Owner == owner
	}
}

func metaFromMap(id string, m map[string]string) ChunkMeta {
	return ChunkMeta{ID: id, Source: m[metaSource], Owner: m[metaOwner]}
}
