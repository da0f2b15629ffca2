package docstore

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/docvault/internal/apperr"
	"github.com/ziadkadry99/docvault/internal/audit"
	"github.com/ziadkadry99/docvault/internal/chunker"
	"github.com/ziadkadry99/docvault/internal/loader"
	"github.com/ziadkadry99/docvault/internal/metrics"
	"github.com/ziadkadry99/docvault/internal/vectordb"
)

type hashEmbedder struct {
	dims  int
	err   error
	calls int
}

func (h *hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, h.dims)
		for j, ch := range text {
			vec[(int(ch)+j)%h.dims]++
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v * v)
		}
		if norm > 0 {
			for k := range vec {
				vec[k] = float32(float64(vec[k]) / math.Sqrt(norm))
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (h *hashEmbedder) Dimensions() int { return h.dims }
func (h *hashEmbedder) Name() string    { return "hash" }

type recordingAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
	err     error
}

func (r *recordingAuditor) Log(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return r.err
}

// failingIndex wraps an index and fails Delete for one source.
type failingIndex struct {
	vectordb.Index
	failSource string
}

func (f *failingIndex) Delete(ctx context.Context, pred vectordb.Predicate) (int, error) {
	if pred(vectordb.ChunkMeta{Source: f.failSource, Owner: "alice"}) {
		return 0, errors.New("disk on fire")
	}
	return f.Index.Delete(ctx, pred)
}

func newStore(t *testing.T, opts ...Option) (*Store, *vectordb.ChromemIndex, *hashEmbedder) {
	t.Helper()
	emb := &hashEmbedder{dims: 32}
	ix, err := vectordb.NewChromemIndex(emb)
	require.NoError(t, err)
	return New(ix, emb, opts...), ix, emb
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	auditor := &recordingAuditor{}
	s, ix, _ := newStore(t, WithAuditor(auditor), WithMetrics(metrics.New()))

	res, err := s.Ingest(ctx, Document{Source: "a.pdf", Owner: "alice", Text: "The sky is blue.\nGrass is green."})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Chunks)
	assert.Len(t, res.IDs, 1)
	assert.Equal(t, 1, ix.Count())

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, audit.ActionDocumentIngested, auditor.entries[0].Action)
	assert.Equal(t, []string{"a.pdf"}, auditor.entries[0].Sources)
}

func TestIngest_ChunkCount(t *testing.T) {
	s, ix, emb := newStore(t)

	res, err := s.Ingest(context.Background(), Document{Source: "long.pdf", Owner: "alice", Text: strings.Repeat("a", 1005)})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, 3, ix.Count())
	assert.Equal(t, 1, emb.calls, "all chunks embed in one batch")
}

func TestIngest_Validation(t *testing.T) {
	s, ix, emb := newStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, Document{Source: "a.pdf", Text: "text"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.Ingest(ctx, Document{Owner: "alice", Text: "text"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.Zero(t, emb.calls)
	assert.Zero(t, ix.Count())
}

func TestIngest_UnsupportedFormat(t *testing.T) {
	s, ix, emb := newStore(t)

	_, err := s.Ingest(context.Background(), Document{Source: "notes.docx", Owner: "alice", Text: "text"})
	assert.ErrorIs(t, err, apperr.ErrUnsupportedFormat)
	assert.Zero(t, emb.calls, "rejected before embedding")
	assert.Zero(t, ix.Count())
}

func TestIngest_EmptyDocumentIsNoop(t *testing.T) {
	auditor := &recordingAuditor{}
	s, ix, emb := newStore(t, WithAuditor(auditor))

	res, err := s.Ingest(context.Background(), Document{Source: "blank.pdf", Owner: "alice", Text: " \n\t "})
	require.NoError(t, err)
	assert.Zero(t, res.Chunks)
	assert.Zero(t, emb.calls)
	assert.Zero(t, ix.Count())
	assert.Empty(t, auditor.entries)
}

func TestIngest_EmbedderFailure(t *testing.T) {
	s, ix, emb := newStore(t)
	emb.err = errors.New("connection refused")

	_, err := s.Ingest(context.Background(), Document{Source: "a.pdf", Owner: "alice", Text: "hello"})
	assert.ErrorIs(t, err, apperr.ErrCollaborator)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Zero(t, ix.Count())
}

func TestIngest_AuditFailureIsNotReturned(t *testing.T) {
	s, _, _ := newStore(t, WithAuditor(&recordingAuditor{err: errors.New("db locked")}))

	_, err := s.Ingest(context.Background(), Document{Source: "a.pdf", Owner: "alice", Text: "hello"})
	assert.NoError(t, err)
}

func TestIngestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two"), 0o644))

	s, _, _ := newStore(t, WithLoader(loader.New([]string{"txt"})))
	res, err := s.IngestFile(context.Background(), path, "alice")
	require.NoError(t, err)
	assert.Equal(t, path, res.Source)
	assert.Equal(t, 1, res.Chunks)

	sources, err := s.ListSources(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{path}, sources)
}

func TestIngestFile_UnsupportedFormat(t *testing.T) {
	s, _, _ := newStore(t)
	_, err := s.IngestFile(context.Background(), "slides.pptx", "alice")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedFormat)
}

func TestListSources(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t, WithSplitter(chunker.New(chunker.WithChunkSize(10), chunker.WithOverlap(2))))

	for _, d := range []Document{
		{Source: "b.pdf", Owner: "alice", Text: "a fairly long text that yields several chunks"},
		{Source: "a.pdf", Owner: "alice", Text: "short"},
		{Source: "c.pdf", Owner: "bob", Text: "bob's document"},
	} {
		_, err := s.Ingest(ctx, d)
		require.NoError(t, err)
	}

	sources, err := s.ListSources(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, sources)

	sources, err = s.ListSources(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, sources)

	_, err = s.ListSources(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteSources(t *testing.T) {
	ctx := context.Background()
	auditor := &recordingAuditor{}
	s, _, emb := newStore(t, WithAuditor(auditor))

	for _, d := range []Document{
		{Source: "a.pdf", Owner: "alice", Text: "The sky is blue."},
		{Source: "b.pdf", Owner: "alice", Text: "Grass is green."},
		{Source: "a.pdf", Owner: "bob", Text: "Bob also has an a.pdf."},
	} {
		_, err := s.Ingest(ctx, d)
		require.NoError(t, err)
	}
	auditor.entries = nil

	results, err := s.DeleteSources(ctx, []string{"a.pdf", "missing.pdf"}, "alice")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, DeleteResult{
		Source:  "a.pdf",
		Deleted: 1,
		Message: "Given document: a.pdf for the user: alice deleted from the db",
	}, results[0])
	assert.Equal(t, 0, results[1].Deleted)

	sources, err := s.ListSources(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.pdf"}, sources)

	// Source-filtered search for the deleted source is empty.
	vecs, _ := emb.Embed(ctx, []string{"The sky is blue."})
	hits, err := s.index.Search(ctx, vecs[0], vectordb.Query{Owner: "alice", Source: "a.pdf"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	// bob keeps his a.pdf.
	sources, err = s.ListSources(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, sources)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, audit.ActionDocumentsDeleted, auditor.entries[0].Action)
	assert.Equal(t, []string{"a.pdf"}, auditor.entries[0].Sources)
}

func TestDeleteSources_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t)
	_, err := s.Ingest(ctx, Document{Source: "a.pdf", Owner: "alice", Text: "hello"})
	require.NoError(t, err)

	first, err := s.DeleteSources(ctx, []string{"a.pdf"}, "alice")
	require.NoError(t, err)
	second, err := s.DeleteSources(ctx, []string{"a.pdf"}, "alice")
	require.NoError(t, err)

	assert.Equal(t, 1, first[0].Deleted)
	assert.Equal(t, 0, second[0].Deleted)
	assert.Equal(t, first[0].Message, second[0].Message)
}

func TestDeleteSources_Validation(t *testing.T) {
	s, _, _ := newStore(t)

	_, err := s.DeleteSources(context.Background(), nil, "alice")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.DeleteSources(context.Background(), []string{"a.pdf"}, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteSources_IndexErrorStops(t *testing.T) {
	ctx := context.Background()
	emb := &hashEmbedder{dims: 32}
	ix, err := vectordb.NewChromemIndex(emb)
	require.NoError(t, err)
	s := New(&failingIndex{Index: ix, failSource: "b.pdf"}, emb)

	results, err := s.DeleteSources(ctx, []string{"a.pdf", "b.pdf", "c.pdf"}, "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
	assert.Len(t, results, 1, "results before the failure are returned")
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	auditor := &recordingAuditor{}
	m := metrics.New()
	s, ix, _ := newStore(t, WithAuditor(auditor), WithMetrics(m))

	for _, owner := range []string{"alice", "bob"} {
		_, err := s.Ingest(ctx, Document{Source: owner + ".pdf", Owner: owner, Text: "some text"})
		require.NoError(t, err)
	}

	require.NoError(t, s.ResetAll(ctx, "ops"))
	assert.Zero(t, ix.Count())

	for _, owner := range []string{"alice", "bob"} {
		sources, err := s.ListSources(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, sources, owner)
	}

	last := auditor.entries[len(auditor.entries)-1]
	assert.Equal(t, audit.ActionCollectionReset, last.Action)
	assert.Equal(t, audit.ActorAdmin, last.ActorType)
	assert.Equal(t, 2, last.Chunks)
}

type brokenResetIndex struct {
	vectordb.Index
}

func (brokenResetIndex) Reset(context.Context) error {
	return apperr.ResetFailed("vectordb.reset", errors.New("out of memory"))
}

func TestResetAll_FailureIsSurfaced(t *testing.T) {
	emb := &hashEmbedder{dims: 32}
	ix, err := vectordb.NewChromemIndex(emb)
	require.NoError(t, err)
	auditor := &recordingAuditor{}
	s := New(brokenResetIndex{Index: ix}, emb, WithAuditor(auditor))

	err = s.ResetAll(context.Background(), "ops")
	assert.ErrorIs(t, err, apperr.ErrResetFailed)
	assert.Empty(t, auditor.entries)
}
