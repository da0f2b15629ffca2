// Package docstore turns raw documents into owned, searchable chunks and
// manages them per user: ingestion, listing, deletion, and the privileged
// whole-collection reset.
package docstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/docvault/internal/apperr"
	"github.com/ziadkadry99/docvault/internal/audit"
	"github.com/ziadkadry99/docvault/internal/chunker"
	"github.com/ziadkadry99/docvault/internal/embeddings"
	"github.com/ziadkadry99/docvault/internal/loader"
	"github.com/ziadkadry99/docvault/internal/metrics"
	"github.com/ziadkadry99/docvault/internal/vectordb"
)

// Auditor records mutating operations. *audit.Store satisfies it.
type Auditor interface {
	Log(ctx context.Context, entry audit.Entry) error
}

// Document is a raw document to ingest.
type Document struct {
	Source string
	Owner  string
	Text   string
}

// IngestResult describes one ingested document.
type IngestResult struct {
	Source string   `json:"source"`
	Owner  string   `json:"owner"`
	Chunks int      `json:"chunks"`
	IDs    []string `json:"ids,omitempty"`
}

// DeleteResult reports the outcome of deleting one source.
type DeleteResult struct {
	Source  string `json:"source"`
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// Store coordinates the chunker, the embedder, and the vector index.
type Store struct {
	index    vectordb.Index
	embedder embeddings.Embedder
	splitter *chunker.Splitter
	loader   *loader.Loader
	auditor  Auditor
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithSplitter replaces the default 512/20 splitter.
func WithSplitter(s *chunker.Splitter) Option {
	return func(st *Store) { st.splitter = s }
}

// WithLoader sets the format gate and file extractor.
func WithLoader(l *loader.Loader) Option {
	return func(st *Store) { st.loader = l }
}

// WithAuditor records every mutation to the given audit trail.
func WithAuditor(a Auditor) Option {
	return func(st *Store) { st.auditor = a }
}

// WithMetrics records counters and collaborator latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(st *Store) { st.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(st *Store) { st.logger = l }
}

// New creates a Store over index, embedding chunks with embedder.
func New(index vectordb.Index, embedder embeddings.Embedder, opts ...Option) *Store {
	s := &Store{
		index:    index,
		embedder: embedder,
		splitter: chunker.New(),
		loader:   loader.New(nil),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest chunks, embeds, and stores doc. A document that yields no chunks is
// a successful no-op.
func (s *Store) Ingest(ctx context.Context, doc Document) (*IngestResult, error) {
	const op = "docstore.ingest"

	if strings.TrimSpace(doc.Owner) == "" {
		return nil, apperr.Validation(op, "no username provided")
	}
	if strings.TrimSpace(doc.Source) == "" {
		return nil, apperr.Validation(op, "no source provided")
	}
	if err := s.loader.Check(doc.Source); err != nil {
		return nil, err
	}

	result := &IngestResult{Source: doc.Source, Owner: doc.Owner}
	texts := s.splitter.Split(doc.Text)
	if len(texts) == 0 {
		s.logger.Info().Str("owner", doc.Owner).Str("source", doc.Source).Msg("document produced no chunks, skipping")
		return result, nil
	}

	start := time.Now()
	vectors, err := s.embedder.Embed(ctx, texts)
	if err == nil && len(vectors) != len(texts) {
		err = fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}
	s.metrics.ObserveCollaborator("embedder", start, err)
	if err != nil {
		return nil, apperr.Collaborator(op, err)
	}

	chunks := make([]vectordb.Chunk, len(texts))
	for i, text := range texts {
		c, err := vectordb.NewChunk(text, vectors[i], doc.Owner, doc.Source)
		if err != nil {
			return nil, err
		}
		chunks[i] = c
	}

	ids, err := s.index.Insert(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("inserting chunks: %w", err)
	}
	result.Chunks = len(ids)
	result.IDs = ids

	s.metrics.DocumentIngested(len(ids))
	s.logger.Info().
		Str("owner", doc.Owner).
		Str("source", doc.Source).
		Int("chunks", len(ids)).
		Msg("document ingested")
	s.record(ctx, audit.Entry{
		ActorType: audit.ActorUser,
		ActorID:   doc.Owner,
		Action:    audit.ActionDocumentIngested,
		Owner:     doc.Owner,
		Sources:   []string{doc.Source},
		Chunks:    len(ids),
		Summary:   fmt.Sprintf("ingested %s", doc.Source),
	})
	return result, nil
}

// IngestFile reads path through the loader and ingests its text with the
// path as the source.
func (s *Store) IngestFile(ctx context.Context, path, owner string) (*IngestResult, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, apperr.Validation("docstore.ingest_file", "no username provided")
	}
	text, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, Document{Source: path, Owner: owner, Text: text})
}

// ListSources returns the distinct sources owned by owner, sorted.
func (s *Store) ListSources(ctx context.Context, owner string) ([]string, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, apperr.Validation("docstore.list_sources", "please provide a username")
	}

	metas, err := s.index.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing chunk metadata: %w", err)
	}

	seen := make(map[string]struct{})
	sources := []string{}
	for _, m := range metas {
		if m.Owner != owner {
			continue
		}
		if _, ok := seen[m.Source]; ok {
			continue
		}
		seen[m.Source] = struct{}{}
		sources = append(sources, m.Source)
	}
	slices.Sort(sources)
	return sources, nil
}

// DeleteSources removes every chunk of each source owned by owner. Sources
// with no chunks report zero deletions. An index failure stops the loop and
// returns the results gathered so far.
func (s *Store) DeleteSources(ctx context.Context, sources []string, owner string) ([]DeleteResult, error) {
	const op = "docstore.delete_sources"

	if len(sources) == 0 {
		return nil, apperr.Validation(op, "no document paths provided")
	}
	if strings.TrimSpace(owner) == "" {
		return nil, apperr.Validation(op, "no username provided")
	}

	results := make([]DeleteResult, 0, len(sources))
	total := 0
	var deleted []string
	for _, source := range sources {
		n, err := s.index.Delete(ctx, vectordb.BySourceAndOwner(source, owner))
		if err != nil {
			s.recordDelete(ctx, owner, deleted, total)
			return results, fmt.Errorf("deleting %s: %w", source, err)
		}
		total += n
		if n > 0 {
			deleted = append(deleted, source)
		}
		results = append(results, DeleteResult{
			Source:  source,
			Deleted: n,
			Message: fmt.Sprintf("Given document: %s for the user: %s deleted from the db", source, owner),
		})
		s.logger.Info().Str("owner", owner).Str("source", source).Int("chunks", n).Msg("source deleted")
	}

	s.recordDelete(ctx, owner, deleted, total)
	return results, nil
}

func (s *Store) recordDelete(ctx context.Context, owner string, sources []string, chunks int) {
	if chunks == 0 {
		return
	}
	s.metrics.ChunksDeleted(chunks)
	s.record(ctx, audit.Entry{
		ActorType: audit.ActorUser,
		ActorID:   owner,
		Action:    audit.ActionDocumentsDeleted,
		Owner:     owner,
		Sources:   sources,
		Chunks:    chunks,
		Summary:   fmt.Sprintf("deleted %d source(s)", len(sources)),
	})
}

// ResetAll destroys every chunk of every user. It is irreversible; callers
// must gate it behind an administrative check.
func (s *Store) ResetAll(ctx context.Context, actor string) error {
	removed := s.index.Count()
	if err := s.index.Reset(ctx); err != nil {
		s.logger.Error().Err(err).Str("actor", actor).Msg("reset failed")
		return err
	}

	s.metrics.CollectionReset()
	s.logger.Warn().Str("actor", actor).Int("chunks", removed).Msg("all documents deleted")
	s.record(ctx, audit.Entry{
		ActorType: audit.ActorAdmin,
		ActorID:   actor,
		Action:    audit.ActionCollectionReset,
		Chunks:    removed,
		Summary:   "all documents deleted",
	})
	return nil
}

// record writes an audit entry. Failures are logged, never returned: the
// mutation has already happened.
func (s *Store) record(ctx context.Context, entry audit.Entry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", string(entry.Action)).Msg("audit write failed")
	}
}
