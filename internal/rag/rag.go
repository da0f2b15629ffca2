// Package rag answers questions from a user's own documents: it retrieves
// the closest chunks for the asking owner and grounds a language model
// completion on them.
package rag

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/docvault/internal/apperr"
	"github.com/ziadkadry99/docvault/internal/embeddings"
	"github.com/ziadkadry99/docvault/internal/llm"
	"github.com/ziadkadry99/docvault/internal/metrics"
	"github.com/ziadkadry99/docvault/internal/vectordb"
)

// PromptTemplate frames the retrieved context and the question.
const PromptTemplate = "Answer the question based only on the following context:\n{context}\n\nQuestion: {question}\n"

// contextSeparator joins retrieved chunk texts.
const contextSeparator = "\n\n"

// Question is one request to the pipeline.
type Question struct {
	Text  string
	Owner string
	Model string
}

// Answer is the generated text plus what it was grounded on.
type Answer struct {
	Text    string         `json:"answer"`
	Model   string         `json:"model"`
	Context string         `json:"-"`
	Hits    []vectordb.Hit `json:"sources,omitempty"`
}

// Pipeline wires the embedder, the index, and the language model.
type Pipeline struct {
	index    vectordb.Index
	embedder embeddings.Embedder
	provider llm.Provider
	topK     int
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTopK sets how many chunks ground each answer.
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithMetrics records question outcomes and collaborator latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline.
func New(index vectordb.Index, embedder embeddings.Embedder, provider llm.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{
		index:    index,
		embedder: embedder,
		provider: provider,
		topK:     vectordb.DefaultK,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Answer retrieves the owner's closest chunks and asks the model selected by
// q.Model. No hits is not special: the prompt goes out with an empty context.
func (p *Pipeline) Answer(ctx context.Context, q Question) (ans *Answer, err error) {
	const op = "rag.answer"
	defer func() { p.metrics.QuestionAnswered(err) }()

	if strings.TrimSpace(q.Text) == "" {
		return nil, apperr.Validation(op, "no question provided")
	}
	if strings.TrimSpace(q.Owner) == "" {
		return nil, apperr.Validation(op, "no username provided")
	}
	if strings.TrimSpace(q.Model) == "" {
		return nil, apperr.Validation(op, "no model specified")
	}

	start := time.Now()
	vector, err := embeddings.EmbedOne(ctx, p.embedder, q.Text)
	p.metrics.ObserveCollaborator("embedder", start, err)
	if err != nil {
		return nil, apperr.Collaborator(op, err)
	}

	hits, err := p.index.Search(ctx, vector, vectordb.Query{Owner: q.Owner, K: p.topK})
	if err != nil {
		return nil, err
	}

	contextText := JoinHits(hits)
	prompt := RenderPrompt(contextText, q.Text)

	start = time.Now()
	resp, err := p.provider.Complete(ctx, llm.Prompt(q.Model, prompt))
	p.metrics.ObserveCollaborator("llm", start, err)
	if err != nil {
		return nil, apperr.Collaborator(op, err)
	}

	p.logger.Debug().
		Str("owner", q.Owner).
		Str("model", q.Model).
		Int("hits", len(hits)).
		Int("output_tokens", resp.OutputTokens).
		Msg("question answered")

	return &Answer{
		Text:    resp.Content,
		Model:   q.Model,
		Context: contextText,
		Hits:    hits,
	}, nil
}

// JoinHits concatenates hit texts in rank order.
func JoinHits(hits []vectordb.Hit) string {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	return strings.Join(texts, contextSeparator)
}

// RenderPrompt fills PromptTemplate.
func RenderPrompt(contextText, question string) string {
	return strings.NewReplacer("{context}", contextText, "{question}", question).Replace(PromptTemplate)
}
