package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/docvault/internal/audit"
	"github.com/ziadkadry99/docvault/internal/db"
	"github.com/ziadkadry99/docvault/internal/docstore"
	"github.com/ziadkadry99/docvault/internal/llm"
	"github.com/ziadkadry99/docvault/internal/metrics"
	"github.com/ziadkadry99/docvault/internal/rag"
	"github.com/ziadkadry99/docvault/internal/vectordb"
)

type hashEmbedder struct{ dims int }

func (h hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
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

func (h hashEmbedder) Dimensions() int { return h.dims }
func (h hashEmbedder) Name() string    { return "hash" }

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	err     error
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.prompts = append(f.prompts, req.Messages[0].Content)
	return &llm.CompletionResponse{Content: "answer from " + req.Model}, nil
}

type fakeModels map[string]bool

func (f fakeModels) HasModel(_ context.Context, name string) (bool, error) {
	return f[name], nil
}

type testEnv struct {
	srv   *Server
	llm   *fakeLLM
	audit *audit.Store
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	emb := hashEmbedder{dims: 32}
	ix, err := vectordb.NewChromemIndex(emb)
	if err != nil {
		t.Fatalf("NewChromemIndex: %v", err)
	}
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	auditStore := audit.NewStore(database)
	m := metrics.New()
	model := &fakeLLM{}

	srv := New(cfg, Deps{
		Store:    docstore.New(ix, emb, docstore.WithAuditor(auditStore), docstore.WithMetrics(m)),
		Pipeline: rag.New(ix, emb, model, rag.WithMetrics(m)),
		Models:   fakeModels{"llama3": true},
		Audit:    auditStore,
		Metrics:  m,
		Logger:   zerolog.Nop(),
	})
	return &testEnv{srv: srv, llm: model, audit: auditStore}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, Config{})

	w := env.do(t, "GET", "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode[map[string]string](t, w)
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	env := newTestEnv(t, Config{AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	env.srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestDocumentLifecycle(t *testing.T) {
	env := newTestEnv(t, Config{})

	w := env.do(t, "POST", "/api/documents", ingestRequest{Username: "alice", Source: "a.pdf", Text: "The sky is blue. Grass is green."})
	if w.Code != http.StatusOK {
		t.Fatalf("ingest: status %d: %s", w.Code, w.Body.String())
	}
	res := decode[docstore.IngestResult](t, w)
	if res.Chunks != 1 {
		t.Errorf("ingest chunks = %d, want 1", res.Chunks)
	}

	w = env.do(t, "GET", "/api/documents?username=alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	paths := decode[map[string][]string](t, w)["doc_paths"]
	if len(paths) != 1 || paths[0] != "a.pdf" {
		t.Errorf("doc_paths = %v, want [a.pdf]", paths)
	}

	w = env.do(t, "POST", "/api/query", queryRequest{Question: "What color is the sky?", Username: "alice", Model: "llama3"})
	if w.Code != http.StatusOK {
		t.Fatalf("query: status %d: %s", w.Code, w.Body.String())
	}
	if got := decode[map[string]any](t, w)["answer"]; got != "answer from llama3" {
		t.Errorf("answer = %v", got)
	}
	if !strings.Contains(env.llm.prompts[0], "The sky is blue.") {
		t.Errorf("prompt missing context: %q", env.llm.prompts[0])
	}

	w = env.do(t, "POST", "/api/documents/delete", deleteRequest{DocPaths: []string{"a.pdf"}, Username: "alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status %d", w.Code)
	}
	results := decode[map[string][]docstore.DeleteResult](t, w)["results"]
	if len(results) != 1 || results[0].Message != "Given document: a.pdf for the user: alice deleted from the db" {
		t.Errorf("results = %+v", results)
	}

	w = env.do(t, "GET", "/api/documents?username=alice", nil)
	if paths := decode[map[string][]string](t, w)["doc_paths"]; len(paths) != 0 {
		t.Errorf("doc_paths after delete = %v", paths)
	}

	w = env.do(t, "GET", "/api/audit?owner=alice", nil)
	if entries := decode[[]audit.Entry](t, w); len(entries) != 2 {
		t.Errorf("audit entries = %d, want 2", len(entries))
	}
}

func TestErrorStatusMapping(t *testing.T) {
	env := newTestEnv(t, Config{})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"ingest without username", "POST", "/api/documents", ingestRequest{Source: "a.pdf", Text: "x"}, http.StatusBadRequest},
		{"ingest unsupported format", "POST", "/api/documents", ingestRequest{Username: "alice", Source: "a.docx", Text: "x"}, http.StatusUnsupportedMediaType},
		{"ingest malformed json", "POST", "/api/documents", "{not json", http.StatusBadRequest},
		{"list without username", "GET", "/api/documents", nil, http.StatusBadRequest},
		{"delete without paths", "POST", "/api/documents/delete", deleteRequest{Username: "alice"}, http.StatusBadRequest},
		{"query without model", "POST", "/api/query", queryRequest{Question: "q", Username: "alice"}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, tc.method, tc.path, tc.body)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
			if _, ok := decode[map[string]any](t, w)["error"]; !ok {
				t.Error("expected an error field")
			}
		})
	}
}

func TestQueryCollaboratorFailure(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.llm.err = errors.New("ollama unreachable")

	w := env.do(t, "POST", "/api/query", queryRequest{Question: "q", Username: "alice", Model: "llama3"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestReset(t *testing.T) {
	t.Run("disabled without token", func(t *testing.T) {
		env := newTestEnv(t, Config{})
		if w := env.do(t, "POST", "/api/documents/reset", nil); w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		env := newTestEnv(t, Config{AdminToken: "s3cret"})
		if w := env.do(t, "POST", "/api/documents/reset", nil, adminTokenHeader, "guess"); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("wipes every user", func(t *testing.T) {
		env := newTestEnv(t, Config{AdminToken: "s3cret"})
		for _, user := range []string{"alice", "bob"} {
			w := env.do(t, "POST", "/api/documents", ingestRequest{Username: user, Source: user + ".pdf", Text: "notes"})
			if w.Code != http.StatusOK {
				t.Fatalf("ingest: %d", w.Code)
			}
		}

		if w := env.do(t, "POST", "/api/documents/reset", nil, adminTokenHeader, "s3cret"); w.Code != http.StatusOK {
			t.Fatalf("reset status = %d: %s", w.Code, w.Body.String())
		}
		for _, user := range []string{"alice", "bob"} {
			w := env.do(t, "GET", "/api/documents?username="+user, nil)
			if paths := decode[map[string][]string](t, w)["doc_paths"]; len(paths) != 0 {
				t.Errorf("%s still has %v", user, paths)
			}
		}
	})
}

func TestCheckModel(t *testing.T) {
	env := newTestEnv(t, Config{})

	w := env.do(t, "GET", "/api/models/llama3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[map[string]any](t, w)["available"]; got != true {
		t.Errorf("llama3 available = %v", got)
	}

	w = env.do(t, "GET", "/api/models/phi3", nil)
	if got := decode[map[string]any](t, w)["available"]; got != false {
		t.Errorf("phi3 available = %v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.do(t, "GET", "/healthz", nil)

	w := env.do(t, "GET", "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "docvault_http_request_duration_seconds") {
		t.Error("missing http latency histogram")
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("plain error status = %d", got)
	}
}

func TestChatWebSocket(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.do(t, "POST", "/api/documents", ingestRequest{Username: "alice", Source: "a.pdf", Text: "The sky is blue."})

	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(chatRequest{Question: "sky?", Username: "alice", Model: "llama3"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp chatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "answer" || resp.Content != "answer from llama3" {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Source != "a.pdf" {
		t.Errorf("sources = %+v", resp.Sources)
	}

	// Invalid input yields an error frame and the socket stays open.
	if err := conn.WriteJSON(chatRequest{Question: "sky?"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "error" {
		t.Errorf("expected error frame, got %+v", resp)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Content != "invalid message format" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRequestLoggerRecordsStatusAndRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(requestLogger(logger, m))
	r.Get("/teapot/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/teapot/7", nil))
	if w.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", w.Code)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	if line["status"] != float64(http.StatusTeapot) {
		t.Errorf("logged status = %v", line["status"])
	}
	if line["bytes"] != float64(len("short and stout")) {
		t.Errorf("logged bytes = %v", line["bytes"])
	}
	if line["path"] != "/teapot/7" {
		t.Errorf("logged path = %v", line["path"])
	}

	exposed := httptest.NewRecorder()
	m.Handler().ServeHTTP(exposed, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(exposed.Body.String(), `route="/teapot/{id}"`) {
		t.Error("latency histogram missing the route pattern label")
	}
}
