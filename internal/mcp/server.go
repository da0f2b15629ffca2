package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/docvault/internal/docstore"
	"github.com/ziadkadry99/docvault/internal/rag"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes document question answering tools.
type Server struct {
	store        *docstore.Store
	pipeline     *rag.Pipeline
	defaultModel string
	mcp          *server.MCPServer
}

// NewServer creates a new MCP server. defaultModel is used when a tool call
// does not name a model.
func NewServer(store *docstore.Store, pipeline *rag.Pipeline, defaultModel string) *Server {
	s := &Server{
		store:        store,
		pipeline:     pipeline,
		defaultModel: defaultModel,
	}

	s.mcp = server.NewMCPServer(
		"docvault",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(askDocumentsTool, s.handleAskDocuments)
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
