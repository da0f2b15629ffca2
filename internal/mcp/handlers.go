package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/docvault/internal/rag"
	"github.com/ziadkadry99/docvault/internal/vectordb"
)

// handleAskDocuments runs the RAG pipeline for one question.
func (s *Server) handleAskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}
	username, err := request.RequireString("username")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: username"), nil
	}
	model := request.GetString("model", s.defaultModel)

	ans, err := s.pipeline.Answer(ctx, rag.Question{Text: question, Owner: username, Model: model})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(ans.Text)
	sb.WriteString("\n\n")
	sb.WriteString(vectordb.FormatHits(ans.Hits))
	return mcp.NewToolResultText(sb.String()), nil
}

// handleListDocuments lists a user's sources, one per line.
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username, err := request.RequireString("username")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: username"), nil
	}

	sources, err := s.store.ListSources(ctx, username)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if len(sources) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No documents found for %s. Run `docvault ingest` to add some.", username)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d document(s):\n%s\n", len(sources), strings.Join(sources, "\n"))), nil
}
