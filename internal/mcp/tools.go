package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askDocumentsTool defines the ask_documents MCP tool.
var askDocumentsTool = mcp.NewTool("ask_documents",
	mcp.WithDescription("Answer a question using only the documents a user has ingested. Returns the answer followed by the chunks it was grounded on."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
	mcp.WithString("username",
		mcp.Required(),
		mcp.Description("Owner whose documents are searched"),
	),
	mcp.WithString("model",
		mcp.Description("LLM model to answer with (defaults to the configured model)"),
	),
)

// listDocumentsTool defines the list_documents MCP tool.
var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List the document sources a user has ingested."),
	mcp.WithString("username",
		mcp.Required(),
		mcp.Description("Owner whose sources are listed"),
	),
)
