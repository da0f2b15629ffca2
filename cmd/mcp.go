package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/docvault/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing ask_documents and list_documents tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "docvault MCP server started on stdio (chunks=%d, model=%s)\n", a.index.Count(), a.cfg.DefaultModel)

		srv := mcpserver.NewServer(a.store, a.pipeline, a.cfg.DefaultModel)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
