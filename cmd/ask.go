package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docvault/internal/rag"
	"github.com/ziadkadry99/docvault/internal/vectordb"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from a user's documents",
	Long:  `Embeds the question, retrieves the closest chunks the user owns, and asks the LLM to answer from that context only.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringP("user", "u", "", "user whose documents are searched (required)")
	askCmd.Flags().StringP("model", "m", "", "LLM model (defaults to default_model)")
	askCmd.Flags().Bool("show-sources", false, "print the retrieved chunks after the answer")
	askCmd.Flags().Bool("json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	user, _ := cmd.Flags().GetString("user")
	if err := requireUser(user); err != nil {
		return err
	}
	model, _ := cmd.Flags().GetString("model")
	showSources, _ := cmd.Flags().GetBool("show-sources")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if model == "" {
		model = a.cfg.DefaultModel
	}

	ans, err := a.pipeline.Answer(ctx, rag.Question{Text: args[0], Owner: user, Model: model})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ans)
	}

	fmt.Println(ans.Text)
	if showSources {
		fmt.Println()
		fmt.Print(vectordb.FormatHits(ans.Hits))
	}
	return nil
}
