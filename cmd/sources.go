package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the documents a user has ingested",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		user, _ := cmd.Flags().GetString("user")
		if err := requireUser(user); err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		sources, err := a.store.ListSources(ctx, user)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			fmt.Printf("No documents for %s.\n", user)
			return nil
		}
		for _, s := range sources {
			fmt.Println(s)
		}
		return nil
	},
}

func init() {
	sourcesCmd.Flags().StringP("user", "u", "", "owner to list (required)")
	rootCmd.AddCommand(sourcesCmd)
}
