package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [sources...]",
	Short: "Delete a user's documents by source",
	Long:  `Removes every chunk of each named source owned by the user. Other users' chunks with the same source are untouched.`,
	Args:  cobra.MinimumNArgs(1),
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

		results, err := a.store.DeleteSources(ctx, args, user)
		for _, r := range results {
			fmt.Printf("%s (%d chunk(s))\n", r.Message, r.Deleted)
		}
		if err != nil {
			return err
		}
		return a.persist(ctx)
	},
}

func init() {
	deleteCmd.Flags().StringP("user", "u", "", "owner of the sources (required)")
	rootCmd.AddCommand(deleteCmd)
}
