package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/user"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every document of every user",
	Long:  `Empties the whole vector index. This cannot be undone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			prompt := promptui.Prompt{
				Label:     "Delete ALL documents for ALL users",
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				if errors.Is(err, promptui.ErrAbort) {
					fmt.Println("Aborted.")
					return nil
				}
				return fmt.Errorf("confirmation: %w", err)
			}
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		actor := "cli"
		if u, err := user.Current(); err == nil {
			actor = "cli:" + u.Username
		}
		if err := a.store.ResetAll(ctx, actor); err != nil {
			return err
		}
		if err := a.persist(ctx); err != nil {
			return err
		}
		fmt.Println("All documents deleted successfully")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}
