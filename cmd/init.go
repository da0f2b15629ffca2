package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docvault/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize docvault configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure docvault and writes the config file (docvault.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
