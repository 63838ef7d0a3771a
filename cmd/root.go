package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var envFlag string

var rootCmd = &cobra.Command{
	Use:   "postdeploy",
	Short: "postdeploy runs versioned one-shot scripts against a database.",
	Long: `postdeploy runs versioned one-shot scripts against a database.

Scripts live in a directory as <version>_<name>.sql files with up and down
sections. Each script runs at most once per environment; a ledger table in
the target database records which versions have been applied.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "", "Environment name from postdeploy.toml (default: default_environment)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
