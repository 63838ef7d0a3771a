package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/inside-track/post-deploy-scripts/internal/config"
	"github.com/inside-track/post-deploy-scripts/internal/planfile"
	"github.com/inside-track/post-deploy-scripts/internal/sqlcheck"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate script and plan files",
	Long: `Validate script and plan files without touching a database.

Subcommands:
  scripts - Parse every SQL script in the scripts directory
  plan    - Validate a plan JSON file against its schema`,
	Example: `  # Check every script for SQL syntax errors
  postdeploy validate scripts

  # Check a single script
  postdeploy validate scripts scripts/20240315093045_add_index.sql

  # Validate an exported plan file
  postdeploy validate plan plan.json`,
}

var validateScriptsCmd = &cobra.Command{
	Use:   "scripts [path]",
	Short: "Check SQL scripts for syntax errors",
	Long: `Parse the up and down sections of each script with a real SQL parser and
report syntax errors with file and line positions. With no argument the
configured scripts directory is checked.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runValidateScripts,
}

var validatePlanCmd = &cobra.Command{
	Use:   "plan <file>",
	Short: "Validate a plan JSON file",
	Args:  cobra.ExactArgs(1),
	Run:   runValidatePlan,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.AddCommand(validateScriptsCmd)
	validateCmd.AddCommand(validatePlanCmd)
}

func runValidateScripts(cmd *cobra.Command, args []string) {
	var (
		issues []sqlcheck.Issue
		target string
		err    error
	)

	if len(args) > 0 {
		target = args[0]
	} else {
		cfg, cfgErr := config.LoadConfig()
		if cfgErr != nil {
			log.Fatalf("Failed to load config: %v", cfgErr)
		}
		target = cfg.ScriptsPath()
	}

	info, err := os.Stat(target)
	if err != nil {
		log.Fatalf("Cannot access %s: %v", target, err)
	}
	if info.IsDir() {
		issues, err = sqlcheck.CheckDir(target)
	} else {
		issues, err = sqlcheck.CheckFile(target)
	}
	if err != nil {
		log.Fatalf("Validation failed: %v", err)
	}

	if len(issues) == 0 {
		fmt.Fprintf(os.Stderr, "✓ No issues found in %s\n", target)
		return
	}

	for _, issue := range issues {
		fmt.Printf("%s:%d: %s: %s\n", issue.File, issue.Line, issue.Severity, issue.Message)
	}
	os.Exit(1)
}

func runValidatePlan(cmd *cobra.Command, args []string) {
	plan, err := planfile.Load(args[0])
	if err != nil {
		log.Fatalf("Plan validation failed: %v", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Plan is valid: %s (%s, %d script(s))\n", args[0], plan.Direction, len(plan.Scripts))
}
