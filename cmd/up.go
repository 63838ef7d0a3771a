package cmd

import (
	"context"
	"log"

	"github.com/inside-track/post-deploy-scripts/internal/script"
	"github.com/spf13/cobra"
)

var (
	upAll  bool
	upTo   int64
	upStep int
)

func init() {
	rootCmd.AddCommand(upCmd)
	upCmd.Flags().BoolVar(&upAll, "all", false, "Apply all pending scripts (default)")
	upCmd.Flags().Int64Var(&upTo, "to", 0, "Apply pending scripts up to and including this version")
	upCmd.Flags().IntVar(&upStep, "step", 0, "Apply at most this many pending scripts")
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending scripts",
	Long: `Apply pending scripts in ascending version order.

Already-applied versions are skipped. By default every pending script runs;
--to and --step narrow the selection.`,
	Run: runUp,
}

func runUp(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	b, cfg, _, err := connect(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = b.Close() }()

	strat := strategyFromFlags(script.Up, upAll, upTo, upStep)
	result, err := newRunner(b, cfg).Run(ctx, script.Up, strat)
	reportResult(result, err)
}
