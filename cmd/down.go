package cmd

import (
	"context"
	"log"

	"github.com/inside-track/post-deploy-scripts/internal/script"
	"github.com/spf13/cobra"
)

var (
	downAll  bool
	downTo   int64
	downStep int
)

func init() {
	rootCmd.AddCommand(downCmd)
	downCmd.Flags().BoolVar(&downAll, "all", false, "Revert every applied script")
	downCmd.Flags().Int64Var(&downTo, "to", 0, "Revert applied scripts down to and including this version")
	downCmd.Flags().IntVar(&downStep, "step", 0, "Revert at most this many applied scripts (default 1)")
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert applied scripts",
	Long: `Revert applied scripts in descending version order.

By default only the most recently applied script is reverted; --all, --to,
and --step widen the selection.`,
	Run: runDown,
}

func runDown(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	b, cfg, _, err := connect(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = b.Close() }()

	strat := strategyFromFlags(script.Down, downAll, downTo, downStep)
	result, err := newRunner(b, cfg).Run(ctx, script.Down, strat)
	reportResult(result, err)
}
