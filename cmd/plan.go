package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/inside-track/post-deploy-scripts/internal/planfile"
	"github.com/inside-track/post-deploy-scripts/internal/planner"
	"github.com/inside-track/post-deploy-scripts/internal/script"
	"github.com/spf13/cobra"
)

var (
	planDown bool
	planAll  bool
	planTo   int64
	planStep int
	planOut  string
)

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().BoolVar(&planDown, "down", false, "Plan reverts instead of applies")
	planCmd.Flags().BoolVar(&planAll, "all", false, "Plan every pending script")
	planCmd.Flags().Int64Var(&planTo, "to", 0, "Plan up to and including this version")
	planCmd.Flags().IntVar(&planStep, "step", 0, "Plan at most this many scripts")
	planCmd.Flags().StringVarP(&planOut, "out", "o", "", "Write the plan to a JSON file")
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a run would execute, without executing",
	Long: `Show what a run would execute, without executing anything.

The same strategy flags as up and down apply. With --out the plan is written
to a JSON file for review or audit.`,
	Run: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	b, cfg, env, err := connect(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = b.Close() }()

	dir := script.Up
	if planDown {
		dir = script.Down
	}

	led := newLedger(b, cfg)
	if err := led.Ensure(ctx); err != nil {
		log.Fatalf("Failed to prepare ledger: %v", err)
	}
	applied, err := led.Versions(ctx)
	if err != nil {
		log.Fatalf("Failed to read ledger: %v", err)
	}

	catalog, err := script.DirSource{Dir: cfg.ScriptsPath()}.Catalog()
	if err != nil {
		log.Fatalf("Failed to read scripts: %v", err)
	}

	strat := strategyFromFlags(dir, planAll, planTo, planStep)
	planned, err := planner.Plan(applied, catalog, dir, strat)
	if err != nil {
		log.Fatalf("Planning failed: %v", err)
	}

	if len(planned) == 0 {
		fmt.Printf("Nothing to do: no pending scripts (%s)\n", dir)
		return
	}

	fmt.Printf("Plan for %s (%s), %d script(s):\n\n", env.Name, dir, len(planned))
	for _, desc := range planned {
		fmt.Printf("  %d_%s\n", desc.Version, desc.Name)
	}

	if planOut != "" {
		plan := planfile.FromDescriptors(env.Name, dir, planned)
		if err := plan.Write(planOut); err != nil {
			log.Fatalf("Failed to write plan: %v", err)
		}
		fmt.Printf("\nPlan written to %s\n", planOut)
	}
}
