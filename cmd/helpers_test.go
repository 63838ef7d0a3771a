package cmd

import (
	"testing"

	"github.com/inside-track/post-deploy-scripts/internal/planner"
	"github.com/inside-track/post-deploy-scripts/internal/script"
)

func TestStrategyFromFlags(t *testing.T) {
	tests := []struct {
		name string
		dir  script.Direction
		all  bool
		to   int64
		step int
		want planner.Strategy
	}{
		{"up default is all", script.Up, false, 0, 0, planner.Strategy{All: true}},
		{"down default is one step", script.Down, false, 0, 0, planner.Strategy{Step: 1}},
		{"explicit all", script.Down, true, 0, 0, planner.Strategy{All: true}},
		{"explicit to", script.Up, false, 42, 0, planner.Strategy{To: 42}},
		{"explicit step", script.Up, false, 0, 3, planner.Strategy{Step: 3}},
		{"all flags pass through", script.Up, true, 42, 3, planner.Strategy{All: true, To: 42, Step: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strategyFromFlags(tt.dir, tt.all, tt.to, tt.step)
			if got != tt.want {
				t.Errorf("strategyFromFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"up", "down", "status", "plan", "new", "validate", "init", "version"}
	registered := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}
