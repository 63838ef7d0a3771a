package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which scripts are applied",
	Long: `Show every known script in version order with its state.

Applied versions whose source file has been deleted still appear, marked as
having no source.`,
	Run: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	b, cfg, env, err := connect(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = b.Close() }()

	entries, err := newRunner(b, cfg).Status(ctx)
	if err != nil {
		log.Fatalf("Status failed: %v", err)
	}

	fmt.Printf("Environment: %s\n\n", env.Name)
	if len(entries) == 0 {
		fmt.Println("No scripts found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tVERSION\tNAME")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\n", entry.State, entry.Version, entry.Name)
	}
	_ = w.Flush()
}
