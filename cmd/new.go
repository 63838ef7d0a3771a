package cmd

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/inside-track/post-deploy-scripts/internal/config"
	"github.com/inside-track/post-deploy-scripts/internal/scaffold"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newCmd)
}

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new script file",
	Long: `Create a new script file in the scripts directory.

The filename is the current UTC timestamp plus the snake_cased name, so
scripts created later always sort after existing ones.`,
	Example: `  postdeploy new add users index
  postdeploy new backfill_orders`,
	Args: cobra.MinimumNArgs(1),
	Run:  runNew,
}

func runNew(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	name := strings.Join(args, " ")
	path, err := scaffold.Create(cfg.ScriptsPath(), name, time.Now())
	if err != nil {
		log.Fatalf("Failed to create script: %v", err)
	}

	fmt.Printf("Created %s\n", path)
}
