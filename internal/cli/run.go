package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vk/eventflow/internal/ctxlog"
	"github.com/vk/eventflow/pipeline"
)

var runWorkers int

var runCmd = &cobra.Command{
	Use:   "run PIPELINE",
	Short: "Execute a pipeline manifest",
	Long: `Execute a pipeline manifest.

PIPELINE is a single .hcl file or a directory; directories are walked
recursively and every .hcl file is merged into one pipeline.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "operator concurrency, 0 means one worker per CPU")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	level, format := effectiveLogging(cfg)
	logger := ctxlog.New(os.Stderr, format, level)
	ctx := ctxlog.WithLogger(cmd.Context(), logger)

	workers := runWorkers
	if workers == 0 {
		workers = cfg.Workers
	}

	p, err := pipeline.Load(ctx, args[0])
	if err != nil {
		return err
	}
	return p.Run(ctx, pipeline.RunOptions{Workers: workers})
}
