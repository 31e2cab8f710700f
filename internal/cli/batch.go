package cli

import (
	"github.com/spf13/cobra"

	"github.com/radload-io/radload/internal/config"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Split a fixed request total across parallel workers",
	Long: `Batch splits a fixed number of authentication requests evenly across a
fixed number of concurrent workers. Each worker runs its integer share
(total / parallel, remainder dropped) sequentially; the run ends when
every worker finishes.

The output is a single line reporting the configured total, the
configured worker count, and the elapsed wall-clock seconds:

  Total time for 10000 radclient requests with 10 parallel clients: 83 seconds

Use --verbose for the full statistics block.`,
	Run: func(cmd *cobra.Command, args []string) {
		runBatch(cmd, args)
	},
}

func runBatch(cmd *cobra.Command, args []string) {
	sc, scenarioPath, err := loadScenario(cmd, config.ModeBatch)
	if err != nil {
		fatal(err)
	}

	flags := cmd.Flags()
	if sc.Batch == nil {
		sc.Batch = &config.BatchConfig{}
	}
	if flags.Changed("total") || sc.Batch.Total == 0 {
		sc.Batch.Total, _ = flags.GetInt64("total")
	}
	if flags.Changed("parallel") || sc.Batch.Parallel == 0 {
		sc.Batch.Parallel, _ = flags.GetInt("parallel")
	}

	runScenarioCommand(cmd, sc, scenarioPath)
}

func init() {
	batchCmd.Flags().Int64("total", config.DefaultBatchTotal, "Total number of requests to send")
	batchCmd.Flags().Int("parallel", config.DefaultBatchParallel, "Number of parallel workers")
	batchCmd.Flags().String("csv", "", "Write per-request results to this CSV file")
	batchCmd.Flags().String("json", "", "Write the full result document to this JSON file")
	batchCmd.Flags().StringP("config", "c", "", "Scenario file (YAML or JSON)")
	batchCmd.Flags().BoolP("quiet", "q", false, "Suppress all output, report through the exit code")
}
