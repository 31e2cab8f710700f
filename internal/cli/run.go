package cli

import (
	"github.com/spf13/cobra"

	"github.com/radload-io/radload/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Hold a constant request rate for a fixed duration",
	Long: `Run paces authentication requests at a fixed rate for a fixed duration,
dispatching through a bounded worker pool. The summary reports outcome
counters, the response-time distribution, and percentile latencies.

Thresholds (--slo) are evaluated against the run's metrics; any
violation makes the run fail and the command exit non-zero.

Examples:
  radload run --rps 50 --duration 60s
  radload run --rps 170 --duration 10m --workers 100 --slo "p95 < 200ms"
  radload run --config soak.yaml --html report.html`,
	Run: func(cmd *cobra.Command, args []string) {
		runRun(cmd, args)
	},
}

func runRun(cmd *cobra.Command, args []string) {
	sc, scenarioPath, err := loadScenario(cmd, config.ModeRun)
	if err != nil {
		fatal(err)
	}

	flags := cmd.Flags()
	if flags.Changed("rps") || sc.Rate == 0 {
		sc.Rate, _ = flags.GetFloat64("rps")
	}
	if flags.Changed("duration") || sc.Duration == 0 {
		d, _ := flags.GetDuration("duration")
		sc.Duration = config.Duration(d)
	}
	if flags.Changed("workers") || sc.Workers == 0 {
		sc.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("slo") {
		sc.SLOs, _ = flags.GetStringArray("slo")
	}

	runScenarioCommand(cmd, sc, scenarioPath)
}

func init() {
	runCmd.Flags().Float64("rps", 0, "Target requests per second (required)")
	runCmd.Flags().Duration("duration", 0, "How long to hold the rate, e.g. 60s or 10m (required)")
	runCmd.Flags().Int("workers", config.DefaultWorkers, "Dispatch worker pool size")
	runCmd.Flags().StringArray("slo", nil, "Threshold expression, repeatable (e.g. \"p95 < 200ms\")")
	runCmd.Flags().String("csv", "", "Write per-request results to this CSV file")
	runCmd.Flags().String("json", "", "Write the full result document to this JSON file")
	runCmd.Flags().String("html", "", "Write an HTML report to this file")
	runCmd.Flags().StringP("config", "c", "", "Scenario file (YAML or JSON)")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress live progress, print only the final verdict")
}
