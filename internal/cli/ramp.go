package cli

import (
	"github.com/spf13/cobra"

	"github.com/radload-io/radload/internal/config"
)

var rampCmd = &cobra.Command{
	Use:   "ramp",
	Short: "Step the request rate upward until the latency SLO breaks",
	Long: `Ramp sweeps the request rate in steps, holding each step for a fixed
window and checking the window's P95 latency against the SLO ceiling
afterwards. The sweep stops at the first violating step, so the last
reported rate is the highest the server sustained within the SLO.

Metrics reset between steps; each step's block in the summary covers
that step alone.

Examples:
  radload ramp
  radload ramp --start-rps 100 --step-rps 50 --max-rps 1000 --slo-ms 150
  radload ramp --config capacity.yaml --html capacity.html`,
	Run: func(cmd *cobra.Command, args []string) {
		runRamp(cmd, args)
	},
}

func runRamp(cmd *cobra.Command, args []string) {
	sc, scenarioPath, err := loadScenario(cmd, config.ModeRamp)
	if err != nil {
		fatal(err)
	}

	flags := cmd.Flags()
	if sc.Ramp == nil {
		sc.Ramp = &config.RampConfig{}
	}
	if flags.Changed("start-rps") || sc.Ramp.StartRate == 0 {
		sc.Ramp.StartRate, _ = flags.GetFloat64("start-rps")
	}
	if flags.Changed("step-rps") || sc.Ramp.StepRate == 0 {
		sc.Ramp.StepRate, _ = flags.GetFloat64("step-rps")
	}
	if flags.Changed("max-rps") || sc.Ramp.MaxRate == 0 {
		sc.Ramp.MaxRate, _ = flags.GetFloat64("max-rps")
	}
	if flags.Changed("step-duration") || sc.Ramp.StepDuration == 0 {
		d, _ := flags.GetDuration("step-duration")
		sc.Ramp.StepDuration = config.Duration(d)
	}
	if flags.Changed("slo-ms") || sc.Ramp.SLOMillis == 0 {
		sc.Ramp.SLOMillis, _ = flags.GetFloat64("slo-ms")
	}
	if flags.Changed("workers") || sc.Workers == 0 {
		sc.Workers, _ = flags.GetInt("workers")
	}

	runScenarioCommand(cmd, sc, scenarioPath)
}

func init() {
	rampCmd.Flags().Float64("start-rps", config.DefaultStartRate, "Rate of the first step")
	rampCmd.Flags().Float64("step-rps", config.DefaultStepRate, "Rate increase between steps")
	rampCmd.Flags().Float64("max-rps", config.DefaultMaxRate, "Highest rate to attempt")
	rampCmd.Flags().Duration("step-duration", config.DefaultStepDuration, "How long to hold each step")
	rampCmd.Flags().Float64("slo-ms", config.DefaultSLOMillis, "P95 latency ceiling in milliseconds")
	rampCmd.Flags().Int("workers", config.DefaultWorkers, "Dispatch worker pool size")
	rampCmd.Flags().String("json", "", "Write the full result document to this JSON file")
	rampCmd.Flags().String("html", "", "Write an HTML report to this file")
	rampCmd.Flags().StringP("config", "c", "", "Scenario file (YAML or JSON)")
	rampCmd.Flags().BoolP("quiet", "q", false, "Suppress live progress, print only the final verdict")
}
