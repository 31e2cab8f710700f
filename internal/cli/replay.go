package cli

import (
	"github.com/spf13/cobra"

	"github.com/radload-io/radload/internal/config"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay an hourly traffic profile, compressed in time",
	Long: `Replay drives load following an hourly rate profile: a CSV file with
"hour" and "rps_modified" columns, one row per hour. Each hour runs at
its profile rate for --hour-duration of wall-clock time, so a full day
compresses into an hour of testing at the default 150s per hour.

Metrics reset between hours; the summary reports one block per hour
plus day-level totals.

Examples:
  radload replay --profile traffic.csv
  radload replay --profile traffic.csv --hours 6 --hour-duration 60s
  radload replay --config dayload.yaml --csv hourly.csv`,
	Run: func(cmd *cobra.Command, args []string) {
		runReplay(cmd, args)
	},
}

func runReplay(cmd *cobra.Command, args []string) {
	sc, scenarioPath, err := loadScenario(cmd, config.ModeReplay)
	if err != nil {
		fatal(err)
	}

	flags := cmd.Flags()
	if sc.Replay == nil {
		sc.Replay = &config.ReplayConfig{}
	}
	if flags.Changed("profile") || sc.Replay.Profile == "" {
		sc.Replay.Profile, _ = flags.GetString("profile")
	}
	if flags.Changed("hour-duration") || sc.Replay.HourDuration == 0 {
		d, _ := flags.GetDuration("hour-duration")
		sc.Replay.HourDuration = config.Duration(d)
	}
	if flags.Changed("hours") {
		sc.Replay.Hours, _ = flags.GetInt("hours")
	}
	if flags.Changed("workers") || sc.Workers == 0 {
		sc.Workers, _ = flags.GetInt("workers")
	}

	runScenarioCommand(cmd, sc, scenarioPath)
}

func init() {
	replayCmd.Flags().String("profile", "", "Hourly rate profile CSV (required)")
	replayCmd.Flags().Duration("hour-duration", config.DefaultHourDuration, "Wall-clock time per profile hour")
	replayCmd.Flags().Int("hours", 0, "Replay only the first N profile hours (0 = all)")
	replayCmd.Flags().Int("workers", config.DefaultWorkers, "Dispatch worker pool size")
	replayCmd.Flags().String("csv", "", "Write per-hour results to this CSV file")
	replayCmd.Flags().String("json", "", "Write the full result document to this JSON file")
	replayCmd.Flags().StringP("config", "c", "", "Scenario file (YAML or JSON)")
	replayCmd.Flags().BoolP("quiet", "q", false, "Suppress live progress, print only the final verdict")
}
