package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/radload-io/radload/internal/config"
	"github.com/radload-io/radload/internal/engine"
	"github.com/radload-io/radload/internal/executor"
	"github.com/radload-io/radload/internal/export"
	"github.com/radload-io/radload/internal/history"
	"github.com/radload-io/radload/internal/output"
	"github.com/radload-io/radload/internal/report"
	"github.com/radload-io/radload/internal/runlog"
)

// runOptions carries everything executeScenario needs beyond the
// scenario itself: the translated executor configuration, the display
// switches, and the resolved output paths.
type runOptions struct {
	Scenario *config.Scenario
	Executor *executor.Config

	Quiet   bool
	Verbose bool
	NoColor bool

	CSVPath  string
	JSONPath string
	HTMLPath string
	LogPath  string
}

// executeScenario runs one configured scenario to completion: engine
// wiring, live progress, final summary, exports, run log, and history.
//
// A run error does not abort result handling; whatever the engine
// assembled is still summarized, exported, and recorded.
func executeScenario(opts *runOptions) (*engine.RunResult, error) {
	recordSamples := opts.CSVPath != "" && opts.Executor.Type != executor.TypeReplay

	eng, err := engine.New(&engine.Config{
		Name:          opts.Scenario.Name,
		Executor:      opts.Executor,
		SenderFactory: senderFactory(opts.Scenario),
		SLOs:          opts.Scenario.SLOs,
		RecordSamples: recordSamples,
	})
	if err != nil {
		return nil, err
	}

	runLog, err := runlog.Open(opts.LogPath)
	if err != nil {
		return nil, err
	}
	defer runLog.Close()

	console := output.NewConsole(output.ConsoleConfig{
		Name:    opts.Scenario.Name,
		Mode:    string(opts.Executor.Type),
		Quiet:   opts.Quiet,
		NoColor: opts.NoColor,
	})

	// Batch mode historically printed nothing but its one summary
	// line; headers and live progress only appear with --verbose.
	batchMode := opts.Executor.Type == executor.TypeBatch
	showProgress := !batchMode || opts.Verbose

	if showProgress {
		console.PrintHeader(opts.Executor)
	}

	runLog.RunStarted(opts.Scenario.Name, opts.Executor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		result *engine.RunResult
		runErr error
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		result, runErr = eng.Run(ctx)
	}()

	// Update progress while the engine is running
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

progressLoop:
	for {
		select {
		case <-done:
			break progressLoop
		case <-ticker.C:
			if !showProgress || !eng.IsRunning() {
				continue
			}
			stats := output.StatsFromSnapshot(eng.GetSnapshot(), eng.GetProgress(), eng.GetStats())
			if console.IsTTY() {
				console.Update(stats)
			} else if !opts.Quiet {
				console.PrintNonInteractiveUpdate(stats)
			}
		}
	}

	if result == nil {
		return nil, runErr
	}
	if runErr != nil {
		// Continue to output whatever results were assembled
		fmt.Fprintf(os.Stderr, "Error running test: %v\n", runErr)
	}

	for _, step := range result.Steps {
		runLog.StepCompleted(step)
	}
	for _, tr := range result.Thresholds {
		if !tr.Passed {
			runLog.ThresholdFailed(tr)
		}
	}
	runLog.RunCompleted(result)

	if batchMode && !opts.Verbose {
		if !opts.Quiet {
			fmt.Println(output.BatchSummaryLine(opts.Executor.Total, opts.Executor.Workers, result.Duration))
		}
	} else {
		console.PrintSummary(result)
	}

	var saved []string
	if opts.CSVPath != "" {
		var csvErr error
		if opts.Executor.Type == executor.TypeReplay {
			csvErr = export.WriteHourlyCSV(opts.CSVPath, result.Steps)
		} else {
			csvErr = export.WriteRequestsCSV(opts.CSVPath, result.Samples)
		}
		if csvErr != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", csvErr)
		} else {
			saved = append(saved, opts.CSVPath)
		}
	}
	if opts.JSONPath != "" {
		if err := export.WriteJSON(opts.JSONPath, result); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
		} else {
			saved = append(saved, opts.JSONPath)
		}
	}
	if opts.HTMLPath != "" {
		if err := report.GenerateHTML(result, opts.HTMLPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating HTML report: %v\n", err)
		} else {
			saved = append(saved, opts.HTMLPath)
		}
	}
	console.PrintSavedFiles(saved...)

	saveHistory(result, opts.Verbose)

	return result, runErr
}

// saveHistory appends a completed run to the history store. History is
// best-effort: a failure to record never fails the run.
func saveHistory(result *engine.RunResult, verbose bool) {
	store, err := history.NewStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open run history: %v\n", err)
		return
	}
	defer store.Close()

	key, err := store.Save(result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save run to history: %v\n", err)
		return
	}
	if verbose {
		fmt.Printf("Run stored in history as %s\n", key)
	}
}

// runScenarioCommand is the shared tail of the batch, run, ramp, and
// replay commands: finalize the scenario, execute it, and exit non-zero
// when the run failed or any threshold broke.
func runScenarioCommand(cmd *cobra.Command, sc *config.Scenario, scenarioPath string) {
	if err := finalizeScenario(sc); err != nil {
		fatal(err)
	}

	execCfg, err := executor.ConfigFromScenario(sc)
	if err != nil {
		fatal(err)
	}

	if sc.Mode == config.ModeReplay {
		points, err := loadReplayProfile(sc, scenarioPath, cmd.Flags().Changed("profile"))
		if err != nil {
			fatal(err)
		}
		execCfg.Profile = points
	}

	flags := cmd.Flags()
	quiet, _ := flags.GetBool("quiet")

	logPath := viper.GetString("log-file")
	if logPath == "" {
		logPath = sc.Outputs.Log
	}

	result, err := executeScenario(&runOptions{
		Scenario: sc,
		Executor: execCfg,
		Quiet:    quiet,
		Verbose:  viper.GetBool("verbose"),
		NoColor:  viper.GetBool("no-color"),
		CSVPath:  pathFlag(flags, "csv", sc.Outputs.CSV),
		JSONPath: pathFlag(flags, "json", sc.Outputs.JSON),
		HTMLPath: pathFlag(flags, "html", sc.Outputs.HTML),
		LogPath:  logPath,
	})
	if err != nil {
		if result == nil {
			// Setup failures were not reported yet; run failures were.
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
	if result != nil && !result.Passed {
		os.Exit(1)
	}
}

// fatal reports a command-level error and exits.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
