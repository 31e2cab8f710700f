package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/radload-io/radload/internal/radius"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Send a single authentication and report the outcome",
	Long: `Probe sends one authentication attempt through the external client and
prints the outcome with its latency. Useful for checking the target and
shared secret before starting a load run.

The exit code mirrors the outcome: 0 when the server accepted the
authentication, 2 when it never replied, 1 for any other failure.`,
	Run: func(cmd *cobra.Command, args []string) {
		runProbe(cmd, args)
	},
}

func runProbe(cmd *cobra.Command, args []string) {
	client := radius.NewClient(radius.WithBinary(viper.GetString("radclient")))
	req := radius.NewRequest(viper.GetString("server"), viper.GetString("secret")).
		WithPort(viper.GetInt("port")).
		WithTimeout(viper.GetDuration("timeout")).
		WithRetries(viper.GetInt("retries"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp := client.Do(ctx, req)

	fmt.Println(formatProbeResult(resp, req.Target(), viper.GetBool("no-color")))
	if viper.GetBool("verbose") {
		if out := strings.TrimSpace(string(resp.Output)); out != "" {
			fmt.Println(out)
		}
	}

	os.Exit(probeExitCode(resp))
}

// formatProbeResult renders one probe outcome as a single line.
func formatProbeResult(resp *radius.Response, target string, noColor bool) string {
	ms := resp.LatencyMillis()

	switch resp.Status {
	case radius.StatusSucceeded:
		line := fmt.Sprintf("✓ %s: authentication succeeded in %.2f ms", target, ms)
		if noColor {
			return line
		}
		return color.GreenString(line)

	case radius.StatusNoReply:
		line := fmt.Sprintf("✗ %s: no reply after %.2f ms", target, ms)
		if noColor {
			return line
		}
		return color.YellowString(line)

	default:
		line := fmt.Sprintf("✗ %s: authentication failed in %.2f ms (exit %d)", target, ms, resp.ExitCode)
		if noColor {
			return line
		}
		return color.RedString(line)
	}
}

// probeExitCode maps a probe outcome onto the process exit status.
func probeExitCode(resp *radius.Response) int {
	switch resp.Status {
	case radius.StatusSucceeded:
		return 0
	case radius.StatusNoReply:
		return 2
	default:
		return 1
	}
}
