// Package cli implements the radload command tree.
//
// Global target and client flags live on the root command and are bound
// through viper, so every knob can also come from the RADLOAD_*
// environment or an optional ~/.radload.yaml defaults file. Explicitly
// set command-line flags always win; a scenario file sits between the
// flags and the environment.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/radload-io/radload/internal/config"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "radload",
	Short:   "A load-testing harness for RADIUS authentication servers",
	Version: version,
	Long: `Radload drives load against a RADIUS authentication server through an
external test client (radclient by default). It supports fixed batches
split across parallel workers, constant-rate soaks, stepped ramps that
stop at an SLO breach, and compressed replays of hourly traffic
profiles.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := RootCmd.PersistentFlags()
	pf.String("server", config.DefaultServer, "RADIUS server address")
	pf.Int("port", config.DefaultPort, "RADIUS authentication port")
	pf.String("secret", config.DefaultSecret, "RADIUS shared secret")
	pf.String("radclient", config.DefaultBinary, "Path to the external RADIUS test client")
	pf.Duration("timeout", config.DefaultTimeout, "Per-attempt timeout passed to the client (-t)")
	pf.Int("retries", config.DefaultRetries, "Retry count passed to the client (-r)")
	pf.Bool("no-color", false, "Disable colored output")
	pf.BoolP("verbose", "v", false, "Enable verbose output")
	pf.String("log-file", "", "Write a structured run log (JSON lines) to this file")

	for _, name := range []string{
		"server", "port", "secret", "radclient",
		"timeout", "retries", "no-color", "verbose", "log-file",
	} {
		viper.BindPFlag(name, pf.Lookup(name))
	}

	// Add subcommands to root command
	RootCmd.AddCommand(batchCmd)
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(rampCmd)
	RootCmd.AddCommand(replayCmd)
	RootCmd.AddCommand(probeCmd)
	RootCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(versionCmd)
}

// initConfig wires the environment and the optional defaults file into
// viper. RADLOAD_SECRET=... radload run ... works without any flags.
func initConfig() {
	viper.SetEnvPrefix("RADLOAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".radload")
	}

	// The defaults file is optional; a missing one is not an error.
	viper.ReadInConfig()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the radload version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "radload version %s\n", version)
	},
}
