package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/radload-io/radload/internal/config"
	"github.com/radload-io/radload/internal/executor"
	"github.com/radload-io/radload/internal/profile"
	"github.com/radload-io/radload/internal/radius"
)

// loadScenario assembles the scenario a command will run: the --config
// file if one was given, otherwise an empty scenario of the command's
// mode, with the global target and client flags overlaid. The returned
// path is the scenario file location ("" when flags-only), used to
// resolve relative paths inside the file.
//
// Mode-specific flags are overlaid by each command before it finalizes
// the scenario.
func loadScenario(cmd *cobra.Command, mode config.Mode) (*config.Scenario, string, error) {
	flags := cmd.Flags()

	var (
		sc   *config.Scenario
		path string
	)

	if flags.Lookup("config") != nil {
		path, _ = flags.GetString("config")
	}

	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		if loaded.Mode != mode {
			return nil, "", fmt.Errorf("scenario file %s is a %q scenario, not %q", path, loaded.Mode, mode)
		}
		sc = loaded
	} else {
		sc = &config.Scenario{Mode: mode}
	}

	applyTargetFlags(flags, sc)

	return sc, path, nil
}

// applyTargetFlags overlays the global target and client knobs onto a
// scenario. An explicitly set flag always wins; otherwise scenario
// values survive, and empty fields fall back to the bound viper value
// (environment, defaults file, or flag default).
func applyTargetFlags(flags *pflag.FlagSet, sc *config.Scenario) {
	if flags.Changed("server") || sc.Target.Server == "" {
		sc.Target.Server = viper.GetString("server")
	}
	if flags.Changed("port") || sc.Target.Port == 0 {
		sc.Target.Port = viper.GetInt("port")
	}
	if flags.Changed("secret") || sc.Target.Secret == "" {
		sc.Target.Secret = viper.GetString("secret")
	}
	if flags.Changed("radclient") || sc.Client.Binary == "" {
		sc.Client.Binary = viper.GetString("radclient")
	}
	if flags.Changed("timeout") || sc.Client.Timeout == 0 {
		sc.Client.Timeout = config.Duration(viper.GetDuration("timeout"))
	}
	if flags.Changed("retries") || sc.Client.Retries == 0 {
		sc.Client.Retries = viper.GetInt("retries")
	}
}

// finalizeScenario applies defaults to whatever the flags left unset and
// validates the result. Called after every flag overlay so a bad merge
// fails before any request is dispatched.
func finalizeScenario(sc *config.Scenario) error {
	config.ApplyDefaults(sc)
	return sc.Validate()
}

// senderFactory builds the per-worker sender constructor for a
// scenario. Workers share one client (it is stateless) but each gets
// its own request.
func senderFactory(sc *config.Scenario) radius.SenderFactory {
	client := radius.NewClient(radius.WithBinary(sc.Client.Binary))

	server := sc.Target.Server
	port := sc.Target.Port
	secret := sc.Target.Secret
	timeout := sc.Client.Timeout.GetDuration(config.DefaultTimeout)
	retries := sc.Client.Retries

	return func() radius.Sender {
		req := radius.NewRequest(server, secret).
			WithPort(port).
			WithTimeout(timeout).
			WithRetries(retries)
		return radius.NewExecSender(client, req)
	}
}

// loadReplayProfile reads the scenario's hourly profile and applies the
// hour limit. A relative profile path inside a scenario file resolves
// against the file's directory; a path given on the command line
// resolves against the working directory.
func loadReplayProfile(sc *config.Scenario, scenarioPath string, fromFlag bool) ([]executor.ProfilePoint, error) {
	path := sc.Replay.Profile
	if !fromFlag && scenarioPath != "" && !filepath.IsAbs(path) {
		path = filepath.Join(config.Dir(scenarioPath), path)
	}

	points, err := profile.Load(path)
	if err != nil {
		return nil, err
	}
	return profile.Limit(points, sc.Replay.Hours), nil
}

// pathFlag returns an output path: the flag value when the command
// defines the flag and it was set, otherwise the scenario's value.
func pathFlag(flags *pflag.FlagSet, name, fromScenario string) string {
	if flags.Lookup(name) == nil {
		return fromScenario
	}
	if v, _ := flags.GetString(name); v != "" {
		return v
	}
	return fromScenario
}
