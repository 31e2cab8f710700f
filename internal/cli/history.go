package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/radload-io/radload/internal/history"
	"github.com/radload-io/radload/pkg/jsonpath"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and inspect past runs",
	Long: `Every completed run is recorded in ~/.radload/history.db. The history
subcommands read it back: list shows recent runs newest-first, show
prints one stored result document.

Runs are addressed by key; any unique prefix works, so the shortened
keys list prints can be pasted straight into show.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := history.NewStore()
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		if err := printHistoryList(cmd.OutOrStdout(), store, limit); err != nil {
			fatal(err)
		}
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print a stored run result",
	Long: `Show prints the stored result document for one run, addressed by its
key or any unique key prefix.

With --query, only the value at the given path is printed, which makes
stored results scriptable:

  radload history show 20250825T101530 --query totals.successRate
  radload history show 20250825T101530 --query '$.metrics.latency.p95'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := history.NewStore()
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		query, _ := cmd.Flags().GetString("query")
		if err := printHistoryShow(cmd.OutOrStdout(), store, args[0], query); err != nil {
			fatal(err)
		}
	},
}

const historyTimeLayout = "2006-01-02 15:04:05"

// printHistoryList writes one row per stored run.
func printHistoryList(w io.Writer, store *history.Store, limit int) error {
	entries, err := store.List(limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}

	fmt.Fprintf(w, "%-25s %-13s %-19s  %9s %9s %8s  %-6s %s\n",
		"KEY", "MODE", "START", "DURATION", "SENT", "SUCCESS", "PASSED", "NAME")

	for _, e := range entries {
		success := "-"
		if e.Totals.Sent > 0 {
			success = fmt.Sprintf("%.1f%%", e.Totals.SuccessRate*100)
		}

		passed := "no"
		if e.Passed {
			passed = "yes"
		}

		fmt.Fprintf(w, "%-25s %-13s %-19s  %9s %9d %8s  %-6s %s\n",
			shortKey(e.Key),
			e.Mode,
			e.StartTime.Format(historyTimeLayout),
			e.Duration.Round(100*time.Millisecond),
			e.Totals.Sent,
			success,
			passed,
			e.Name)
	}

	return nil
}

// printHistoryShow writes one stored result document, or a single field
// of it when a query path is given.
func printHistoryShow(w io.Writer, store *history.Store, key, query string) error {
	data, err := store.Get(key)
	if err != nil {
		return err
	}

	if query != "" {
		value, err := jsonpath.Extract(string(data), query)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, value)
		return nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		// Stored documents are JSON; fall back to the raw bytes if not.
		w.Write(data)
		fmt.Fprintln(w)
		return nil
	}

	fmt.Fprintln(w, pretty.String())
	return nil
}

// shortKey trims a full run key to its timestamp plus the first ID
// segment, which stays a unique prefix in practice.
func shortKey(key string) string {
	if len(key) > 24 {
		return key[:24]
	}
	return key
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list")
	historyShowCmd.Flags().String("query", "", "Print only the value at this path (gjson or JSONPath)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}
