package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/radload-io/radload/internal/engine"
	"github.com/radload-io/radload/internal/history"
)

func cliTestStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func storedResult(id string, start time.Time, passed bool) *engine.RunResult {
	return &engine.RunResult{
		ID:        id,
		Name:      "soak " + id,
		Mode:      "constant-rate",
		StartTime: start,
		EndTime:   start.Add(30 * time.Second),
		Duration:  30 * time.Second,
		Totals: engine.Totals{
			Sent:        1500,
			Succeeded:   1489,
			Failed:      6,
			NoReply:     5,
			SuccessRate: 1489.0 / 1500.0,
		},
		Passed: passed,
	}
}

func TestPrintHistoryListEmpty(t *testing.T) {
	store := cliTestStore(t)

	var buf bytes.Buffer
	if err := printHistoryList(&buf, store, 0); err != nil {
		t.Fatalf("printHistoryList() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No runs recorded yet.") {
		t.Errorf("empty store output = %q", buf.String())
	}
}

func TestPrintHistoryList(t *testing.T) {
	store := cliTestStore(t)

	older := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	if _, err := store.Save(storedResult("aaaa1111-0000-0000-0000-000000000000", older, true)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := store.Save(storedResult("bbbb2222-0000-0000-0000-000000000000", newer, false)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var buf bytes.Buffer
	if err := printHistoryList(&buf, store, 0); err != nil {
		t.Fatalf("printHistoryList() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"KEY", "MODE", "PASSED", "constant-rate", "99.3%", "2025-08-25 10:00:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Newest first
	newerIdx := strings.Index(out, "20250825T110000")
	olderIdx := strings.Index(out, "20250825T100000")
	if newerIdx < 0 || olderIdx < 0 {
		t.Fatalf("output missing run keys:\n%s", out)
	}
	if newerIdx > olderIdx {
		t.Error("runs should list newest first")
	}
}

func TestPrintHistoryShow(t *testing.T) {
	store := cliTestStore(t)

	start := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	key, err := store.Save(storedResult("cccc3333-0000-0000-0000-000000000000", start, true))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var buf bytes.Buffer
	if err := printHistoryShow(&buf, store, key, ""); err != nil {
		t.Fatalf("printHistoryShow() error = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `"id": "cccc3333-0000-0000-0000-000000000000"`) {
		t.Errorf("document should be indented JSON:\n%s", out)
	}
	if !strings.Contains(out, `"mode": "constant-rate"`) {
		t.Errorf("document missing mode:\n%s", out)
	}
}

func TestPrintHistoryShowQuery(t *testing.T) {
	store := cliTestStore(t)

	start := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	key, err := store.Save(storedResult("dddd4444-0000-0000-0000-000000000000", start, true))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tests := []struct {
		query string
		want  string
	}{
		{"totals.sent", "1500"},
		{"$.mode", "constant-rate"},
		{"passed", "true"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := printHistoryShow(&buf, store, key, tt.query); err != nil {
			t.Fatalf("printHistoryShow(%q) error = %v", tt.query, err)
		}
		if got := strings.TrimSpace(buf.String()); got != tt.want {
			t.Errorf("query %q = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestPrintHistoryShowPrefix(t *testing.T) {
	store := cliTestStore(t)

	start := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	key, err := store.Save(storedResult("eeee5555-0000-0000-0000-000000000000", start, true))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// The shortened key the list prints is a usable prefix
	var buf bytes.Buffer
	if err := printHistoryShow(&buf, store, shortKey(key), ""); err != nil {
		t.Fatalf("printHistoryShow(prefix) error = %v", err)
	}
	if !strings.Contains(buf.String(), "eeee5555") {
		t.Errorf("prefix lookup returned the wrong document:\n%s", buf.String())
	}
}

func TestPrintHistoryShowMissing(t *testing.T) {
	store := cliTestStore(t)

	var buf bytes.Buffer
	err := printHistoryShow(&buf, store, "20990101T000000", "")
	if err == nil {
		t.Fatal("printHistoryShow() expected an error for an unknown key")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want a not-found error", err)
	}
}

func TestShortKey(t *testing.T) {
	long := "20250825T100000_aaaa1111-0000-0000-0000-000000000000"
	if got := shortKey(long); got != "20250825T100000_aaaa1111" {
		t.Errorf("shortKey() = %q", got)
	}
	if got := shortKey("short"); got != "short" {
		t.Errorf("shortKey(short) = %q", got)
	}
}
