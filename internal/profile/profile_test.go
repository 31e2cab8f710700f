package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	points, err := Parse(strings.NewReader(`hour,rps_modified
0,280
1,170.5
2,0
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(points))
	}
	if points[0].Hour != 0 || points[0].Rate != 280 {
		t.Errorf("points[0] = %+v, want hour 0 rate 280", points[0])
	}
	if points[1].Rate != 170.5 {
		t.Errorf("points[1].Rate = %v, want 170.5", points[1].Rate)
	}
	if points[2].Rate != 0 {
		t.Errorf("points[2].Rate = %v, want 0", points[2].Rate)
	}
}

func TestParse_ExtraColumnsIgnored(t *testing.T) {
	points, err := Parse(strings.NewReader(`hour,rps_original,rps_modified,notes
0,312.4,280,peak
1,198.0,170,
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("len(points) = %d, want 2", len(points))
	}
	if points[0].Rate != 280 {
		t.Errorf("points[0].Rate = %v, want 280 (from rps_modified)", points[0].Rate)
	}
}

func TestParse_ColumnOrderIndependent(t *testing.T) {
	points, err := Parse(strings.NewReader(`rps_modified,hour
42,7
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if points[0].Hour != 7 || points[0].Rate != 42 {
		t.Errorf("points[0] = %+v, want hour 7 rate 42", points[0])
	}
}

func TestParse_WhitespaceTolerated(t *testing.T) {
	points, err := Parse(strings.NewReader("hour, rps_modified\n0, 100\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if points[0].Rate != 100 {
		t.Errorf("points[0].Rate = %v, want 100", points[0].Rate)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty file", "", "profile is empty"},
		{"header only", "hour,rps_modified\n", "no data rows"},
		{"missing hour column", "h,rps_modified\n0,100\n", `missing the "hour" column`},
		{"missing rate column", "hour,rps\n0,100\n", `missing the "rps_modified" column`},
		{"bad hour", "hour,rps_modified\nx,100\n", "invalid hour"},
		{"bad rate", "hour,rps_modified\n0,fast\n", "invalid rate"},
		{"negative rate", "hour,rps_modified\n0,-5\n", "rate must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekday.csv")
	content := "hour,rps_modified\n0,50\n1,75\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	points, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(points) != 2 {
		t.Errorf("len(points) = %d, want 2", len(points))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to open profile") {
		t.Errorf("Load() error = %v, want open failure", err)
	}
}

func TestLimit(t *testing.T) {
	points, err := Parse(strings.NewReader("hour,rps_modified\n0,10\n1,20\n2,30\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := Limit(points, 2); len(got) != 2 {
		t.Errorf("Limit(2) len = %d, want 2", len(got))
	}
	if got := Limit(points, 0); len(got) != 3 {
		t.Errorf("Limit(0) len = %d, want 3 (no limit)", len(got))
	}
	if got := Limit(points, 10); len(got) != 3 {
		t.Errorf("Limit(10) len = %d, want 3", len(got))
	}
}
