package checkdir

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSessionName(t *testing.T) {
	day := time.Date(2024, time.March, 9, 17, 30, 0, 0, time.UTC)
	if got := SessionName(DefaultSessionPrefix, day); got != "check_results_2024-03-09.csv" {
		t.Errorf("SessionName = %q", got)
	}
	if got := SessionName("site_a_", day); got != "site_a_2024-03-09.csv" {
		t.Errorf("SessionName custom prefix = %q", got)
	}
}

func TestPaths(t *testing.T) {
	dir := filepath.Join("data", "check")
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"lock", LockPath(dir), filepath.Join(dir, ".buildcheck.lock")},
		{"config", ConfigPath(dir), filepath.Join(dir, "buildcheck.toml")},
		{"session", SessionPath(dir, "x_", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)), filepath.Join(dir, "x_2025-01-02.csv")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
