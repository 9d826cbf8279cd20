package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("Room,Item,Index,Status,Notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindSessions(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	touch(t, dir, "check_results_2024-05-01.csv", base)
	touch(t, dir, "check_results_2024-04-30.csv", base.Add(time.Hour))
	touch(t, dir, "check_results_backup.csv", base.Add(-time.Hour))
	touch(t, dir, "current_state.csv", base.Add(2*time.Hour))
	touch(t, dir, "check_results_2024-05-02.txt", base.Add(3*time.Hour))
	if err := os.Mkdir(filepath.Join(dir, "check_results_dir.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	sessions, err := FindSessions(dir, "check_results_")
	if err != nil {
		t.Fatalf("FindSessions: %v", err)
	}
	want := []string{"check_results_2024-04-30.csv", "check_results_2024-05-01.csv", "check_results_backup.csv"}
	if len(sessions) != len(want) {
		t.Fatalf("got %d sessions, want %d: %+v", len(sessions), len(want), sessions)
	}
	for i, name := range want {
		if sessions[i].Name != name {
			t.Errorf("sessions[%d] = %s, want %s", i, sessions[i].Name, name)
		}
	}

	if !sessions[0].HasDate || sessions[0].Date.Format("2006-01-02") != "2024-04-30" {
		t.Errorf("date not parsed: %+v", sessions[0])
	}
	if sessions[2].HasDate {
		t.Errorf("undated session reported a date: %+v", sessions[2])
	}
}

func TestFindSessionsMissingDir(t *testing.T) {
	sessions, err := FindSessions(filepath.Join(t.TempDir(), "nope"), "check_results_")
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestFindSessionsCustomPrefix(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, dir, "audit_2024-01-01.csv", now)
	touch(t, dir, "check_results_2024-01-01.csv", now)

	sessions, err := FindSessions(dir, "audit_")
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].Name != "audit_2024-01-01.csv" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestMostRecent(t *testing.T) {
	if _, ok := MostRecent(nil); ok {
		t.Error("MostRecent(nil) should report absence")
	}
	if _, ok := MostRecent([]Session{}); ok {
		t.Error("MostRecent(empty) should report absence")
	}

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		sessions []Session
		want     string
	}{
		{
			name: "latest mtime wins over date in name",
			sessions: []Session{
				{Name: "check_results_2024-05-02.csv", ModTime: base},
				{Name: "check_results_2024-05-01.csv", ModTime: base.Add(time.Minute)},
			},
			want: "check_results_2024-05-01.csv",
		},
		{
			name: "name breaks ties",
			sessions: []Session{
				{Name: "check_results_2024-05-01.csv", ModTime: base},
				{Name: "check_results_2024-05-03.csv", ModTime: base},
				{Name: "check_results_2024-05-02.csv", ModTime: base},
			},
			want: "check_results_2024-05-03.csv",
		},
		{
			name:     "single",
			sessions: []Session{{Name: "only.csv", ModTime: base}},
			want:     "only.csv",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MostRecent(tt.sessions)
			if !ok {
				t.Fatal("expected a session")
			}
			if got.Name != tt.want {
				t.Errorf("MostRecent = %s, want %s", got.Name, tt.want)
			}
		})
	}
}
