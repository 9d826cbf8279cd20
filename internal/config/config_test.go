// Package config tests configuration loading.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// isolate points HOME and the working directory at fresh temp dirs and
// clears every BUILDCHECK_* variable, returning the working directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, b := range envBindings() {
		t.Setenv(b.env, "")
	}
	t.Chdir(work)
	return work
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.TopologyFile != DefaultTopologyFile {
		t.Errorf("TopologyFile: got %q, want %q", cfg.TopologyFile, DefaultTopologyFile)
	}
	if cfg.SessionPrefix != DefaultSessionPrefix {
		t.Errorf("SessionPrefix: got %q, want %q", cfg.SessionPrefix, DefaultSessionPrefix)
	}
	if !cfg.Lock {
		t.Error("Lock: got false, want true")
	}
	if cfg.HookTimeoutSeconds != DefaultHookTimeout {
		t.Errorf("HookTimeoutSeconds: got %d, want %d", cfg.HookTimeoutSeconds, DefaultHookTimeout)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging defaults: got %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadResolvesPathsAgainstDataDir(t *testing.T) {
	isolate(t)

	cws, err := LoadWithSources(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	cfg := cws.Config

	wantDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != wantDir {
		t.Errorf("DataDir: got %q, want %q", cfg.DataDir, wantDir)
	}
	if cfg.TopologyFile != filepath.Join(wantDir, "floors.json") {
		t.Errorf("TopologyFile: got %q", cfg.TopologyFile)
	}
	if cfg.SnapshotFile != filepath.Join(wantDir, "current_state.csv") {
		t.Errorf("SnapshotFile: got %q", cfg.SnapshotFile)
	}
	if cfg.SchemaFile != "" {
		t.Errorf("SchemaFile: got %q, want empty", cfg.SchemaFile)
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("BUILDCHECK_TOPOLOGY", "site.yaml")
	t.Setenv("BUILDCHECK_LOCK", "no")
	t.Setenv("BUILDCHECK_HOOK_TIMEOUT", "5")
	t.Setenv("BUILDCHECK_LOG_LEVEL", "debug")

	cfg := &Config{}
	setDefaults(cfg)
	sources := map[string]ConfigSource{}
	if err := loadFromEnv(cfg, sources); err != nil {
		t.Fatalf("loadFromEnv: %v", err)
	}

	if cfg.TopologyFile != "site.yaml" {
		t.Errorf("TopologyFile: got %q, want site.yaml", cfg.TopologyFile)
	}
	if cfg.Lock {
		t.Error("Lock: got true, want false")
	}
	if cfg.HookTimeoutSeconds != 5 {
		t.Errorf("HookTimeoutSeconds: got %d, want 5", cfg.HookTimeoutSeconds)
	}
	if sources["log_level"] != SourceEnv {
		t.Errorf("log_level source: got %q, want %q", sources["log_level"], SourceEnv)
	}
}

func TestLoadFromEnvRejectsBadInt(t *testing.T) {
	isolate(t)
	t.Setenv("BUILDCHECK_HOOK_TIMEOUT", "soon")

	cfg := &Config{}
	setDefaults(cfg)
	if err := loadFromEnv(cfg, nil); err == nil {
		t.Fatal("expected error for non-numeric hook timeout")
	}
}

func TestLayerPrecedence(t *testing.T) {
	work := isolate(t)
	home := os.Getenv("HOME")

	userDir := filepath.Join(home, ".buildcheck")
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		t.Fatal(err)
	}
	user := "topology_file = \"user.json\"\nsnapshot_file = \"user.csv\"\nlog_level = \"warn\"\n"
	if err := os.WriteFile(filepath.Join(userDir, "buildcheck.toml"), []byte(user), 0o644); err != nil {
		t.Fatal(err)
	}
	project := "snapshot_file = \"project.csv\"\nlog_level = \"error\"\nmystery = 1\n"
	if err := os.WriteFile(filepath.Join(work, "buildcheck.toml"), []byte(project), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BUILDCHECK_LOG_LEVEL", "debug")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cws, err := LoadWithSources(fs, []string{"--hook", "notify", "Room 101"})
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	cfg := cws.Config

	tests := []struct {
		field  string
		got    string
		want   string
		source ConfigSource
	}{
		{"topology_file", filepath.Base(cfg.TopologyFile), "user.json", SourceUserFile},
		{"snapshot_file", filepath.Base(cfg.SnapshotFile), "project.csv", SourceProjFile},
		{"log_level", cfg.LogLevel, "debug", SourceEnv},
		{"hook_command", cfg.HookCommand, "notify", SourceFlag},
		{"log_format", cfg.LogFormat, "text", SourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s: got %q, want %q", tt.field, tt.got, tt.want)
			}
			if cws.Sources[tt.field] != tt.source {
				t.Errorf("%s source: got %q, want %q", tt.field, cws.Sources[tt.field], tt.source)
			}
		})
	}

	if got := fs.Args(); len(got) != 1 || got[0] != "Room 101" {
		t.Errorf("positional args: got %v", got)
	}
	if len(cws.Files) != 2 {
		t.Errorf("Files: got %v, want user and project", cws.Files)
	}
	if cws.GetConfigFile() != "buildcheck.toml" {
		t.Errorf("GetConfigFile: got %q, want buildcheck.toml", cws.GetConfigFile())
	}
	if len(cws.Undecoded) != 1 || cws.Undecoded[0] != "mystery" {
		t.Errorf("Undecoded: got %v, want [mystery]", cws.Undecoded)
	}
}

func TestLoadConfigFileParseError(t *testing.T) {
	work := isolate(t)
	if err := os.WriteFile(filepath.Join(work, ".buildcheck.toml"), []byte("data_dir = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadWithSources(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "project config file") {
		t.Errorf("error %q should name the project config file", err)
	}
}

func TestFinalizeConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty prefix", func(c *Config) { c.SessionPrefix = "  " }},
		{"prefix with separator", func(c *Config) { c.SessionPrefix = "a/b_" }},
		{"negative timeout", func(c *Config) { c.HookTimeoutSeconds = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			cfg.DataDir = t.TempDir()
			tt.mutate(cfg)
			if err := finalizeConfig(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAbsolutePathsKept(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "elsewhere.csv")
	cfg := &Config{}
	setDefaults(cfg)
	cfg.DataDir = t.TempDir()
	cfg.SnapshotFile = abs
	if err := finalizeConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.SnapshotFile != abs {
		t.Errorf("SnapshotFile: got %q, want %q", cfg.SnapshotFile, abs)
	}
}

func TestExampleConfigDecodes(t *testing.T) {
	work := isolate(t)
	if err := os.WriteFile(filepath.Join(work, "buildcheck.toml"), []byte(ExampleConfig("")), 0o644); err != nil {
		t.Fatal(err)
	}
	cws, err := LoadWithSources(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("example config should load: %v", err)
	}
	if len(cws.Undecoded) != 0 {
		t.Errorf("example config has unknown keys: %v", cws.Undecoded)
	}
}

func TestExampleConfigDataDir(t *testing.T) {
	work := isolate(t)
	data := filepath.Join(t.TempDir(), "site data")
	if err := os.WriteFile(filepath.Join(work, "buildcheck.toml"), []byte(ExampleConfig(data)), 0o644); err != nil {
		t.Fatal(err)
	}
	cws, err := LoadWithSources(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	if cws.Config.DataDir != data {
		t.Errorf("DataDir: got %q, want %q", cws.Config.DataDir, data)
	}
	if cws.Sources["data_dir"] != SourceProjFile {
		t.Errorf("data_dir source: got %v", cws.Sources["data_dir"])
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
	}
	if runtime.GOOS == "windows" {
		t.Setenv("BUILDCHECK_TEST_HOME", home)
		tests = append(tests, struct {
			input string
			want  string
		}{`%BUILDCHECK_TEST_HOME%\logs`, filepath.Join(home, "logs")})
	} else {
		tests = append(tests, struct {
			input string
			want  string
		}{`~\test`, `~\test`})
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := expandPath(tt.input)
			if got != tt.want {
				t.Errorf("expandPath(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBoolFromString(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"off", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := boolFromString(tt.input)
			if got != tt.want {
				t.Errorf("boolFromString(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
