package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keystorm-sourceview/internal/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Extension != "md" || !cfg.WatchData || cfg.Notice.TimeoutDuration() != 4*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if filepath.Base(cfg.DataPath) != "data.json" {
		t.Errorf("DataPath = %q", cfg.DataPath)
	}
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
extension = "markdown"
data_path = "/tmp/prefs.json"
log_level = "debug"
watch_data = false

[notice]
timeout = "2s"
`)

	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	want := Config{
		Extension: "markdown",
		DataPath:  "/tmp/prefs.json",
		LogLevel:  "debug",
		WatchData: false,
		Notice:    NoticeConfig{Timeout: "2s", History: 50},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "config.yml", `
extension: txt
notice:
  history: 5
`)

	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Extension != "txt" || cfg.Notice.History != 5 || cfg.LogLevel != "info" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg := Default()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "absent.toml")); err != nil {
		t.Errorf("LoadFile() error = %v, want nil for a missing file", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("missing file changed config:\n%s", diff)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		check   func(error) bool
	}{
		{
			name:    "unsupported extension",
			file:    "config.ini",
			content: "extension=md",
			check:   func(err error) bool { return errors.Is(err, ErrUnsupportedFormat) },
		},
		{
			name:    "bad toml",
			file:    "config.toml",
			content: "extension = \n",
			check: func(err error) bool {
				var perr *ParseError
				return errors.As(err, &perr) && perr.Line > 0
			},
		},
		{
			name:    "unknown toml key",
			file:    "config.toml",
			content: "colour = \"red\"\n",
			check: func(err error) bool {
				var perr *ParseError
				return errors.As(err, &perr)
			},
		},
		{
			name:    "unknown yaml key",
			file:    "config.yaml",
			content: "colour: red\n",
			check: func(err error) bool {
				var perr *ParseError
				return errors.As(err, &perr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.LoadFile(writeFile(t, tt.file, tt.content))
			if err == nil || !tt.check(err) {
				t.Errorf("LoadFile() error = %v", err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SOURCEVIEW_EXTENSION":      ".mdx",
		"SOURCEVIEW_DATA_PATH":      "/data/sv.json",
		"SOURCEVIEW_LOG_LEVEL":      "warn",
		"SOURCEVIEW_WATCH_DATA":     "false",
		"SOURCEVIEW_NOTICE_TIMEOUT": "1s",
		"SOURCEVIEW_NOTICE_HISTORY": "3",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Extension != "mdx" || cfg.DataPath != "/data/sv.json" || cfg.WatchData {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Level() != logging.LevelWarn || cfg.Notice.TimeoutDuration() != time.Second || cfg.Notice.History != 3 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "SOURCEVIEW_WATCH_DATA" {
			return "sometimes", true
		}
		return "", false
	})
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("ApplyEnv() error = %v, want ErrValidationFailed", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Extension = "a/b"
	cfg.LogLevel = "loud"
	cfg.Notice.Timeout = "soon"
	cfg.Notice.History = -1

	err := cfg.Validate()
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("Validate() error = %v, want ErrValidationFailed", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Setting != "extension" {
		t.Errorf("first validation error = %v", verr)
	}
	if cfg.Notice.TimeoutDuration() != defaultNoticeTimeout {
		t.Errorf("TimeoutDuration() = %v, want default", cfg.Notice.TimeoutDuration())
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("SOURCEVIEW_LOG_LEVEL", "error")
	path := writeFile(t, "config.toml", "log_level = \"debug\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, environment should win over file", cfg.LogLevel)
	}

	if _, err := Load(""); err != nil {
		t.Errorf("Load(\"\") error = %v", err)
	}
}
