// Package config loads settings for the source view tool.
//
// Settings come from three places, later ones winning: built-in defaults, a
// TOML or YAML file chosen by its extension, and SOURCEVIEW_* environment
// variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/keystorm-sourceview/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SOURCEVIEW_"

// appDir is the directory under the user config dir holding our files.
const appDir = "keystorm-sourceview"

// Config holds every setting.
type Config struct {
	// Extension is the managed document extension, without the dot.
	Extension string `toml:"extension" yaml:"extension"`

	// DataPath is the JSON file holding the preference list.
	DataPath string `toml:"data_path" yaml:"data_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// WatchData reloads preferences when the data file changes on disk.
	WatchData bool `toml:"watch_data" yaml:"watch_data"`

	// Notice configures toggle confirmations.
	Notice NoticeConfig `toml:"notice" yaml:"notice"`
}

// NoticeConfig configures the notice center.
type NoticeConfig struct {
	// Timeout is how long a notice stays visible, as a Go duration string.
	Timeout string `toml:"timeout" yaml:"timeout"`

	// History bounds the number of remembered notices.
	History int `toml:"history" yaml:"history"`
}

// TimeoutDuration returns Timeout parsed, or the default when unset or
// unparsable. Validate reports unparsable values.
func (n NoticeConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(n.Timeout)
	if err != nil || d <= 0 {
		return defaultNoticeTimeout
	}
	return d
}

const defaultNoticeTimeout = 4 * time.Second

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Extension: "md",
		DataPath:  DefaultDataPath(),
		LogLevel:  "info",
		WatchData: true,
		Notice: NoticeConfig{
			Timeout: defaultNoticeTimeout.String(),
			History: 50,
		},
	}
}

// DefaultDataPath returns the data file under the user config directory, or a
// file in the working directory when no config directory is available.
func DefaultDataPath() string {
	return filepath.Join(userDir(), "data.json")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(userDir(), "config.toml")
}

func userDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + appDir
	}
	return filepath.Join(dir, appDir)
}

// Load returns the defaults overlaid with the file at path and then the
// environment. A missing file is not an error. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFile overlays the settings in path onto c. The decoder is chosen by
// extension: .toml, .yaml or .yml. Unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return c.decodeTOML(path, data)
	case ".yaml", ".yml":
		return c.decodeYAML(path, data)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func (c *Config) decodeTOML(path string, data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		perr := &ParseError{Path: path, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, _ = derr.Position()
		}
		return perr
	}
	return nil
}

func (c *Config) decodeYAML(path string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

// ApplyEnv overlays SOURCEVIEW_* variables read through lookup.
//
//	SOURCEVIEW_EXTENSION       extension
//	SOURCEVIEW_DATA_PATH       data_path
//	SOURCEVIEW_LOG_LEVEL       log_level
//	SOURCEVIEW_WATCH_DATA      watch_data (strconv.ParseBool)
//	SOURCEVIEW_NOTICE_TIMEOUT  notice.timeout
//	SOURCEVIEW_NOTICE_HISTORY  notice.history
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "EXTENSION"); ok {
		c.Extension = v
	}
	if v, ok := lookup(EnvPrefix + "DATA_PATH"); ok {
		c.DataPath = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvPrefix + "WATCH_DATA"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ValidationError{Setting: EnvPrefix + "WATCH_DATA", Value: v, Message: "must be a boolean"}
		}
		c.WatchData = b
	}
	if v, ok := lookup(EnvPrefix + "NOTICE_TIMEOUT"); ok {
		c.Notice.Timeout = v
	}
	if v, ok := lookup(EnvPrefix + "NOTICE_HISTORY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Setting: EnvPrefix + "NOTICE_HISTORY", Value: v, Message: "must be an integer"}
		}
		c.Notice.History = n
	}
	return nil
}

// Validate checks every setting and normalizes the extension.
func (c *Config) Validate() error {
	c.Extension = strings.TrimPrefix(strings.TrimSpace(c.Extension), ".")

	var errs []error
	if c.Extension == "" || strings.ContainsAny(c.Extension, `/\ `) {
		errs = append(errs, &ValidationError{Setting: "extension", Value: c.Extension, Message: "must be a bare file extension"})
	}
	if c.DataPath == "" {
		errs = append(errs, &ValidationError{Setting: "data_path", Value: c.DataPath, Message: "must not be empty"})
	}
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, &ValidationError{Setting: "log_level", Value: c.LogLevel, Message: "must be debug, info, warn or error"})
	}
	if d, err := time.ParseDuration(c.Notice.Timeout); err != nil || d <= 0 {
		errs = append(errs, &ValidationError{Setting: "notice.timeout", Value: c.Notice.Timeout, Message: "must be a positive duration"})
	}
	if c.Notice.History < 0 {
		errs = append(errs, &ValidationError{Setting: "notice.history", Value: c.Notice.History, Message: "must not be negative"})
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level.
func (c Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}
