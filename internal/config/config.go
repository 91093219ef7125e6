// Package config loads xlinspect settings from defaults, a YAML file and
// XLINSPECT_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the config directory.
const FileName = "config.yaml"

// Config is the effective application configuration.
type Config struct {
	Log     LogConfig
	Analyze AnalyzeConfig
	Cleanup CleanupConfig
	Serve   ServeConfig
	Watch   WatchConfig
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string
	Format string
}

// AnalyzeConfig holds analysis defaults.
type AnalyzeConfig struct {
	Mode              string
	MaxCells          int
	VolatileFunctions []string
	Jobs              int
}

// CleanupConfig holds cleanup defaults.
type CleanupConfig struct {
	Suffix string
}

// ServeConfig configures the web front end.
type ServeConfig struct {
	Addr        string
	MaxUploadMB int
	RateLimit   int
	RateWindow  time.Duration
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	Debounce time.Duration
}

// FileConfig mirrors the YAML file layout. Durations are Go duration strings.
type FileConfig struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Analyze struct {
		Mode              string   `yaml:"mode"`
		MaxCells          *int     `yaml:"max_cells"`
		VolatileFunctions []string `yaml:"volatile_functions"`
		Jobs              *int     `yaml:"jobs"`
	} `yaml:"analyze"`
	Cleanup struct {
		Suffix string `yaml:"suffix"`
	} `yaml:"cleanup"`
	Serve struct {
		Addr        string `yaml:"addr"`
		MaxUploadMB *int   `yaml:"max_upload_mb"`
		RateLimit   *int   `yaml:"rate_limit"`
		RateWindow  string `yaml:"rate_window"`
	} `yaml:"serve"`
	Watch struct {
		Debounce string `yaml:"debounce"`
	} `yaml:"watch"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Log: LogConfig{Level: "warn", Format: "json"},
		Analyze: AnalyzeConfig{
			Mode: "standard",
			Jobs: 4,
		},
		Cleanup: CleanupConfig{Suffix: "_CLEANED"},
		Serve: ServeConfig{
			Addr:        "127.0.0.1:8765",
			MaxUploadMB: 50,
			RateLimit:   30,
			RateWindow:  time.Minute,
		},
		Watch: WatchConfig{Debounce: 500 * time.Millisecond},
	}
}

// Load loads configuration with precedence: ENV > File > Defaults.
// An empty path resolves the default location; a missing default file is not
// an error, a missing explicit file is.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		fileCfg, err := loadFile(path)
		switch {
		case err == nil:
			if err := mergeFileConfig(&cfg, fileCfg); err != nil {
				return cfg, fmt.Errorf("merge file config: %w", err)
			}
		case !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnvConfig(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// DefaultPath returns the config file location:
// $XLINSPECT_CONFIG_DIR, then $XDG_CONFIG_HOME/xlinspect, then ~/.config/xlinspect.
func DefaultPath() string {
	if dir := os.Getenv("XLINSPECT_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, FileName)
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "xlinspect", FileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "xlinspect", FileName)
}

// loadFile parses a YAML file strictly: unknown keys are rejected.
func loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(dst *Config, src *FileConfig) error {
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}

	if src.Analyze.Mode != "" {
		dst.Analyze.Mode = src.Analyze.Mode
	}
	if src.Analyze.MaxCells != nil {
		dst.Analyze.MaxCells = *src.Analyze.MaxCells
	}
	if len(src.Analyze.VolatileFunctions) > 0 {
		dst.Analyze.VolatileFunctions = src.Analyze.VolatileFunctions
	}
	if src.Analyze.Jobs != nil {
		dst.Analyze.Jobs = *src.Analyze.Jobs
	}

	if src.Cleanup.Suffix != "" {
		dst.Cleanup.Suffix = src.Cleanup.Suffix
	}

	if src.Serve.Addr != "" {
		dst.Serve.Addr = src.Serve.Addr
	}
	if src.Serve.MaxUploadMB != nil {
		dst.Serve.MaxUploadMB = *src.Serve.MaxUploadMB
	}
	if src.Serve.RateLimit != nil {
		dst.Serve.RateLimit = *src.Serve.RateLimit
	}
	if src.Serve.RateWindow != "" {
		d, err := time.ParseDuration(src.Serve.RateWindow)
		if err != nil {
			return fmt.Errorf("invalid serve.rate_window: %w", err)
		}
		dst.Serve.RateWindow = d
	}

	if src.Watch.Debounce != "" {
		d, err := time.ParseDuration(src.Watch.Debounce)
		if err != nil {
			return fmt.Errorf("invalid watch.debounce: %w", err)
		}
		dst.Watch.Debounce = d
	}
	return nil
}

func mergeEnvConfig(cfg *Config) {
	cfg.Log.Level = ParseString("XLINSPECT_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = ParseString("XLINSPECT_LOG_FORMAT", cfg.Log.Format)

	cfg.Analyze.Mode = ParseString("XLINSPECT_MODE", cfg.Analyze.Mode)
	cfg.Analyze.MaxCells = ParseInt("XLINSPECT_MAX_CELLS", cfg.Analyze.MaxCells)
	cfg.Analyze.VolatileFunctions = ParseList("XLINSPECT_VOLATILE_FUNCTIONS", cfg.Analyze.VolatileFunctions)
	cfg.Analyze.Jobs = ParseInt("XLINSPECT_JOBS", cfg.Analyze.Jobs)

	cfg.Cleanup.Suffix = ParseString("XLINSPECT_CLEANUP_SUFFIX", cfg.Cleanup.Suffix)

	cfg.Serve.Addr = ParseString("XLINSPECT_SERVE_ADDR", cfg.Serve.Addr)
	cfg.Serve.MaxUploadMB = ParseInt("XLINSPECT_MAX_UPLOAD_MB", cfg.Serve.MaxUploadMB)
	cfg.Serve.RateLimit = ParseInt("XLINSPECT_RATE_LIMIT", cfg.Serve.RateLimit)
	cfg.Serve.RateWindow = ParseDuration("XLINSPECT_RATE_WINDOW", cfg.Serve.RateWindow)

	cfg.Watch.Debounce = ParseDuration("XLINSPECT_WATCH_DEBOUNCE", cfg.Watch.Debounce)
}
