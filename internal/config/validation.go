package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be json or console, got %q", c.Log.Format))
	}

	switch c.Analyze.Mode {
	case "light", "standard", "verbose":
	default:
		errs = append(errs, fmt.Errorf("analyze.mode: must be light, standard or verbose, got %q", c.Analyze.Mode))
	}
	if c.Analyze.MaxCells < 0 {
		errs = append(errs, fmt.Errorf("analyze.max_cells: must not be negative"))
	}
	if c.Analyze.Jobs < 1 {
		errs = append(errs, fmt.Errorf("analyze.jobs: must be at least 1"))
	}
	for _, fn := range c.Analyze.VolatileFunctions {
		if strings.TrimSpace(fn) == "" || strings.ContainsAny(fn, "() ") {
			errs = append(errs, fmt.Errorf("analyze.volatile_functions: invalid function name %q", fn))
		}
	}

	if c.Cleanup.Suffix == "" || strings.ContainsAny(c.Cleanup.Suffix, `/\`) {
		errs = append(errs, fmt.Errorf("cleanup.suffix: must be a non-empty file name fragment"))
	}

	if c.Serve.Addr == "" {
		errs = append(errs, fmt.Errorf("serve.addr: must not be empty"))
	}
	if c.Serve.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("serve.max_upload_mb: must be at least 1"))
	}
	if c.Serve.RateLimit < 1 {
		errs = append(errs, fmt.Errorf("serve.rate_limit: must be at least 1"))
	}
	if c.Serve.RateWindow <= 0 {
		errs = append(errs, fmt.Errorf("serve.rate_window: must be positive"))
	}

	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce: must not be negative"))
	}

	return errors.Join(errs...)
}
