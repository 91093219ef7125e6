// Package xlinspect inspects and sanitizes spreadsheet workbook files.
package xlinspect

import "fmt"

// Mode represents the analysis mode.
type Mode string

const (
	// ModeLight reports the package inventory and sheet list only (no cell scan).
	ModeLight Mode = "light"
	// ModeStandard scans every cell for formulas, styles and layout counters.
	ModeStandard Mode = "standard"
	// ModeVerbose adds volatile formula locations, external link targets and embedded object streams.
	ModeVerbose Mode = "verbose"
)

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLight, ModeStandard, ModeVerbose:
		return Mode(s), nil
	case "":
		return ModeStandard, nil
	}
	return "", fmt.Errorf("invalid mode: %s (must be light, standard, or verbose)", s)
}

// DefaultVolatileFunctions are recomputed on every recalculation.
var DefaultVolatileFunctions = []string{"NOW", "TODAY", "INDIRECT", "OFFSET", "RAND", "RANDBETWEEN"}

// Options configures analysis behavior.
type Options struct {
	// Mode specifies the analysis mode (light, standard, verbose).
	Mode Mode
	// MaxCells caps the number of cells scanned per sheet. Zero means unlimited.
	MaxCells int
	// VolatileFunctions extends DefaultVolatileFunctions.
	VolatileFunctions []string
	// MaxVolatileCells caps the volatile cell listing per sheet in verbose mode.
	// If zero, defaults to 100.
	MaxVolatileCells int
}

// DefaultOptions returns default analysis options.
func DefaultOptions() Options {
	return Options{
		Mode: ModeStandard,
	}
}

// ScanCells returns whether the per-cell scan runs.
func (o Options) ScanCells() bool {
	return o.Mode != ModeLight
}

// Verbose returns whether verbose listings are collected.
func (o Options) Verbose() bool {
	return o.Mode == ModeVerbose
}

func (o Options) volatileListLimit() int {
	if o.MaxVolatileCells > 0 {
		return o.MaxVolatileCells
	}
	return 100
}

func (o Options) volatileFunctions() []string {
	fns := make([]string, 0, len(DefaultVolatileFunctions)+len(o.VolatileFunctions))
	fns = append(fns, DefaultVolatileFunctions...)
	return append(fns, o.VolatileFunctions...)
}
