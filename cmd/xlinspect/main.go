// Package main provides the CLI entry point for xlinspect.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ukaji3/xlinspect-go/cmd/xlinspect/ui"
	"github.com/ukaji3/xlinspect-go/internal/config"
	xlog "github.com/ukaji3/xlinspect-go/internal/log"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK      = 0
	exitError   = 1
	exitProblem = 2
)

// ExitError carries a process exit code. A nil Err exits silently.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// cli holds the flag values and effective configuration of one invocation.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	cfg    config.Config

	configPath string
	logLevel   string

	check         bool
	analyze       bool
	reportPath    string
	cleanup       bool
	cleanupStyles bool
	removeObjects bool
	outputPath    string
	mode          string
	jsonOut       bool
	pretty        bool
	jobs          int
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(stderr, exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitError
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "xlinspect [flags] [file...]",
		Short: "Inspect, report on and sanitize Excel workbooks",
		Long: `xlinspect checks Excel workbooks for structural corruption, analyzes
formulas, styles and embedded content, writes HTML reports and removes
external links, excess styles, drawings, objects and pivot caches.

Without arguments it starts the interactive terminal UI.`,
		Args:              cobra.ArbitraryArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		RunE:              c.run,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "Config file path (default: $XDG_CONFIG_HOME/xlinspect/config.yaml)")
	pf.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	f := rootCmd.Flags()
	f.BoolVar(&c.check, "check", false, "Run the quick structure check")
	f.BoolVar(&c.analyze, "analyze", false, "Run the workbook analyzer")
	f.StringVar(&c.reportPath, "report", "", "Write the HTML report (and PATH.json) to PATH")
	f.BoolVar(&c.cleanup, "cleanup", false, "Full cleanup (external links, styles, drawings, pivot caches)")
	f.BoolVar(&c.cleanupStyles, "cleanup_styles", false, "Cleanup styles only")
	f.BoolVar(&c.removeObjects, "remove-objects", false, "Remove shapes, OLE objects, controls and charts")
	f.StringVarP(&c.outputPath, "output", "o", "", "Cleanup output file path (default: <input>_CLEANED.xlsx)")
	f.StringVar(&c.mode, "mode", "", "Analysis mode: light, standard, verbose")
	f.BoolVar(&c.jsonOut, "json", false, "Print results as JSON")
	f.BoolVar(&c.pretty, "pretty", false, "Pretty-print JSON output")
	f.IntVar(&c.jobs, "jobs", 0, "Number of files processed concurrently")

	rootCmd.AddCommand(
		newUICmd(c),
		newServeCmd(c),
		newWatchCmd(c),
		newVersionCmd(c),
	)
	return rootCmd
}

// setup loads the configuration and configures logging.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return &ExitError{Code: exitError, Err: err}
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	c.cfg = cfg
	xlog.Configure(xlog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: c.stderr})
	return nil
}

// analyzeOptions merges the --mode flag over the configured analysis defaults.
func (c *cli) analyzeOptions() (xlinspect.Options, error) {
	name := c.cfg.Analyze.Mode
	if c.mode != "" {
		name = c.mode
	}
	mode, err := xlinspect.ParseMode(name)
	if err != nil {
		return xlinspect.Options{}, err
	}
	return xlinspect.Options{
		Mode:              mode,
		MaxCells:          c.cfg.Analyze.MaxCells,
		VolatileFunctions: c.cfg.Analyze.VolatileFunctions,
	}, nil
}

func (c *cli) hasAction() bool {
	return c.check || c.analyze || c.reportPath != "" || c.cleanup || c.cleanupStyles || c.removeObjects
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !c.hasAction() {
		return c.runUI(cmd.Context(), "")
	}
	if !c.hasAction() {
		return &ExitError{Code: exitProblem, Err: errors.New("No valid action selected. Use --help for more options.")}
	}
	if len(args) == 0 {
		return &ExitError{Code: exitProblem, Err: errors.New("no input file given")}
	}
	if len(args) > 1 && c.outputPath != "" {
		return &ExitError{Code: exitError, Err: errors.New("--output can only be used with a single input file")}
	}
	if len(args) > 1 && c.reportPath != "" {
		return &ExitError{Code: exitError, Err: errors.New("--report can only be used with a single input file")}
	}

	opts, err := c.analyzeOptions()
	if err != nil {
		return &ExitError{Code: exitError, Err: err}
	}
	jobs := c.cfg.Analyze.Jobs
	if c.jobs > 0 {
		jobs = c.jobs
	}

	results := runBatch(cmd.Context(), args, jobs, c.plan(opts))
	if err := c.print(results); err != nil {
		return err
	}

	if code := exitCode(results); code != exitOK {
		return &ExitError{Code: code}
	}
	return nil
}

func (c *cli) runUI(ctx context.Context, dir string) error {
	opts, err := c.analyzeOptions()
	if err != nil {
		return &ExitError{Code: exitError, Err: err}
	}
	return ui.Run(ctx, ui.Options{
		Dir:           dir,
		Analyze:       opts,
		CleanupSuffix: c.cfg.Cleanup.Suffix,
	})
}
