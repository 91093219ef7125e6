package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	xlog "github.com/ukaji3/xlinspect-go/internal/log"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/cleanup"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/output"
)

// plan is the work applied to every input file.
type plan struct {
	check      bool
	analyze    bool
	reportPath string
	ops        cleanup.Op
	outputPath string
	suffix     string
	analysis   xlinspect.Options
}

// fileResult is the outcome of one input file.
type fileResult struct {
	Path     string                `json:"path"`
	Check    *models.CheckResult   `json:"check,omitempty"`
	Analysis *models.Report        `json:"analysis,omitempty"`
	Report   string                `json:"report,omitempty"`
	Cleanup  *models.CleanupResult `json:"cleanup,omitempty"`
	Error    string                `json:"error,omitempty"`

	failed bool
}

func (c *cli) plan(opts xlinspect.Options) plan {
	p := plan{
		check:      c.check,
		analyze:    c.analyze || c.reportPath != "",
		reportPath: c.reportPath,
		outputPath: c.outputPath,
		suffix:     c.cfg.Cleanup.Suffix,
		analysis:   opts,
	}
	if c.cleanup {
		p.ops |= cleanup.Full
	}
	if c.cleanupStyles {
		p.ops |= cleanup.StylesOnly
	}
	if c.removeObjects {
		p.ops |= cleanup.ObjectsOnly
	}
	return p
}

// runBatch processes files concurrently, at most jobs at a time. Results keep
// the argument order.
func runBatch(ctx context.Context, files []string, jobs int, p plan) []fileResult {
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, path := range files {
		g.Go(func() error {
			results[i] = processFile(gctx, path, p)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func processFile(ctx context.Context, path string, p plan) fileResult {
	logger := xlog.WithFile("cli", path)
	res := fileResult{Path: path}
	fail := func(err error) fileResult {
		logger.Error().Err(err).Msg("processing failed")
		res.Error = err.Error()
		res.failed = true
		return res
	}

	var check models.CheckResult
	if p.check || p.reportPath != "" {
		check = xlinspect.Check(ctx, path)
		if p.check {
			res.Check = &check
		}
	}

	if p.analyze {
		report, err := xlinspect.Analyze(ctx, path, p.analysis)
		if err != nil {
			return fail(fmt.Errorf("analysis failed: %w", err))
		}
		res.Analysis = report

		if p.reportPath != "" {
			if err := output.WriteReport(p.reportPath, report, &check); err != nil {
				return fail(fmt.Errorf("failed to write report: %w", err))
			}
			res.Report = p.reportPath
		}
	}

	if p.ops != 0 {
		out := p.outputPath
		if out == "" {
			out = cleanup.DefaultOutputPath(path, p.suffix)
		}
		cr, err := cleanup.Cleanup(ctx, path, out, p.ops)
		if err != nil {
			return fail(fmt.Errorf("cleanup failed: %w", err))
		}
		logger.Info().Str("output", cr.Output).Strs("operations", cr.Operations).Msg("cleanup complete")
		res.Cleanup = cr
	}
	return res
}

// exitCode is exitError when any file failed, exitProblem when any check
// was not OK and exitOK otherwise.
func exitCode(results []fileResult) int {
	code := exitOK
	for _, r := range results {
		if r.failed {
			return exitError
		}
		if r.Check != nil && !r.Check.OK() {
			code = exitProblem
		}
	}
	return code
}

func (c *cli) print(results []fileResult) error {
	if c.jsonOut {
		var v any = results
		if len(results) == 1 {
			v = results[0]
		}
		data, err := output.ToJSON(v, c.pretty)
		if err != nil {
			return fmt.Errorf("serialization failed: %w", err)
		}
		_, err = fmt.Fprintln(c.stdout, string(data))
		return err
	}

	for i, r := range results {
		if len(results) > 1 {
			if i > 0 {
				fmt.Fprintln(c.stdout)
			}
			fmt.Fprintf(c.stdout, "== %s\n", r.Path)
		}
		if r.Check != nil {
			fmt.Fprintln(c.stdout, r.Check.String())
		}
		if r.Analysis != nil {
			if err := output.WriteText(c.stdout, r.Analysis); err != nil {
				return err
			}
		}
		if r.Report != "" {
			fmt.Fprintln(c.stdout, "Report generated at", r.Report)
		}
		if r.Cleanup != nil {
			if err := output.WriteCleanupText(c.stdout, r.Cleanup); err != nil {
				return err
			}
		}
		if r.Error != "" {
			fmt.Fprintf(c.stderr, "Error: %s: %s\n", r.Path, r.Error)
		}
	}
	return nil
}
