// Package watch re-checks workbooks in a directory as they change and keeps
// an HTML report next to each one.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xlog "github.com/ukaji3/xlinspect-go/internal/log"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/cleanup"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/output"
)

// ReportSuffix is appended to a workbook path to name its report.
const ReportSuffix = ".report.html"

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period after the last event before a file is processed.
	Debounce time.Duration
	// Analyze holds the analysis options used for every report.
	Analyze xlinspect.Options
	// CleanupSuffix marks cleanup outputs, which are not watched.
	CleanupSuffix string
	// Initial processes the workbooks already present when Run starts.
	Initial bool
	// OnResult, if set, is called after each processed file.
	OnResult func(Result)
}

// Result describes one processed workbook.
type Result struct {
	Path       string
	ReportPath string
	Check      models.CheckResult
	Report     *models.Report // nil unless analysis ran and succeeded
	Err        error
}

// Watcher watches one directory.
type Watcher struct {
	dir    string
	opts   Options
	fsw    *fsnotify.Watcher
	logger zerolog.Logger
}

// New starts watching dir. Events that arrive before Run are queued.
func New(dir string, opts Options) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.CleanupSuffix == "" {
		opts.CleanupSuffix = cleanup.DefaultSuffix
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:    dir,
		opts:   opts,
		fsw:    fsw,
		logger: xlog.WithComponent("watch").With().Str("dir", dir).Logger(),
	}, nil
}

// Run processes changed workbooks until ctx is canceled. It closes the
// watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	ready := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	w.logger.Info().Str("event", "watch.started").Msg("watching for workbook changes")

	if w.opts.Initial {
		entries, err := os.ReadDir(w.dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			path := filepath.Join(w.dir, e.Name())
			if !e.IsDir() && w.Relevant(path) {
				w.process(ctx, path)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("event", "watch.stopped").Msg("watcher stopped")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.Relevant(event.Name) {
				continue
			}
			w.logger.Debug().Str("op", event.Op.String()).Str("file", event.Name).Msg("workbook changed")

			path := event.Name
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(w.opts.Debounce, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(timers, path)
			w.process(ctx, path)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

// Relevant reports whether a path names a workbook the watcher reports on.
// Office lock files (~$book.xlsx), reports and cleanup outputs are skipped.
func (w *Watcher) Relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	switch ext {
	case ".xlsx", ".xlsm", ".xls":
	default:
		return false
	}
	return !strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), w.opts.CleanupSuffix)
}

func (w *Watcher) process(ctx context.Context, path string) {
	logger := w.logger.With().Str("file", path).Logger()
	res := Result{Path: path, ReportPath: path + ReportSuffix}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		// Removed or renamed before the debounce fired.
		return
	}

	res.Check = xlinspect.Check(ctx, path)

	if xlinspect.Analyzable(res.Check) {
		r, err := xlinspect.Analyze(ctx, path, w.opts.Analyze)
		if err != nil {
			logger.Warn().Err(err).Msg("analysis failed")
		} else {
			res.Report = r
		}
	}

	if err := output.WriteReport(res.ReportPath, res.Report, &res.Check); err != nil {
		res.Err = err
		logger.Error().Err(err).Msg("write report")
	} else {
		logger.Info().
			Str("event", "watch.report_written").
			Str("status", string(res.Check.Status)).
			Str("report", res.ReportPath).
			Msg("report updated")
	}

	if w.opts.OnResult != nil {
		w.opts.OnResult(res)
	}
}
