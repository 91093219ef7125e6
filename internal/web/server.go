// Package web serves the upload form, HTML reports and cleaned workbooks
// over HTTP.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	xlog "github.com/ukaji3/xlinspect-go/internal/log"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/cleanup"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/output"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

// multipartMemory is the part of an upload kept in memory before spilling to disk.
const multipartMemory = 8 << 20

var allowedExtensions = map[string]bool{".xlsx": true, ".xlsm": true, ".xls": true}

var workbookContentTypes = map[xlinspect.Format]string{
	xlinspect.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	xlinspect.FormatXLSM: "application/vnd.ms-excel.sheet.macroEnabled.12",
}

// Options configures the web front end.
type Options struct {
	// MaxUploadBytes caps the request body size.
	MaxUploadBytes int64
	// RateLimit is the number of uploads allowed per client IP within RateWindow.
	// Zero disables rate limiting.
	RateLimit  int
	RateWindow time.Duration
	// Analyze holds the defaults for /scan; the form may override the mode.
	Analyze xlinspect.Options
	// TempDir is the parent of per-request upload directories. Empty uses os.TempDir.
	TempDir string
	// CleanupSuffix names cleaned downloads; empty uses cleanup.DefaultSuffix.
	CleanupSuffix string
}

// Server is the HTTP front end.
type Server struct {
	opts   Options
	router chi.Router
}

// NewServer creates a server and its routes.
func NewServer(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	s := &Server{opts: opts}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.Limit(
				s.opts.RateLimit,
				s.opts.RateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					w.Header().Set("Retry-After", fmt.Sprintf("%d", int(s.opts.RateWindow.Seconds())))
					http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
				}),
			))
		}
		r.Post("/scan", s.handleScan)
		r.Post("/cleanup", s.handleCleanup)
	})
	return r
}

// requestID tags every request with a UUID, echoed in X-Request-ID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(xlog.ContextWithRequestID(r.Context(), id)))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		MaxUploadMB int64
		Operations  []string
	}{
		MaxUploadMB: s.opts.MaxUploadBytes >> 20,
		Operations:  (cleanup.Full | cleanup.Objects).Names(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		xlog.FromContext(r.Context(), "web").Error().Err(err).Msg("render index")
	}
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	logger := xlog.FromContext(r.Context(), "web")

	path, cleanupDir, err := s.receiveUpload(w, r)
	if err != nil {
		uploadError(w, err)
		return
	}
	defer cleanupDir()

	opts := s.opts.Analyze
	if m := r.FormValue("mode"); m != "" {
		mode, err := xlinspect.ParseMode(m)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		opts.Mode = mode
	}

	check := xlinspect.Check(r.Context(), path)
	scansTotal.WithLabelValues(string(check.Status)).Inc()

	var report *models.Report
	if xlinspect.Analyzable(check) {
		report, err = xlinspect.Analyze(r.Context(), path, opts)
		if err != nil {
			logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("analysis failed")
			report = nil
		}
	}
	if report != nil {
		// Report the name the client sent, not the temp path.
		report.Path = filepath.Base(path)
	}
	check.Path = filepath.Base(path)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := output.RenderHTML(w, report, &check); err != nil {
		logger.Error().Err(err).Msg("render report")
	}
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	logger := xlog.FromContext(r.Context(), "web")

	path, cleanupDir, err := s.receiveUpload(w, r)
	if err != nil {
		uploadError(w, err)
		return
	}
	defer cleanupDir()

	ops := cleanup.Full
	if selected := r.MultipartForm.Value["op"]; len(selected) > 0 {
		ops, err = cleanup.ParseOps(strings.Join(selected, ","))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	out := cleanup.DefaultOutputPath(path, s.opts.CleanupSuffix)
	res, err := cleanup.Cleanup(r.Context(), path, out, ops)
	if err != nil {
		cleanupsTotal.WithLabelValues("failure").Inc()
		logger.Warn().Err(err).Str("ops", ops.String()).Msg("cleanup failed")
		status := http.StatusInternalServerError
		if errors.Is(err, xlinspect.ErrUnsupportedFormat) || errors.Is(err, xlinspect.ErrInvalidFormat) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	cleanupsTotal.WithLabelValues("success").Inc()
	logger.Info().
		Str("ops", ops.String()).
		Int("removed_parts", len(res.RemovedParts)).
		Int("styled_cells_reset", res.StyledCellsReset).
		Msg("cleanup complete")

	f, err := os.Open(out)
	if err != nil {
		http.Error(w, "cleaned workbook unavailable", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", workbookContentType(out))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(out)))
	w.Header().Set("X-Cleanup-Operations", ops.String())
	if _, err := io.Copy(w, f); err != nil {
		logger.Warn().Err(err).Msg("send cleaned workbook")
	}
}

// workbookContentType returns the MIME type of a cleaned workbook by its
// detected format.
func workbookContentType(path string) string {
	if format, err := xlinspect.DetectFormat(path); err == nil {
		if ct, ok := workbookContentTypes[format]; ok {
			return ct
		}
	}
	return workbookContentTypes[xlinspect.FormatXLSX]
}

var (
	errNoFile       = errors.New("no file uploaded")
	errBadExtension = errors.New("unsupported file type (.xlsx, .xlsm or .xls required)")
)

// receiveUpload stores the "file" form field in a fresh directory and returns
// its path and a function that removes the directory.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) (string, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return "", nil, err
	}

	src, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errNoFile
	}
	defer src.Close()

	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(header.Filename, "\\", "/")))
	if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return "", nil, errBadExtension
	}

	dir, err := os.MkdirTemp(s.opts.TempDir, "xlinspect-upload-")
	if err != nil {
		return "", nil, err
	}
	remove := func() {
		if err := os.RemoveAll(dir); err != nil {
			xlog.FromContext(r.Context(), "web").Warn().Err(err).Str("dir", dir).Msg("remove upload dir")
		}
	}

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		remove()
		return "", nil, err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		remove()
		return "", nil, err
	}
	uploadSize.Observe(float64(n))
	return path, remove, nil
}

func uploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		http.Error(w, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
	case errors.Is(err, errNoFile), errors.Is(err, errBadExtension), errors.Is(err, http.ErrNotMultipart):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	logger := xlog.WithComponent("web")
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("web server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown web server: %w", err)
		}
		return nil
	}
}
