package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ukaji3/xlinspect-go/internal/watch"
	"github.com/ukaji3/xlinspect-go/internal/web"
)

func newUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ui [dir]",
		Short: "Start the interactive terminal UI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runUI(cmd.Context(), dir)
		},
	}
}

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI for uploading and scanning workbooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := c.analyzeOptions()
			if err != nil {
				return &ExitError{Code: exitError, Err: err}
			}
			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.Serve.Addr
			}
			srv := web.NewServer(web.Options{
				MaxUploadBytes: int64(c.cfg.Serve.MaxUploadMB) << 20,
				RateLimit:      c.cfg.Serve.RateLimit,
				RateWindow:     c.cfg.Serve.RateWindow,
				Analyze:        opts,
				CleanupSuffix:  c.cfg.Cleanup.Suffix,
			})
			fmt.Fprintf(c.stderr, "Serving on http://%s\n", addr)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config: 127.0.0.1:8765)")
	return cmd
}

func newWatchCmd(c *cli) *cobra.Command {
	var (
		debounce time.Duration
		initial  bool
	)
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Re-check and re-report workbooks in DIR as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.analyzeOptions()
			if err != nil {
				return &ExitError{Code: exitError, Err: err}
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = c.cfg.Watch.Debounce
			}
			w, err := watch.New(args[0], watch.Options{
				Debounce:      debounce,
				Analyze:       opts,
				CleanupSuffix: c.cfg.Cleanup.Suffix,
				Initial:       initial,
				OnResult: func(r watch.Result) {
					if r.Err != nil {
						fmt.Fprintf(c.stderr, "Error: %s: %v\n", r.Path, r.Err)
						return
					}
					fmt.Fprintf(c.stdout, "%s %s -> %s\n", r.Check.String(), r.Path, r.ReportPath)
				},
			})
			if err != nil {
				return &ExitError{Code: exitError, Err: err}
			}
			fmt.Fprintf(c.stderr, "Watching %s (Ctrl+C to stop)\n", args[0])
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before a changed file is processed (default from config: 500ms)")
	cmd.Flags().BoolVar(&initial, "initial", false, "Report on the workbooks already in DIR at startup")
	return cmd
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(c.stdout, "xlinspect %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
