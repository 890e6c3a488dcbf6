package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/cinemad/internal/engine"
	"github.com/roach88/cinemad/internal/metrics"
	"github.com/roach88/cinemad/internal/server"
	"github.com/roach88/cinemad/internal/session"
	"github.com/roach88/cinemad/internal/watch"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr        string
	MetricsPath string
	Watch       bool
	WatchDelay  time.Duration
	Activate    bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve <spec>",
		Short: "Serve displays over HTTP",
		Long: `Open a specification and serve its displays over HTTP.

All activations and selections go through one session, so requests are
applied in arrival order. With --watch, local sources are reloaded when
their files change and every display using them is re-activated.

Endpoints:
  GET  /v1/health
  GET  /v1/displays
  GET  /v1/displays/:id
  POST /v1/displays/:id/activate
  POST /v1/displays/:id/structures/:sid/select   {"value": "..."}
  GET  /metrics

Example:
  cinemad serve ./cinema.json --addr :8080 --watch`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", defaults.Addr, "listen address")
	cmd.Flags().StringVar(&opts.MetricsPath, "metrics-path", defaults.MetricsPath, "Prometheus metrics path (empty disables)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "reload local sources when their files change")
	cmd.Flags().DurationVar(&opts.WatchDelay, "watch-delay", watch.DefaultDelay, "debounce delay for file changes")
	cmd.Flags().BoolVar(&opts.Activate, "activate", true, "activate every display at startup")

	return cmd
}

func runServe(opts *ServeOptions, spec string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, err := OpenDatabase(ctx, spec, logger, engine.WithObserver(metrics.NewObserver(reg)))
	if err != nil {
		return reportLoadError(formatter, err)
	}

	cfg := server.DefaultConfig()
	cfg.Addr = opts.Addr
	cfg.MetricsPath = opts.MetricsPath

	if err := serve(ctx, db, cfg, reg, opts, logger); err != nil {
		return WrapExitError(ExitCommandError, "serve failed", err)
	}
	return nil
}

// serve runs the session, the HTTP server and, optionally, the file
// watcher until ctx is cancelled or one of them fails.
func serve(ctx context.Context, db *engine.Database, cfg server.Config, reg *prometheus.Registry, opts *ServeOptions, logger *slog.Logger) error {
	sess := session.New(db, logger)
	srv := server.New(sess, cfg, reg, logger)

	var watcher *watch.Watcher
	if opts.Watch {
		w, err := watch.New(db, sess, opts.WatchDelay, logger)
		if err != nil {
			return err
		}
		watcher = w
		logger.Info("watching sources", "files", w.Paths())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(sess.Run(gctx)) })
	g.Go(func() error { return srv.Run(gctx) })
	if watcher != nil {
		g.Go(func() error { return ignoreCanceled(watcher.Run(gctx)) })
	}

	if opts.Activate {
		for _, d := range db.Displays() {
			res, err := sess.Activate(gctx, d.ID())
			if err != nil {
				logger.Warn("startup activation failed", "display", d.ID(), "error", err)
				continue
			}
			logger.Info("display activated",
				"display", d.ID(),
				"activation", res.Token,
				"records", res.Snapshot.Records,
			)
		}
	}

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
