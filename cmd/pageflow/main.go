package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/pageflow/internal/build"
	"git.home.luguber.info/inful/pageflow/internal/config"
	"git.home.luguber.info/inful/pageflow/internal/events"
	"git.home.luguber.info/inful/pageflow/internal/eventstore"
	"git.home.luguber.info/inful/pageflow/internal/observability"
	"git.home.luguber.info/inful/pageflow/internal/transformer"
	"git.home.luguber.info/inful/pageflow/internal/version"
	"git.home.luguber.info/inful/pageflow/internal/watch"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pageflow.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Build struct {
		Output string `short:"o" help:"Override the configured output directory"`
	} `cmd:"" help:"Run one build of the configured site"`

	Watch struct{} `cmd:"" help:"Build once, then rebuild whenever the source tree changes"`

	Daemon struct{} `cmd:"" help:"Run continuously: watch for changes, rebuild on schedule, expose metrics"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write a starter configuration file"`
}

func main() {
	kctx := kong.Parse(&CLI, kong.Vars{"version": version.Version})

	if kctx.Command() == "init" {
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Configuration written", "path", CLI.Config)
		return
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if CLI.Build.Output != "" {
		cfg.OutputDir = CLI.Build.Output
	}

	level, _ := observability.ParseLevel(cfg.LogLevel)
	if CLI.Verbose {
		level = observability.LevelDebug
	}
	logger := observability.NewLogger(level)
	slog.SetDefault(logger)

	a, err := newApp(cfg, logger)
	if err != nil {
		slog.Error("Setup failed", "error", err)
		os.Exit(1)
	}
	defer a.close()

	switch kctx.Command() {
	case "build":
		if _, err := a.service.Run(context.Background()); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "watch":
		if err := a.runWatch(false); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Watch failed", "error", err)
			os.Exit(1)
		}
	case "daemon":
		if err := a.runWatch(true); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	}
}

// app wires the build service to its event and metrics plumbing and owns the
// resources behind it.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	service  *build.Service
	registry *prom.Registry
	store    *eventstore.SQLiteStore
	nats     *events.NATSPublisher
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, registry: prom.NewRegistry()}

	var bus *events.Bus
	if cfg.Store.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
		bus = events.NewBusWithStore(store, logger)
	} else {
		bus = events.NewBus()
	}

	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.nats = pub
		bus.Subscribe(pub.Handle)
	}

	metrics := observability.NewPipelineMetrics(a.registry)
	a.service = build.NewService(cfg, logger, []transformer.Observer{metrics, bus}...)
	return a, nil
}

func (a *app) close() {
	if a.nats != nil {
		a.nats.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// runWatch builds once, then blocks rebuilding on filesystem changes until
// interrupted. Daemon mode additionally runs scheduled rebuilds and the
// metrics listener.
func (a *app) runWatch(daemon bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rebuild := func() {
		if _, err := a.service.Run(ctx); err != nil {
			a.logger.Error("Build failed", "error", err)
		}
	}
	rebuild()

	if daemon {
		if a.cfg.Watch.RebuildEvery != "" {
			sched, err := watch.NewScheduler(a.logger)
			if err != nil {
				return err
			}
			if err := sched.ScheduleRebuild(a.cfg.Watch.RebuildEvery, rebuild); err != nil {
				return err
			}
			sched.Start()
			defer func() { _ = sched.Stop() }()
		}
		if a.cfg.Metrics.Addr != "" {
			go a.serveMetrics(a.cfg.Metrics.Addr)
		}
	}

	w, err := watch.NewWatcher(a.cfg.SourceDir,
		time.Duration(a.cfg.Watch.DebounceMS)*time.Millisecond, rebuild, a.logger)
	if err != nil {
		return err
	}
	return w.Start(ctx)
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.logger.Info("metrics listener started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		a.logger.Error("metrics listener failed", "error", err)
	}
}
