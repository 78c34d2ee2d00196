// Package build assembles a transformer from the site configuration, feeds
// it the discovered content, and writes the resulting manifest.
package build

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"git.home.luguber.info/inful/pageflow/internal/config"
	"git.home.luguber.info/inful/pageflow/internal/content"
	"git.home.luguber.info/inful/pageflow/internal/dataloader"
	"git.home.luguber.info/inful/pageflow/internal/gitsource"
	"git.home.luguber.info/inful/pageflow/internal/page"
	"git.home.luguber.info/inful/pageflow/internal/render"
	"git.home.luguber.info/inful/pageflow/internal/transformer"
)

// QueryAllPages is the always-registered query exposing the full collection
// on every page.
const QueryAllPages = "allPages"

// Service runs complete builds. One Service can run many builds; each Run is
// an independent pipeline execution over a fresh page set.
type Service struct {
	cfg       *config.Config
	logger    *slog.Logger
	observers []transformer.Observer
}

// Result summarizes one completed build.
type Result struct {
	Pages    []*page.Page
	Duration time.Duration
}

// NewService creates a build service. Observers are attached to every run's
// transformer.
func NewService(cfg *config.Config, logger *slog.Logger, observers ...transformer.Observer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, logger: logger, observers: observers}
}

// Run executes one full build: source sync, content discovery, pipeline
// execution, manifest write.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	if s.cfg.Source.Repo != "" {
		git := gitsource.NewClient(s.cfg.Source.Repo, s.cfg.Source.Branch, s.cfg.SourceDir, s.logger)
		if _, err := git.Sync(); err != nil {
			return nil, err
		}
	}

	pages, err := content.NewDiscoverer(s.cfg.SourceDir, page.DefaultFactory, s.logger).Discover()
	if err != nil {
		return nil, err
	}

	final, err := s.transform(ctx, pages)
	if err != nil {
		return nil, err
	}

	if s.cfg.OutputDir != "" {
		if err := WriteManifest(s.cfg.OutputDir, final); err != nil {
			return nil, err
		}
	}

	elapsed := time.Since(start)
	s.logger.Info("build completed", "pages", len(final), "elapsed", elapsed)
	return &Result{Pages: final, Duration: elapsed}, nil
}

// transform assembles a transformer from the configuration and runs it.
func (s *Service) transform(ctx context.Context, pages []*page.Page) ([]*page.Page, error) {
	opts := []transformer.Option{
		transformer.WithLoader(dataloader.New()),
		transformer.WithLogger(s.logger),
	}
	for _, o := range s.observers {
		opts = append(opts, transformer.WithObserver(o))
	}
	tr := transformer.New(transformer.Config{SourceDir: s.cfg.SourceDir}, opts...)

	// Data sources in stable namespace order; YAML maps carry no order.
	namespaces := make([]string, 0, len(s.cfg.Data))
	for ns := range s.cfg.Data {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	for _, ns := range namespaces {
		tr.DataFile(ns, s.cfg.Data[ns])
	}

	for _, pat := range s.cfg.Ignore {
		tr.Ignore(pat)
	}
	for _, rule := range s.cfg.Metadata {
		tr.Metadata(rule.Pattern, rule.Values)
	}
	for _, rule := range s.cfg.Layouts {
		tr.Layout(rule.Pattern, rule.Layout)
	}

	tr.Query(QueryAllPages, nil)

	if s.cfg.Render.Enabled {
		render.Register(tr, s.cfg.Render.Pattern)
	}

	return tr.TransformPages(ctx, pages)
}
