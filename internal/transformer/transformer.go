// Package transformer implements the page transformation engine: operations
// of several kinds are registered against glob patterns, then executed in a
// fixed stage order over a page collection. The first failure raised by any
// handler short-circuits the run and is surfaced to the caller unchanged.
package transformer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pageflow/internal/page"
)

// DataLoader resolves a file-based data source relative to the configured
// source directory into a parsed value.
type DataLoader interface {
	Load(sourceDir, fileName string) (any, error)
}

// Observer receives pipeline lifecycle notifications. Implementations must
// not mutate the page collection.
type Observer interface {
	PipelineStarted(runID string, pages int)
	StageCompleted(runID, stage string, pages int, elapsed time.Duration)
	PipelineFinished(runID string, pages int, elapsed time.Duration, err error)
}

// Config holds construction-time settings for a Transformer.
type Config struct {
	// SourceDir is the directory file-based data sources resolve against.
	SourceDir string
}

// Transformer registers operations and executes them over page collections.
// Registration stores patterns and handlers opaquely; validation and
// matching happen only during execution. One TransformPages call processes
// one page set end-to-end; the working collection is owned exclusively by
// the run.
type Transformer struct {
	cfg       Config
	reg       registry
	loader    DataLoader
	factory   page.Factory
	logger    *slog.Logger
	observers []Observer
}

// Option configures a Transformer at construction.
type Option func(*Transformer)

// WithLoader sets the file-data loader collaborator.
func WithLoader(l DataLoader) Option {
	return func(t *Transformer) { t.loader = l }
}

// WithFactory sets the page factory handed to generation operations.
func WithFactory(f page.Factory) Option {
	return func(t *Transformer) { t.factory = f }
}

// WithLogger sets the logger used for stage progress.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) { t.logger = l }
}

// WithObserver registers a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(t *Transformer) { t.observers = append(t.observers, o) }
}

// New creates a Transformer with the given configuration.
func New(cfg Config, opts ...Option) *Transformer {
	t := &Transformer{
		cfg:     cfg,
		factory: page.DefaultFactory,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform registers a synchronous per-page transform for pages matching
// pattern.
func (t *Transformer) Transform(pattern string, fn TransformFunc) {
	t.reg.transforms = append(t.reg.transforms, transformOp{pattern: pattern, sync: fn})
}

// TransformAsync registers an asynchronous per-page transform for pages
// matching pattern.
func (t *Transformer) TransformAsync(pattern string, fn TransformAsyncFunc) {
	t.reg.transforms = append(t.reg.transforms, transformOp{pattern: pattern, async: fn})
}

// TransformAll registers a synchronous whole-set transform.
func (t *Transformer) TransformAll(fn TransformAllFunc) {
	t.reg.transformAlls = append(t.reg.transformAlls, transformAllOp{sync: fn})
}

// TransformAllAsync registers an asynchronous whole-set transform.
func (t *Transformer) TransformAllAsync(fn TransformAllAsyncFunc) {
	t.reg.transformAlls = append(t.reg.transformAlls, transformAllOp{async: fn})
}

// DataFile registers a file-based data source. The file is resolved relative
// to the configured source directory, parsed by the loader, and attached
// under Data[namespace] for every page. Data operations are global, not
// pattern-scoped.
func (t *Transformer) DataFile(namespace, fileName string) {
	t.reg.data = append(t.reg.data, dataOp{namespace: namespace, fileName: fileName})
}

// DataFunc registers a function-based data source. The function must fulfill
// the completion exactly once with the value to attach under Data[namespace].
func (t *Transformer) DataFunc(namespace string, fn DataFunc) {
	t.reg.data = append(t.reg.data, dataOp{namespace: namespace, fn: fn})
}

// Ignore registers an ignore directive: matching pages get Ignore set true.
func (t *Transformer) Ignore(pattern string) {
	t.reg.ignores = append(t.reg.ignores, pattern)
}

// Metadata registers a metadata directive: payload keys are merged into
// matching pages, skipping keys the page already owns.
func (t *Transformer) Metadata(pattern string, payload map[string]any) {
	t.reg.metadata = append(t.reg.metadata, metadataOp{pattern: pattern, payload: payload})
}

// Layout registers a layout directive. Directives apply in registration
// order and overwrite unconditionally, so the last matching registration
// wins.
func (t *Transformer) Layout(pattern, layout string) {
	t.reg.layouts = append(t.reg.layouts, layoutOp{pattern: pattern, layout: layout})
}

// Query registers a named query. A nil selector yields all pages in current
// order. Results are snapshots taken at query-stage time and attached to
// every page present in the collection at that moment.
func (t *Transformer) Query(name string, selector QuerySelector) {
	t.reg.queries = append(t.reg.queries, queryOp{name: name, selector: selector})
}

// Generate registers a generation operation, executed last. Generated pages
// are appended to the working collection; they do not re-enter earlier
// stages, but later generators see them.
func (t *Transformer) Generate(fn GenerateFunc) {
	t.reg.generators = append(t.reg.generators, fn)
}

// stage couples a stage name with its executor for the fixed run order.
type stage struct {
	name string
	run  func(context.Context, []*page.Page) ([]*page.Page, error)
}

// TransformPages runs all stages in fixed order over a working collection
// seeded from initial. It returns the final ordered collection, or the first
// failure raised anywhere, unchanged. A failed stage contributes nothing to
// the working collection and later stages never start.
func (t *Transformer) TransformPages(ctx context.Context, initial []*page.Page) ([]*page.Page, error) {
	runID := uuid.NewString()
	start := time.Now()

	working := append([]*page.Page(nil), initial...)

	t.logger.Debug("pipeline started", "run", runID, "pages", len(working))
	for _, o := range t.observers {
		o.PipelineStarted(runID, len(working))
	}

	stages := []stage{
		{"data", t.dataStage},
		{"ignore", t.ignoreStage},
		{"metadata", t.metadataStage},
		{"layout", t.layoutStage},
		{"query", t.queryStage},
		{"transform", t.transformStage},
		{"transformAll", t.transformAllStage},
		{"generate", t.generateStage},
	}

	for _, s := range stages {
		stageStart := time.Now()
		next, err := s.run(ctx, working)
		if err != nil {
			t.logger.Debug("pipeline failed", "run", runID, "stage", s.name, "error", err)
			for _, o := range t.observers {
				o.PipelineFinished(runID, len(working), time.Since(start), err)
			}
			return nil, err
		}
		working = next
		t.logger.Debug("stage completed",
			"run", runID, "stage", s.name, "pages", len(working))
		for _, o := range t.observers {
			o.StageCompleted(runID, s.name, len(working), time.Since(stageStart))
		}
	}

	for _, o := range t.observers {
		o.PipelineFinished(runID, len(working), time.Since(start), nil)
	}
	return working, nil
}
