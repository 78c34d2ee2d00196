package transformer

import (
	"context"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/pageflow/internal/page"
	"git.home.luguber.info/inful/pageflow/internal/pattern"
)

// Stage executors. Each consumes the current collection and produces the
// replacement collection, or the first failure encountered. Handler errors
// are returned as-is; the engine never wraps them.

// dataStage resolves every registered data source in registration order and
// attaches each value under Data[namespace] for every page. Any failure
// aborts the stage and the pipeline with the original failure value.
func (t *Transformer) dataStage(ctx context.Context, pages []*page.Page) ([]*page.Page, error) {
	for _, op := range t.reg.data {
		var value any
		var err error

		switch {
		case op.fn != nil:
			c := NewCompletion[any]()
			op.fn(c)
			value, err = c.Await(ctx)
		case t.loader == nil:
			return nil, fmt.Errorf("data source %q requires a loader but none is configured", op.namespace)
		default:
			value, err = t.loader.Load(t.cfg.SourceDir, op.fileName)
		}
		if err != nil {
			return nil, err
		}

		for _, p := range pages {
			p.Data[op.namespace] = value
		}
	}
	return pages, nil
}

// ignoreStage tags matching pages. Directive stages carry pure data, not
// callable user code, so they cannot fail.
func (t *Transformer) ignoreStage(_ context.Context, pages []*page.Page) ([]*page.Page, error) {
	for _, pat := range t.reg.ignores {
		for _, p := range pages {
			if pattern.Match(pat, p.Src) {
				p.Ignore = true
			}
		}
	}
	return pages, nil
}

// metadataStage merges directive payloads into matching pages. Keys already
// present on a page are never overwritten (local state wins).
func (t *Transformer) metadataStage(_ context.Context, pages []*page.Page) ([]*page.Page, error) {
	for _, op := range t.reg.metadata {
		for _, p := range pages {
			if pattern.Match(op.pattern, p.Src) {
				p.MergeMetadata(op.payload)
			}
		}
	}
	return pages, nil
}

// layoutStage assigns layouts to matching pages. Applied in registration
// order with unconditional overwrite, so the last matching registration
// wins.
func (t *Transformer) layoutStage(_ context.Context, pages []*page.Page) ([]*page.Page, error) {
	for _, op := range t.reg.layouts {
		for _, p := range pages {
			if pattern.Match(op.pattern, p.Src) {
				p.Layout = op.layout
			}
		}
	}
	return pages, nil
}

// queryStage computes each registered query against the whole current
// collection and stores the resulting snapshot under Queries[name] on every
// page. Selectors receive a copy of the slice header so they cannot disturb
// the working order; the pages themselves are shared, queries being
// read-only views.
func (t *Transformer) queryStage(_ context.Context, pages []*page.Page) ([]*page.Page, error) {
	for _, op := range t.reg.queries {
		var result []*page.Page
		if op.selector == nil {
			result = pages
		} else {
			result = op.selector(append([]*page.Page(nil), pages...))
		}
		snapshot := append([]*page.Page(nil), result...)

		for _, p := range pages {
			p.Queries[op.name] = snapshot
		}
	}
	return pages, nil
}

// transformStage runs per-page transforms in overall registration order,
// sync and async interleaved as registered. Within one operation, matching
// pages are processed concurrently; the replacement collection is assembled
// by original position so ordering is preserved. The operation is a join
// barrier: the next operation never observes partial results, and on failure
// in-flight work finishes without its results being used.
func (t *Transformer) transformStage(ctx context.Context, pages []*page.Page) ([]*page.Page, error) {
	for _, op := range t.reg.transforms {
		next := make([]*page.Page, len(pages))

		var wg sync.WaitGroup
		var mu sync.Mutex
		var firstErr error

		for i, p := range pages {
			if !pattern.Match(op.pattern, p.Src) {
				next[i] = p
				continue
			}
			wg.Add(1)
			go func(i int, p *page.Page) {
				defer wg.Done()
				result, err := t.applyTransform(ctx, op, p)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				next[i] = result
			}(i, p)
		}
		wg.Wait()

		if firstErr != nil {
			return nil, firstErr
		}
		pages = next
	}
	return pages, nil
}

func (t *Transformer) applyTransform(ctx context.Context, op transformOp, p *page.Page) (*page.Page, error) {
	if op.sync != nil {
		return op.sync(p)
	}
	c := NewCompletion[*page.Page]()
	op.async(p, c)
	return c.Await(ctx)
}

// transformAllStage runs whole-set transforms sequentially in registration
// order. Each operation receives the entire current ordered collection and
// its result replaces the working collection for subsequent operations.
func (t *Transformer) transformAllStage(ctx context.Context, pages []*page.Page) ([]*page.Page, error) {
	for _, op := range t.reg.transformAlls {
		var next []*page.Page
		var err error

		if op.sync != nil {
			next, err = op.sync(pages)
		} else {
			c := NewCompletion[[]*page.Page]()
			op.async(pages, c)
			next, err = c.Await(ctx)
		}
		if err != nil {
			return nil, err
		}
		pages = next
	}
	return pages, nil
}

// generateStage runs generators last, in registration order. Delivered pages
// are appended to the working collection, so later generators see pages
// appended by earlier ones. Generated pages do not re-enter earlier stages.
func (t *Transformer) generateStage(ctx context.Context, pages []*page.Page) ([]*page.Page, error) {
	for _, gen := range t.reg.generators {
		c := NewCompletion[[]*page.Page]()
		gen(pages, t.factory, c)

		created, err := c.Await(ctx)
		if err != nil {
			return nil, err
		}
		pages = append(pages, created...)
	}
	return pages, nil
}
