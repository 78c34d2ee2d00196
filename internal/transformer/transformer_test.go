package transformer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"git.home.luguber.info/inful/pageflow/internal/page"
)

func testPages(srcs ...string) []*page.Page {
	pages := make([]*page.Page, 0, len(srcs))
	for _, src := range srcs {
		pages = append(pages, page.New(src))
	}
	return pages
}

func srcsOf(pages []*page.Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Src)
	}
	return out
}

func TestNoOpTransformPreservesPages(t *testing.T) {
	tr := New(Config{})
	tr.Transform("**/*", func(p *page.Page) (*page.Page, error) { return p, nil })

	in := testPages("index.html", "posts/a.md", "posts/b.md")
	out, err := tr.TransformPages(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("page %d replaced: want %s, got %s", i, in[i].Src, out[i].Src)
		}
	}
}

func TestIdempotenceWithNoOpHandlers(t *testing.T) {
	tr := New(Config{})
	tr.Transform("**/*", func(p *page.Page) (*page.Page, error) { return p, nil })
	tr.TransformAsync("**/*", func(p *page.Page, c *Completion[*page.Page]) { c.Resolve(p) })
	tr.TransformAll(func(pages []*page.Page) ([]*page.Page, error) { return pages, nil })
	tr.TransformAllAsync(func(pages []*page.Page, c *Completion[[]*page.Page]) { c.Resolve(pages) })

	in := testPages("a.md", "b.md", "c.md")
	out, err := tr.TransformPages(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("page %d not identical after no-op pipeline", i)
		}
		if out[i].Ignore || out[i].Layout != "" || len(out[i].Metadata) != 0 {
			t.Errorf("page %d mutated by no-op pipeline", i)
		}
	}
}

func TestMetadataDirectiveLocalWins(t *testing.T) {
	tr := New(Config{})
	tr.Metadata("**/*", map[string]any{"foo": "bar"})

	local := page.New("index.html", page.WithMetadata(map[string]any{"foo": "baz"}))
	bare := page.New("about.html")

	out, err := tr.TransformPages(context.Background(), []*page.Page{local, bare})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Metadata["foo"] != "baz" {
		t.Errorf("local metadata must win, got %v", out[0].Metadata["foo"])
	}
	if out[1].Metadata["foo"] != "bar" {
		t.Errorf("directive metadata missing, got %v", out[1].Metadata["foo"])
	}
}

func TestIgnoreDirective(t *testing.T) {
	tr := New(Config{})
	tr.Ignore("index.html")

	out, err := tr.TransformPages(context.Background(), testPages("index.html", "about.html"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out[0].Ignore {
		t.Error("index.html should be ignored")
	}
	if out[1].Ignore {
		t.Error("about.html should keep default ignore=false")
	}
}

func TestLayoutLastRegistrationWins(t *testing.T) {
	tr := New(Config{})
	tr.Layout("**/*", "base")
	tr.Layout("posts/*", "post")

	out, err := tr.TransformPages(context.Background(), testPages("index.html", "posts/a.md"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Layout != "base" {
		t.Errorf("expected base, got %s", out[0].Layout)
	}
	if out[1].Layout != "post" {
		t.Errorf("last matching registration must win, got %s", out[1].Layout)
	}
}

func TestQueryAllPages(t *testing.T) {
	tr := New(Config{})
	tr.Query("allPages", nil)

	in := testPages("p1.md", "p2.md", "p3.md")
	out, err := tr.TransformPages(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range out {
		got := p.Queries["allPages"]
		if len(got) != 3 {
			t.Fatalf("expected 3 pages in query, got %d", len(got))
		}
		for i := range in {
			if got[i] != in[i] {
				t.Errorf("query order broken at %d on %s", i, p.Src)
			}
		}
	}
}

func TestQuerySelectorReorders(t *testing.T) {
	tr := New(Config{})
	tr.Query("reversed", func(pages []*page.Page) []*page.Page {
		out := make([]*page.Page, 0, len(pages))
		for i := len(pages) - 1; i >= 0; i-- {
			out = append(out, pages[i])
		}
		return out
	})

	out, err := tr.TransformPages(context.Background(), testPages("a", "b", "c"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := srcsOf(out[0].Queries["reversed"])
	want := []string{"c", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	// Selector reordering must not disturb the working collection.
	if got := srcsOf(out); got[0] != "a" || got[2] != "c" {
		t.Errorf("working collection reordered: %v", got)
	}
}

func TestSyncTransformFailureIdentity(t *testing.T) {
	raised := errors.New("boom")
	tr := New(Config{})
	tr.Transform("**/*", func(p *page.Page) (*page.Page, error) { return nil, raised })

	_, err := tr.TransformPages(context.Background(), testPages("a"))
	if err != raised {
		t.Fatalf("expected the exact raised error, got %v", err)
	}
}

func TestSyncTransformFailureBareValue(t *testing.T) {
	tr := New(Config{})
	tr.Transform("**/*", func(p *page.Page) (*page.Page, error) { return nil, Fail("plain string") })

	_, err := tr.TransformPages(context.Background(), testPages("a"))
	if err == nil {
		t.Fatal("expected failure")
	}
	if got := FailureValue(err); got != "plain string" {
		t.Fatalf("raised value not preserved, got %v", got)
	}
}

func TestAsyncTransformFailureIdentity(t *testing.T) {
	raised := errors.New("async boom")
	tr := New(Config{})
	tr.TransformAsync("**/*", func(p *page.Page, c *Completion[*page.Page]) {
		go func() { c.Reject(raised) }()
	})

	_, err := tr.TransformPages(context.Background(), testPages("a"))
	if err != raised {
		t.Fatalf("expected the exact raised error, got %v", err)
	}
}

func TestFailureAbortsLaterStages(t *testing.T) {
	tr := New(Config{})
	tr.Transform("**/*", func(p *page.Page) (*page.Page, error) { return nil, Fail("stop") })

	ranLater := false
	tr.TransformAll(func(pages []*page.Page) ([]*page.Page, error) {
		ranLater = true
		return pages, nil
	})
	tr.Generate(func(pages []*page.Page, factory page.Factory, done *Completion[[]*page.Page]) {
		ranLater = true
		done.Resolve(nil)
	})

	if _, err := tr.TransformPages(context.Background(), testPages("a")); err == nil {
		t.Fatal("expected failure")
	}
	if ranLater {
		t.Error("later stages must never start after a failure")
	}
}

func TestTransformNonMatchingPassesThrough(t *testing.T) {
	tr := New(Config{})
	tr.Transform("posts/*", func(p *page.Page) (*page.Page, error) {
		p.Metadata["touched"] = true
		return p, nil
	})

	out, err := tr.TransformPages(context.Background(), testPages("index.html", "posts/a.md"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out[0].Metadata["touched"]; ok {
		t.Error("non-matching page must pass through unchanged")
	}
	if out[1].Metadata["touched"] != true {
		t.Error("matching page not transformed")
	}
}

func TestTransformInterleavingOrder(t *testing.T) {
	tr := New(Config{})
	tr.Transform("**/*", func(p *page.Page) (*page.Page, error) {
		p.Metadata["trace"] = "sync1"
		return p, nil
	})
	tr.TransformAsync("**/*", func(p *page.Page, c *Completion[*page.Page]) {
		go func() {
			p.Metadata["trace"] = fmt.Sprintf("%v,async", p.Metadata["trace"])
			c.Resolve(p)
		}()
	})
	tr.Transform("**/*", func(p *page.Page) (*page.Page, error) {
		p.Metadata["trace"] = fmt.Sprintf("%v,sync2", p.Metadata["trace"])
		return p, nil
	})

	out, err := tr.TransformPages(context.Background(), testPages("a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out[0].Metadata["trace"]; got != "sync1,async,sync2" {
		t.Errorf("registration interleaving broken: %v", got)
	}
}

func TestTransformReplacesPage(t *testing.T) {
	tr := New(Config{})
	tr.TransformAsync("**/*", func(p *page.Page, c *Completion[*page.Page]) {
		replacement := page.New(p.Src, page.WithMetadata(map[string]any{"replaced": true}))
		c.Resolve(replacement)
	})

	out, err := tr.TransformPages(context.Background(), testPages("a", "b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range out {
		if p.Metadata["replaced"] != true {
			t.Errorf("page %s not replaced", p.Src)
		}
	}
}

func TestTransformAllReplacesCollection(t *testing.T) {
	tr := New(Config{})
	tr.TransformAll(func(pages []*page.Page) ([]*page.Page, error) {
		for _, p := range pages {
			p.Metadata["pass"] = 1
		}
		return pages, nil
	})

	in := testPages("p1", "p2")
	out, err := tr.TransformPages(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatal("expected the exact two pages in order")
	}
	if out[0].Metadata["pass"] != 1 {
		t.Error("mutation lost")
	}
}

func TestTransformAllAsyncFailure(t *testing.T) {
	raised := errors.New("set failure")
	tr := New(Config{})
	tr.TransformAllAsync(func(pages []*page.Page, c *Completion[[]*page.Page]) {
		go func() { c.Reject(raised) }()
	})

	if _, err := tr.TransformPages(context.Background(), testPages("a")); err != raised {
		t.Fatalf("expected the exact raised error, got %v", err)
	}
}

func TestGenerateAppendsPages(t *testing.T) {
	tr := New(Config{})
	tr.Generate(func(pages []*page.Page, factory page.Factory, done *Completion[[]*page.Page]) {
		done.Resolve([]*page.Page{factory("generated/p2.html")})
	})

	in := testPages("p1.html")
	out, err := tr.TransformPages(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(out))
	}
	if out[0] != in[0] {
		t.Error("original page changed")
	}
	if out[1].Src != "generated/p2.html" {
		t.Errorf("generated page missing, got %s", out[1].Src)
	}
}

func TestGeneratorsSeeEarlierGeneratorOutput(t *testing.T) {
	tr := New(Config{})
	tr.Generate(func(pages []*page.Page, factory page.Factory, done *Completion[[]*page.Page]) {
		done.Resolve([]*page.Page{factory("gen/first.html")})
	})
	var seen []string
	tr.Generate(func(pages []*page.Page, factory page.Factory, done *Completion[[]*page.Page]) {
		seen = srcsOf(pages)
		done.Resolve(nil)
	})

	if _, err := tr.TransformPages(context.Background(), testPages("p1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 || seen[1] != "gen/first.html" {
		t.Errorf("second generator did not see first generator's page: %v", seen)
	}
}

func TestGeneratorFailure(t *testing.T) {
	raised := errors.New("generator failed")
	tr := New(Config{})
	tr.Generate(func(pages []*page.Page, factory page.Factory, done *Completion[[]*page.Page]) {
		done.Reject(raised)
	})

	if _, err := tr.TransformPages(context.Background(), testPages("p1")); err != raised {
		t.Fatalf("expected the exact raised error, got %v", err)
	}
}

func TestDataFuncAttachesGlobally(t *testing.T) {
	tr := New(Config{})
	tr.DataFunc("authors", func(c *Completion[any]) {
		go func() { c.Resolve([]string{"ada", "linus"}) }()
	})

	out, err := tr.TransformPages(context.Background(), testPages("a", "b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range out {
		authors, ok := p.Data["authors"].([]string)
		if !ok || len(authors) != 2 {
			t.Errorf("data missing on %s: %v", p.Src, p.Data["authors"])
		}
	}
}

func TestDataFuncFailureAbortsPipeline(t *testing.T) {
	raised := errors.New("fetch failed")
	tr := New(Config{})
	tr.DataFunc("remote", func(c *Completion[any]) { c.Reject(raised) })
	tr.Ignore("**/*") // must never run

	out, err := tr.TransformPages(context.Background(), testPages("a"))
	if err != raised {
		t.Fatalf("expected the exact raised error, got %v", err)
	}
	if out != nil {
		t.Error("no partial results on failure")
	}
}

type stubLoader struct {
	value any
	err   error
	calls []string
}

func (s *stubLoader) Load(sourceDir, fileName string) (any, error) {
	s.calls = append(s.calls, sourceDir+"/"+fileName)
	return s.value, s.err
}

func TestDataFileUsesLoader(t *testing.T) {
	loader := &stubLoader{value: map[string]any{"title": "Site"}}
	tr := New(Config{SourceDir: "/src"}, WithLoader(loader))
	tr.DataFile("site", "site.yaml")

	out, err := tr.TransformPages(context.Background(), testPages("a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loader.calls) != 1 || loader.calls[0] != "/src/site.yaml" {
		t.Errorf("loader not invoked correctly: %v", loader.calls)
	}
	if m, ok := out[0].Data["site"].(map[string]any); !ok || m["title"] != "Site" {
		t.Errorf("loaded value not attached: %v", out[0].Data["site"])
	}
}

func TestDataFileLoaderErrorPropagates(t *testing.T) {
	raised := errors.New("no such file")
	tr := New(Config{}, WithLoader(&stubLoader{err: raised}))
	tr.DataFile("site", "missing.yaml")

	if _, err := tr.TransformPages(context.Background(), testPages("a")); err != raised {
		t.Fatalf("expected the exact loader error, got %v", err)
	}
}

func TestDataFileWithoutLoaderFails(t *testing.T) {
	tr := New(Config{})
	tr.DataFile("site", "site.yaml")

	if _, err := tr.TransformPages(context.Background(), testPages("a")); err == nil {
		t.Fatal("expected configuration error")
	}
}

type recordingObserver struct {
	started  int
	stages   []string
	finished int
	err      error
}

func (r *recordingObserver) PipelineStarted(runID string, pages int) { r.started++ }
func (r *recordingObserver) StageCompleted(runID, stage string, pages int, elapsed time.Duration) {
	r.stages = append(r.stages, stage)
}
func (r *recordingObserver) PipelineFinished(runID string, pages int, elapsed time.Duration, err error) {
	r.finished++
	r.err = err
}

func TestObserverSeesFixedStageOrder(t *testing.T) {
	obs := &recordingObserver{}
	tr := New(Config{}, WithObserver(obs))

	if _, err := tr.TransformPages(context.Background(), testPages("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"data", "ignore", "metadata", "layout", "query", "transform", "transformAll", "generate"}
	if len(obs.stages) != len(want) {
		t.Fatalf("expected %d stages, got %v", len(want), obs.stages)
	}
	for i := range want {
		if obs.stages[i] != want[i] {
			t.Fatalf("stage order broken: %v", obs.stages)
		}
	}
	if obs.started != 1 || obs.finished != 1 || obs.err != nil {
		t.Errorf("lifecycle notifications wrong: %+v", obs)
	}
}
