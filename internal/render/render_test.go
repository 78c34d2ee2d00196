package render

import (
	"context"
	"strings"
	"testing"

	"git.home.luguber.info/inful/pageflow/internal/page"
	"git.home.luguber.info/inful/pageflow/internal/transformer"
)

func TestRegisterRendersMarkdown(t *testing.T) {
	tr := transformer.New(transformer.Config{})
	Register(tr, "**/*.md")

	p := page.New("posts/a.md", page.WithContent([]byte("# Title\n\nSee [docs](https://example.com/docs).\n")))
	plain := page.New("style.css", page.WithContent([]byte("body {}")))

	out, err := tr.TransformPages(context.Background(), []*page.Page{p, plain})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rendered, ok := out[0].Metadata[MetadataKeyHTML].(string)
	if !ok {
		t.Fatal("html metadata missing")
	}
	if !strings.Contains(rendered, "<h1>Title</h1>") {
		t.Errorf("heading not rendered: %s", rendered)
	}

	links, ok := out[0].Metadata[MetadataKeyLinks].([]string)
	if !ok || len(links) != 1 || links[0] != "https://example.com/docs" {
		t.Errorf("links not extracted: %v", out[0].Metadata[MetadataKeyLinks])
	}

	if _, ok := out[1].Metadata[MetadataKeyHTML]; ok {
		t.Error("non-matching page must pass through unrendered")
	}
}

func TestRegisterSkipsEmptyContent(t *testing.T) {
	tr := transformer.New(transformer.Config{})
	Register(tr, "**/*")

	out, err := tr.TransformPages(context.Background(), []*page.Page{page.New("empty.md")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out[0].Metadata[MetadataKeyHTML]; ok {
		t.Error("empty page should not gain html metadata")
	}
}

func TestExtractLinks(t *testing.T) {
	links, err := ExtractLinks(`<p><a href="/a">a</a> and <a href="/b">b</a> and <a>none</a></p>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 2 || links[0] != "/a" || links[1] != "/b" {
		t.Errorf("unexpected links: %v", links)
	}
}
