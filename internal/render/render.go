// Package render provides the built-in markdown transform: page content is
// rendered to HTML and outbound links are extracted from the result. It uses
// the public transformer API like any user-registered operation.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/pageflow/internal/page"
	"git.home.luguber.info/inful/pageflow/internal/transformer"
)

// MetadataKeyHTML is the metadata key the rendered HTML is stored under.
const MetadataKeyHTML = "html"

// MetadataKeyLinks is the metadata key extracted link targets are stored under.
const MetadataKeyLinks = "links"

// Register installs the markdown transform for pages matching pattern
// (typically "**/*.md"). Pages without content pass through unchanged.
func Register(t *transformer.Transformer, pattern string) {
	md := goldmark.New()

	t.Transform(pattern, func(p *page.Page) (*page.Page, error) {
		if len(p.Content) == 0 {
			return p, nil
		}

		var buf bytes.Buffer
		if err := md.Convert(p.Content, &buf); err != nil {
			return nil, fmt.Errorf("render %s: %w", p.Src, err)
		}

		rendered := buf.String()
		p.Metadata[MetadataKeyHTML] = rendered

		links, err := ExtractLinks(rendered)
		if err != nil {
			return nil, fmt.Errorf("extract links from %s: %w", p.Src, err)
		}
		p.Metadata[MetadataKeyLinks] = links
		return p, nil
	})
}

// ExtractLinks returns the href targets of all anchors in an HTML fragment,
// in document order.
func ExtractLinks(fragment string) ([]string, error) {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					links = append(links, attr.Val)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return links, nil
}
