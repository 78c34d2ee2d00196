// Package page defines the Page record that flows through the transformation
// pipeline, together with the factory used to create pages and the metadata
// merge semantics applied by directive operations.
package page

import "fmt"

// Page is one unit of content flowing through the pipeline, keyed by its
// source path. Handlers mutate pages in place; the pipeline never removes a
// page from the working collection (Ignore only tags).
type Page struct {
	// Src is the unique path-like identifier. Set at creation, never
	// rewritten by the pipeline.
	Src string

	// Content is the raw body of the page, if any.
	Content []byte

	// Metadata is the open key/value bag attached to the page. Keys set at
	// creation always win over keys merged in by metadata directives.
	Metadata map[string]any

	// Data holds values attached by data operations, keyed by the namespace
	// given at registration.
	Data map[string]any

	// Ignore marks the page as excluded from final output. Default false.
	Ignore bool

	// Layout is the layout name assigned by layout directives, empty if none.
	Layout string

	// Queries holds named query results computed during the query stage.
	Queries map[string][]*Page
}

// New creates a page with the given source path.
func New(src string, opts ...Option) *Page {
	p := &Page{
		Src:      src,
		Metadata: map[string]any{},
		Data:     map[string]any{},
		Queries:  map[string][]*Page{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Option configures a page at creation time.
type Option func(*Page)

// WithContent sets the raw page body.
func WithContent(content []byte) Option {
	return func(p *Page) { p.Content = content }
}

// WithMetadata seeds initial (local) metadata. Local keys take precedence
// over anything merged in later by the pipeline.
func WithMetadata(meta map[string]any) Option {
	return func(p *Page) {
		for k, v := range meta {
			p.Metadata[k] = v
		}
	}
}

// Factory produces fresh pages. The transformer hands a Factory to
// generation operations so generated pages are constructed the same way as
// externally created ones.
type Factory func(src string, opts ...Option) *Page

// DefaultFactory is the Factory backed by New.
func DefaultFactory(src string, opts ...Option) *Page { return New(src, opts...) }

// MergeMetadata merges src into the page's metadata bag, skipping any key the
// page already owns. First writer wins: values present on the page before the
// merge are never overwritten.
func (p *Page) MergeMetadata(src map[string]any) {
	for k, v := range src {
		if _, exists := p.Metadata[k]; exists {
			continue
		}
		p.Metadata[k] = v
	}
}

// String returns a short identifier for logging.
func (p *Page) String() string {
	return fmt.Sprintf("page(%s)", p.Src)
}
