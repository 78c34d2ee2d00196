package transformer

import "git.home.luguber.info/inful/pageflow/internal/page"

// TransformFunc is a synchronous per-page transform. It receives a matching
// page and returns the (possibly mutated or replaced) page, or an error that
// aborts the pipeline.
type TransformFunc func(*page.Page) (*page.Page, error)

// TransformAsyncFunc is an asynchronous per-page transform. It must fulfill
// the completion exactly once with the resulting page or a failure.
type TransformAsyncFunc func(*page.Page, *Completion[*page.Page])

// TransformAllFunc is a synchronous whole-set transform. It receives the
// entire ordered collection and returns the replacement collection.
type TransformAllFunc func([]*page.Page) ([]*page.Page, error)

// TransformAllAsyncFunc is the asynchronous counterpart of TransformAllFunc.
type TransformAllAsyncFunc func([]*page.Page, *Completion[[]*page.Page])

// DataFunc supplies a data value through a single-shot completion.
type DataFunc func(*Completion[any])

// QuerySelector computes an ordered subset (or reordering) of the collection.
// A nil selector means "all pages in current order".
type QuerySelector func([]*page.Page) []*page.Page

// GenerateFunc produces new pages mid-pipeline. It receives the current full
// collection and a page factory, and must deliver the generated pages (or a
// failure) through the completion exactly once.
type GenerateFunc func(pages []*page.Page, factory page.Factory, done *Completion[[]*page.Page])

// Operation kinds are kept in separate ordered lists, one per kind, each
// preserving registration call order. Sync and async registrations of the
// same kind share one list so their interleaving survives into execution.
type registry struct {
	data          []dataOp
	ignores       []string
	metadata      []metadataOp
	layouts       []layoutOp
	queries       []queryOp
	transforms    []transformOp
	transformAlls []transformAllOp
	generators    []GenerateFunc
}

// dataOp attaches a value under Namespace for every page. Exactly one of
// FileName or Fn is set.
type dataOp struct {
	namespace string
	fileName  string
	fn        DataFunc
}

type metadataOp struct {
	pattern string
	payload map[string]any
}

type layoutOp struct {
	pattern string
	layout  string
}

type queryOp struct {
	name     string
	selector QuerySelector
}

// transformOp holds either a sync or an async per-page transform.
type transformOp struct {
	pattern string
	sync    TransformFunc
	async   TransformAsyncFunc
}

type transformAllOp struct {
	sync  TransformAllFunc
	async TransformAllAsyncFunc
}
