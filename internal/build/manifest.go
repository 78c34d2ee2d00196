package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/pageflow/internal/page"
)

// ManifestFileName is the manifest written into the output directory.
const ManifestFileName = "pageflow-manifest.json"

// Manifest records the final page collection of one build in a form template
// engines and downstream tools can consume.
type Manifest struct {
	GeneratedAt time.Time       `json:"generated_at"`
	PageCount   int             `json:"page_count"`
	Pages       []ManifestEntry `json:"pages"`
}

// ManifestEntry is one page in the manifest. Query results are flattened to
// source paths to keep the manifest acyclic.
type ManifestEntry struct {
	Src      string              `json:"src"`
	Layout   string              `json:"layout,omitempty"`
	Ignore   bool                `json:"ignore,omitempty"`
	Metadata map[string]any      `json:"metadata,omitempty"`
	Data     []string            `json:"data,omitempty"`
	Queries  map[string][]string `json:"queries,omitempty"`
}

// WriteManifest writes the manifest for pages into outputDir, creating the
// directory if needed.
func WriteManifest(outputDir string, pages []*page.Page) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	m := Manifest{
		GeneratedAt: time.Now().UTC(),
		PageCount:   len(pages),
		Pages:       make([]ManifestEntry, 0, len(pages)),
	}
	for _, p := range pages {
		m.Pages = append(m.Pages, manifestEntry(p))
	}

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	path := filepath.Join(outputDir, ManifestFileName)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func manifestEntry(p *page.Page) ManifestEntry {
	e := ManifestEntry{
		Src:      p.Src,
		Layout:   p.Layout,
		Ignore:   p.Ignore,
		Metadata: p.Metadata,
	}

	for ns := range p.Data {
		e.Data = append(e.Data, ns)
	}
	sort.Strings(e.Data)

	if len(p.Queries) > 0 {
		e.Queries = make(map[string][]string, len(p.Queries))
		for name, result := range p.Queries {
			srcs := make([]string, 0, len(result))
			for _, qp := range result {
				srcs = append(srcs, qp.Src)
			}
			e.Queries[name] = srcs
		}
	}
	return e
}
