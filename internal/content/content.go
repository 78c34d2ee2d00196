// Package content discovers content files under a source directory and turns
// them into the initial page set fed to the transformer.
package content

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pageflow/internal/frontmatter"
	"git.home.luguber.info/inful/pageflow/internal/page"
)

// contentExtensions are the file types that become pages. Everything else in
// the source tree (data files, assets) is left to other collaborators.
var contentExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
}

// Discoverer walks a source directory and builds pages.
type Discoverer struct {
	sourceDir string
	factory   page.Factory
	logger    *slog.Logger
}

// NewDiscoverer creates a Discoverer rooted at sourceDir.
func NewDiscoverer(sourceDir string, factory page.Factory, logger *slog.Logger) *Discoverer {
	if factory == nil {
		factory = page.DefaultFactory
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{sourceDir: sourceDir, factory: factory, logger: logger}
}

// Discover walks the source directory and returns one page per content file,
// in deterministic walk order. Frontmatter keys become local page metadata;
// a slug derived from the file name is added when the frontmatter declares
// none.
func (d *Discoverer) Discover() ([]*page.Page, error) {
	var pages []*page.Page

	err := filepath.WalkDir(d.sourceDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			// Hidden directories (".git" and friends) are never content.
			if path != d.sourceDir && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !contentExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		p, err := d.loadPage(path)
		if err != nil {
			return err
		}
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover content in %s: %w", d.sourceDir, err)
	}

	d.logger.Debug("content discovered", "sourceDir", d.sourceDir, "pages", len(pages))
	return pages, nil
}

func (d *Discoverer) loadPage(path string) (*page.Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	meta, body, err := frontmatter.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rel, err := filepath.Rel(d.sourceDir, path)
	if err != nil {
		return nil, fmt.Errorf("relativize %s: %w", path, err)
	}
	src := filepath.ToSlash(rel)

	if _, ok := meta["slug"]; !ok {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		meta["slug"] = Slugify(base)
	}

	return d.factory(src, page.WithContent(body), page.WithMetadata(meta)), nil
}
