package config

import (
	"fmt"
	"os"
)

const starterConfig = `# pageflow site configuration
sourceDir: .
outputDir: ./site
logLevel: info

# File-based data sources, keyed by namespace:
# data:
#   site: data/site.yaml

# Glob patterns for pages to tag as ignored:
# ignore:
#   - "drafts/**"

# Metadata merged into matching pages (local page values win):
# metadata:
#   - pattern: "docs/**"
#     values:
#       section: docs

# Layout assignment (last matching rule wins):
# layouts:
#   - pattern: "**/*.md"
#     layout: page

render:
  enabled: true
  pattern: "**/*.md"
`

// Init writes a starter configuration file at path. An existing file is only
// overwritten when force is set.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
