// Package frontmatter splits YAML frontmatter from content files. Frontmatter
// keys become a page's local metadata, so they take precedence over anything
// merged in later by metadata directives.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates an opening `---` without a closing one.
var ErrMissingClosingDelimiter = errors.New("frontmatter: missing closing delimiter")

var delimiter = []byte("---")

// Split separates `---` delimited YAML frontmatter from the body. If the
// content does not start with a delimiter, the metadata map is empty and body
// is the full input.
func Split(content []byte) (meta map[string]any, body []byte, err error) {
	meta = map[string]any{}

	open := append(append([]byte{}, delimiter...), '\n')
	if !bytes.HasPrefix(content, open) {
		return meta, content, nil
	}

	rest := content[len(open):]

	// Opening delimiter immediately followed by a closing one: empty frontmatter.
	if bytes.HasPrefix(rest, delimiter) {
		return meta, trimLeadingNewline(rest[len(delimiter):]), nil
	}

	closeSeq := []byte("\n---")
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, ErrMissingClosingDelimiter
	}

	raw := rest[:idx+1]
	body = trimLeadingNewline(rest[idx+len(closeSeq):])

	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return nil, nil, fmt.Errorf("frontmatter: parse yaml: %w", err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, body, nil
}

func trimLeadingNewline(b []byte) []byte {
	if len(b) > 0 && b[0] == '\n' {
		return b[1:]
	}
	if len(b) > 1 && b[0] == '\r' && b[1] == '\n' {
		return b[2:]
	}
	return b
}
