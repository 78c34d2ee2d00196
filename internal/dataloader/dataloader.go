// Package dataloader resolves file-based data sources into parsed values.
// The format is inferred from the file extension; JSON, YAML and TOML are
// recognized.
package dataloader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat indicates the file extension maps to no known parser.
	ErrUnsupportedFormat = errors.New("unsupported data format")
	// ErrSourceNotFound indicates the data file does not exist.
	ErrSourceNotFound = errors.New("data source not found")
	// ErrMalformedSource indicates the data file could not be parsed.
	ErrMalformedSource = errors.New("malformed data source")
)

// Loader reads and parses data files relative to a source directory. It
// satisfies the transformer's DataLoader contract.
type Loader struct{}

// New creates a Loader.
func New() *Loader { return &Loader{} }

// Load resolves fileName against sourceDir, parses it according to its
// extension, and returns the parsed value. Missing or malformed files
// produce descriptive errors wrapping the package sentinels.
func (l *Loader) Load(sourceDir, fileName string) (any, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".json", ".yaml", ".yml", ".toml":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	path := filepath.Join(sourceDir, fileName)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("read data source %s: %w", path, err)
	}

	value, err := parse(raw, ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSource, path, err)
	}
	return value, nil
}

func parse(raw []byte, ext string) (any, error) {
	switch ext {
	case ".json":
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ".toml":
		var v map[string]any
		if err := toml.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		// Unreachable: Load filters extensions first.
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
