package request

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sourcekit/pkg/skobject"
)

// Format identifies how a request file is read.
type Format string

// Supported request file formats.
const (
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
	FormatScript Format = "starlark"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".star":
		return FormatScript, nil
	default:
		return "", fmt.Errorf("%s: unknown request file extension %q", path, filepath.Ext(path))
	}
}

// ScriptRunner evaluates request scripts.
type ScriptRunner interface {
	Run(ctx context.Context, filename string, src []byte) (skobject.Convertible, error)
}

// Loader reads request files of any supported format.
type Loader struct {
	Scripts ScriptRunner
}

// Load reads and decodes the request in path. ctx bounds script evaluation.
func (l *Loader) Load(ctx context.Context, path string) (skobject.Convertible, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}

	switch format {
	case FormatScript:
		if l == nil || l.Scripts == nil {
			return nil, fmt.Errorf("%s: request scripts are not enabled", path)
		}
		return l.Scripts.Run(ctx, path, data)
	default:
		v, err := DecodeFile(path, data)
		if err != nil {
			if errors.Is(err, ErrEmpty) {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			return nil, err
		}
		return v, nil
	}
}
