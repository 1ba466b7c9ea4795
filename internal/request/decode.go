// Package request decodes request documents into skobject value trees.
//
// Documents are YAML (JSON is accepted as a YAML subset). Mapping order is
// kept, so the dictionary handed to the daemon lists keys as written.
//
// Scalar rules:
//   - !!int becomes an integer, !!bool becomes 1 or 0
//   - strings tagged !uid, or plain strings starting with "source.", become
//     identifiers; an explicit !!str tag keeps such a string a string
//   - other strings stay strings
//
// Null and float scalars have no request representation and are rejected
// with the position of the offending node.
package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/sourcekit/pkg/skobject"
	"gopkg.in/yaml.v3"
)

// UIDTag marks a scalar as an identifier.
const UIDTag = "!uid"

// IdentPrefix is the prefix that turns plain strings into identifiers.
const IdentPrefix = "source."

// maxDepth bounds nesting, including through aliases.
const maxDepth = 512

// maxNodes bounds the number of nodes visited, counting every expansion of
// an alias.
const maxNodes = 1 << 20

// ErrEmpty is returned for documents with no content.
var ErrEmpty = errors.New("empty request document")

// DecodeError reports a node that cannot be turned into a request value.
type DecodeError struct {
	File    string
	Line    int
	Column  int
	Path    string
	Message string
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(":")
	}
	fmt.Fprintf(&sb, "%d:%d: ", e.Line, e.Column)
	if e.Path != "" {
		fmt.Fprintf(&sb, "%s: ", e.Path)
	}
	sb.WriteString(e.Message)
	return sb.String()
}

// Decode parses a single request document.
func Decode(data []byte) (skobject.Convertible, error) {
	return decode("", bytes.NewReader(data))
}

// DecodeFile parses data and attributes errors to file.
func DecodeFile(file string, data []byte) (skobject.Convertible, error) {
	return decode(file, bytes.NewReader(data))
}

func decode(file string, r io.Reader) (skobject.Convertible, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		if file != "" {
			return nil, fmt.Errorf("%s: parsing yaml: %w", file, err)
		}
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, ErrEmpty
	}

	d := &decoder{file: file}
	return d.value(doc.Content[0], "", 0)
}

type decoder struct {
	file  string
	nodes int
}

func (d *decoder) errorf(n *yaml.Node, path, format string, args ...any) error {
	return &DecodeError{
		File:    d.file,
		Line:    n.Line,
		Column:  n.Column,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}

func (d *decoder) value(n *yaml.Node, path string, depth int) (skobject.Convertible, error) {
	if depth > maxDepth {
		return nil, d.errorf(n, path, "nesting deeper than %d", maxDepth)
	}
	d.nodes++
	if d.nodes > maxNodes {
		return nil, d.errorf(n, path, "document expands to more than %d nodes", maxNodes)
	}

	switch n.Kind {
	case yaml.AliasNode:
		return d.value(n.Alias, path, depth+1)
	case yaml.ScalarNode:
		return d.scalar(n, path)
	case yaml.SequenceNode:
		arr := make(skobject.Array[skobject.Convertible], len(n.Content))
		for i, item := range n.Content {
			v, err := d.value(item, fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case yaml.MappingNode:
		return d.mapping(n, path, depth)
	default:
		return nil, d.errorf(n, path, "unsupported node kind %d", n.Kind)
	}
}

func (d *decoder) mapping(n *yaml.Node, path string, depth int) (skobject.Convertible, error) {
	dict := make(skobject.Dict, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.AliasNode {
			k = k.Alias
		}
		if k.Kind == yaml.ScalarNode && k.Tag == "!!merge" {
			return nil, d.errorf(k, path, "merge keys are not supported")
		}
		if k.Kind != yaml.ScalarNode || (k.Tag != "!!str" && k.Tag != UIDTag) {
			return nil, d.errorf(k, path, "dictionary keys must be strings, got %s", describeNode(k))
		}

		child := k.Value
		if path != "" {
			child = path + "." + k.Value
		}
		val, err := d.value(v, child, depth+1)
		if err != nil {
			return nil, err
		}
		dict = append(dict, skobject.Entry(k.Value, val))
	}
	return dict, nil
}

func (d *decoder) scalar(n *yaml.Node, path string) (skobject.Convertible, error) {
	switch n.Tag {
	case UIDTag:
		return skobject.Ident(n.Value), nil
	case "!!str":
		if n.Style&yaml.TaggedStyle == 0 && strings.HasPrefix(n.Value, IdentPrefix) {
			return skobject.Ident(n.Value), nil
		}
		return skobject.String(n.Value), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, d.errorf(n, path, "integer %s does not fit in 64 bits", n.Value)
		}
		return skobject.Int64(i), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.errorf(n, path, "invalid boolean %s", n.Value)
		}
		if b {
			return skobject.Int64(1), nil
		}
		return skobject.Int64(0), nil
	case "!!null":
		return nil, d.errorf(n, path, "null has no request representation")
	case "!!float":
		return nil, d.errorf(n, path, "float %s has no request representation", n.Value)
	default:
		return nil, d.errorf(n, path, "unsupported tag %s", n.Tag)
	}
}

func describeNode(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	default:
		return strings.TrimPrefix(n.Tag, "!!")
	}
}
