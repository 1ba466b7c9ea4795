package inmem

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd"
)

// indentWidth is the number of spaces added per nesting level.
const indentWidth = 2

// Describe implements sourcekitd.Daemon.
// Unknown handles render as "<invalid>".
func (d *Daemon) Describe(o sourcekitd.Object) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[OpDescribe]++

	var sb strings.Builder
	d.describe(&sb, o, 0)
	return sb.String()
}

func (d *Daemon) describe(sb *strings.Builder, o sourcekitd.Object, indent int) {
	n, ok := d.nodes[o]
	if !ok {
		sb.WriteString("<invalid>")
		return
	}

	switch n.kind {
	case KindInt64:
		sb.WriteString(strconv.FormatInt(n.i, 10))
	case KindString:
		sb.WriteString(strconv.Quote(n.s))
	case KindUID:
		sb.WriteString(d.uidName(n.uid))
	case KindArray:
		if len(n.elems) == 0 {
			sb.WriteString("[]")
			return
		}
		sb.WriteString("[\n")
		for i, e := range n.elems {
			if i > 0 {
				sb.WriteString(",\n")
			}
			pad(sb, indent+indentWidth)
			d.describe(sb, e, indent+indentWidth)
		}
		sb.WriteByte('\n')
		pad(sb, indent)
		sb.WriteByte(']')
	case KindDictionary:
		if len(n.keys) == 0 {
			sb.WriteString("{}")
			return
		}
		sb.WriteString("{\n")
		for i, k := range n.keys {
			if i > 0 {
				sb.WriteString(",\n")
			}
			pad(sb, indent+indentWidth)
			sb.WriteString(d.uidName(k))
			sb.WriteString(": ")
			d.describe(sb, n.values[k], indent+indentWidth)
		}
		sb.WriteByte('\n')
		pad(sb, indent)
		sb.WriteByte('}')
	}
}

func pad(sb *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		sb.WriteByte(' ')
	}
}
