package format

import "strings"

// Graphviz DOT emission helpers. The emitters build the document as plain
// text; these helpers keep identifier and label quoting in one place.

var dotLabelEscaper = strings.NewReplacer(`"`, `\"`, "\n", `\n`)

// DotEscapeLabel escapes a string for use inside a double-quoted DOT label.
func DotEscapeLabel(s string) string {
	return dotLabelEscaper.Replace(s)
}

// DotNodeID builds a graph-unique node identifier from the owning thread id
// and the scope name. Scope names are unique per parent but not per graph, so
// the thread id plus the full path position is folded in by the caller; this
// helper only sanitizes the characters DOT dislikes in identifiers.
func DotNodeID(parts ...string) string {
	id := strings.Join(parts, "_")
	var b strings.Builder
	b.Grow(len(id) + 2)
	b.WriteByte('n')
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
