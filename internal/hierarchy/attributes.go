package hierarchy

import (
	"sort"
	"strings"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
)

const sep = "."

// FlattenAttributes turns nested maps into dotted keys (a.b.c) at any depth.
// Lists and scalars are leaves; an empty map is kept as a leaf so it
// survives the round trip. Reserved keys are skipped.
func FlattenAttributes(props map[string]cityjson.Value) map[string]cityjson.Value {
	out := make(map[string]cityjson.Value)
	for k, v := range props {
		if _, reserved := cityjson.ReservedKeys[k]; reserved {
			continue
		}
		flattenInto(out, k, v)
	}
	return out
}

func flattenInto(out map[string]cityjson.Value, prefix string, v cityjson.Value) {
	m, ok := v.Map()
	if !ok || len(m) == 0 {
		out[prefix] = v
		return
	}
	for k, child := range m {
		flattenInto(out, prefix+sep+k, child)
	}
}

type tree struct {
	leaf cityjson.Value
	kids map[string]*tree
}

// ExpandAttributes rebuilds nested maps by splitting keys on every dot.
// When a key is both a leaf and a prefix of other keys, the map wins.
// Reserved top-level keys are skipped.
func ExpandAttributes(dotted map[string]cityjson.Value) map[string]cityjson.Value {
	keys := make([]string, 0, len(dotted))
	for k := range dotted {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := &tree{kids: map[string]*tree{}}
	for _, k := range keys {
		path := strings.Split(k, sep)
		if _, reserved := cityjson.ReservedKeys[path[0]]; reserved {
			continue
		}
		root.insert(path, dotted[k])
	}

	out := make(map[string]cityjson.Value, len(root.kids))
	for k, t := range root.kids {
		out[k] = t.value()
	}
	return out
}

func (t *tree) insert(path []string, v cityjson.Value) {
	n := t
	for _, seg := range path {
		if n.kids == nil {
			n.kids = map[string]*tree{}
			n.leaf = cityjson.Value{}
		}
		next, ok := n.kids[seg]
		if !ok {
			next = &tree{}
			n.kids[seg] = next
		}
		n = next
	}
	if m, ok := v.Map(); ok {
		if n.kids == nil {
			n.kids = map[string]*tree{}
		}
		for k, child := range m {
			n.insert([]string{k}, child)
		}
		return
	}
	if n.kids != nil {
		return
	}
	n.leaf = v
}

func (t *tree) value() cityjson.Value {
	if t.kids == nil {
		return t.leaf
	}
	m := make(map[string]cityjson.Value, len(t.kids))
	for k, c := range t.kids {
		m[k] = c.value()
	}
	return cityjson.Map(m)
}
