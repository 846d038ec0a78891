package semantics

import "github.com/mohammed-shakir/cityjson-codec/internal/cityjson"

// Table collects the semantic surfaces used by one geometry on export.
// Indices are assigned in first-encounter order and never change.
type Table struct {
	surfaces []cityjson.SemanticSurface
	index    map[string]int
}

func NewTable() *Table {
	return &Table{index: map[string]int{}}
}

// Add registers a surface under name and returns its index. Adding a name
// twice returns the first index.
func (t *Table) Add(name string, s cityjson.SemanticSurface) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	i := len(t.surfaces)
	t.surfaces = append(t.surfaces, s)
	t.index[name] = i
	return i
}

// LinkFace resolves a face's material name. Unknown names give nil, which
// is written as null.
func (t *Table) LinkFace(name string) *int {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return &i
}

func (t *Table) Len() int { return len(t.surfaces) }

// BuildSurfaces returns the surfaces list and the name to index map.
func (t *Table) BuildSurfaces() ([]cityjson.SemanticSurface, map[string]int) {
	idx := make(map[string]int, len(t.index))
	for k, v := range t.index {
		idx[k] = v
	}
	return append([]cityjson.SemanticSurface(nil), t.surfaces...), idx
}
