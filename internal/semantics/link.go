// Package semantics links semantic surfaces to faces, in both directions.
package semantics

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
)

// depth of the values array per geometry kind
func depth(kind cityjson.Kind) (int, error) {
	switch kind {
	case cityjson.MultiSurface, cityjson.CompositeSurface:
		return 1, nil
	case cityjson.Solid:
		return 2, nil
	case cityjson.MultiSolid:
		return 3, nil
	default:
		return 0, fmt.Errorf("%w: %s", cityjson.ErrUnsupportedGeometryType, kind)
	}
}

// LinkValues flattens a semantics values array with the same traversal the
// boundaries use, giving one surface index (or nil) per face.
func LinkValues(values []any, kind cityjson.Kind) ([]*int, error) {
	d, err := depth(kind)
	if err != nil {
		return nil, err
	}
	var out []*int
	var walk func(level int, items []any, path string) error
	walk = func(level int, items []any, path string) error {
		for i, it := range items {
			p := fmt.Sprintf("%s[%d]", path, i)
			if level < d {
				sub, ok := it.([]any)
				if !ok {
					return fmt.Errorf("%w: values%s must be an array", cityjson.ErrSemanticsMisaligned, p)
				}
				if err := walk(level+1, sub, p); err != nil {
					return err
				}
				continue
			}
			idx, err := leaf(it)
			if err != nil {
				return fmt.Errorf("%w: values%s: %v", cityjson.ErrSemanticsMisaligned, p, err)
			}
			out = append(out, idx)
		}
		return nil
	}
	if err := walk(1, values, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func leaf(v any) (*int, error) {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil, nil
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		x, err := t.Float64()
		if err != nil {
			return nil, err
		}
		f = x
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
	if f < 0 || f > math.MaxInt32 || f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not a surface index", v)
	}
	i := int(f)
	return &i, nil
}

// Check links the semantics of g and verifies that values nests exactly like
// the boundaries, one value per face, and that every index points into the
// surfaces list.
func Check(g *cityjson.Geometry) ([]*int, error) {
	if g.Semantics == nil {
		return nil, nil
	}
	vals, err := LinkValues(g.Semantics.Values, g.Kind)
	if err != nil {
		return nil, err
	}
	if err := checkNesting(g); err != nil {
		return nil, err
	}
	if n := g.FaceCount(); len(vals) != n {
		return nil, fmt.Errorf("%w: %d values for %d faces", cityjson.ErrSemanticsMisaligned, len(vals), n)
	}
	for i, v := range vals {
		if v != nil && (*v < 0 || *v >= len(g.Semantics.Surfaces)) {
			return nil, fmt.Errorf("%w: face %d points at surface %d of %d",
				cityjson.ErrSemanticsMisaligned, i, *v, len(g.Semantics.Surfaces))
		}
	}
	return vals, nil
}

// checkNesting compares the length of every values array with the shell or
// solid it stands for. LinkValues has already checked the depth.
func checkNesting(g *cityjson.Geometry) error {
	values := g.Semantics.Values
	count := func(path string, items []any, want int) error {
		if len(items) != want {
			return fmt.Errorf("%w: values%s has %d entries for %d", cityjson.ErrSemanticsMisaligned, path, len(items), want)
		}
		return nil
	}
	shells := func(path string, items []any, sh []cityjson.Shell) error {
		if err := count(path, items, len(sh)); err != nil {
			return err
		}
		for i, faces := range sh {
			sub, _ := items[i].([]any)
			if err := count(fmt.Sprintf("%s[%d]", path, i), sub, len(faces)); err != nil {
				return err
			}
		}
		return nil
	}

	switch g.Kind {
	case cityjson.MultiSurface, cityjson.CompositeSurface:
		return count("", values, len(g.Surfaces))
	case cityjson.Solid:
		return shells("", values, g.Shells)
	case cityjson.MultiSolid:
		if err := count("", values, len(g.Solids)); err != nil {
			return err
		}
		for i, so := range g.Solids {
			sub, _ := values[i].([]any)
			if err := shells(fmt.Sprintf("[%d]", i), sub, so); err != nil {
				return err
			}
		}
	}
	return nil
}

// Select keeps the values of the faces listed in index, which is the
// Flat.Index of the flattened geometry.
func Select(vals []*int, index []int) []*int {
	out := make([]*int, len(index))
	for i, src := range index {
		if src < len(vals) {
			out[i] = vals[src]
		}
	}
	return out
}

// Nest builds the values array for kind from per-face indices, mirroring
// the single-shell layout Unflatten produces.
func Nest(vals []*int, kind cityjson.Kind) ([]any, error) {
	d, err := depth(kind)
	if err != nil {
		return nil, err
	}
	flat := make([]any, len(vals))
	for i, v := range vals {
		if v != nil {
			flat[i] = *v
		}
	}
	out := flat
	for level := 1; level < d; level++ {
		out = []any{out}
	}
	return out, nil
}
