package semantics

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
)

func ints(vals []*int) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

func TestLinkValues_SolidCube(t *testing.T) {
	var values []any
	if err := json.Unmarshal([]byte(`[[0, 1, 1, 1, 1, 2]]`), &values); err != nil {
		t.Fatal(err)
	}
	got, err := LinkValues(values, cityjson.Solid)
	if err != nil {
		t.Fatalf("LinkValues: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("len=%d want 6", len(got))
	}
	classes := map[int]int{}
	for _, v := range got {
		classes[*v]++
	}
	if len(classes) != 3 || classes[1] != 4 {
		t.Fatalf("classes=%v", classes)
	}
}

func TestLinkValues_NullsAndNumbers(t *testing.T) {
	values := []any{[]any{[]any{json.Number("2"), nil}, []any{float64(0)}}}
	got, err := LinkValues(values, cityjson.MultiSolid)
	if err != nil {
		t.Fatalf("LinkValues: %v", err)
	}
	if !reflect.DeepEqual(ints(got), []any{2, nil, 0}) {
		t.Fatalf("got %v", ints(got))
	}
}

func TestLinkValues_BadNesting(t *testing.T) {
	cases := []struct {
		values []any
		kind   cityjson.Kind
	}{
		{[]any{0, 1}, cityjson.Solid},
		{[]any{[]any{0}}, cityjson.MultiSurface},
		{[]any{1.5}, cityjson.MultiSurface},
		{[]any{-1}, cityjson.CompositeSurface},
		{[]any{"a"}, cityjson.MultiSurface},
		{[]any{1e19}, cityjson.MultiSurface},
		{[]any{json.Number("9223372036854775808")}, cityjson.MultiSurface},
	}
	for i, c := range cases {
		if _, err := LinkValues(c.values, c.kind); !errors.Is(err, cityjson.ErrSemanticsMisaligned) {
			t.Fatalf("case %d: err=%v want ErrSemanticsMisaligned", i, err)
		}
	}
}

func TestCheck_LengthAndRange(t *testing.T) {
	g := cityjson.Geometry{
		Kind:     cityjson.MultiSurface,
		Surfaces: []cityjson.Surface{{{0, 1, 2}}, {{0, 2, 3}}},
		Semantics: &cityjson.Semantics{
			Surfaces: []cityjson.SemanticSurface{{Type: "RoofSurface"}},
			Values:   []any{float64(0)},
		},
	}
	if _, err := Check(&g); !errors.Is(err, cityjson.ErrSemanticsMisaligned) {
		t.Fatalf("short values: err=%v", err)
	}

	g.Semantics.Values = []any{float64(0), float64(1)}
	if _, err := Check(&g); !errors.Is(err, cityjson.ErrSemanticsMisaligned) {
		t.Fatalf("out of range: err=%v", err)
	}

	g.Semantics.Values = []any{float64(0), nil}
	vals, err := Check(&g)
	if err != nil || len(vals) != g.FaceCount() {
		t.Fatalf("vals=%v err=%v", vals, err)
	}
}

func TestCheck_NestingPerShell(t *testing.T) {
	quad := cityjson.Surface{{0, 1, 2, 3}}
	g := cityjson.Geometry{
		Kind:   cityjson.Solid,
		Shells: []cityjson.Shell{{quad, quad}, {quad, quad}},
		Semantics: &cityjson.Semantics{
			Surfaces: []cityjson.SemanticSurface{{Type: "WallSurface"}},
		},
	}
	var values []any
	_ = json.Unmarshal([]byte(`[[0, 0, 0], [0]]`), &values)
	g.Semantics.Values = values
	if _, err := Check(&g); !errors.Is(err, cityjson.ErrSemanticsMisaligned) {
		t.Fatalf("3+1 values for 2+2 faces: err=%v", err)
	}

	_ = json.Unmarshal([]byte(`[[0, null], [0, 0]]`), &values)
	g.Semantics.Values = values
	if vals, err := Check(&g); err != nil || len(vals) != 4 {
		t.Fatalf("aligned values: vals=%v err=%v", vals, err)
	}

	ms := cityjson.Geometry{
		Kind:   cityjson.MultiSolid,
		Solids: []cityjson.SolidBoundary{{{quad}}, {{quad, quad}}},
		Semantics: &cityjson.Semantics{
			Surfaces: []cityjson.SemanticSurface{{Type: "WallSurface"}},
		},
	}
	_ = json.Unmarshal([]byte(`[[[0, 0]], [[0]]]`), &values)
	ms.Semantics.Values = values
	if _, err := Check(&ms); !errors.Is(err, cityjson.ErrSemanticsMisaligned) {
		t.Fatalf("multisolid 2+1 values for 1+2 faces: err=%v", err)
	}
}

func TestCheck_RejectsNegativeIndex(t *testing.T) {
	g := cityjson.Geometry{
		Kind:     cityjson.MultiSurface,
		Surfaces: []cityjson.Surface{{{0, 1, 2}}},
		Semantics: &cityjson.Semantics{
			Surfaces: []cityjson.SemanticSurface{{Type: "RoofSurface"}},
			Values:   []any{-1},
		},
	}
	if _, err := Check(&g); !errors.Is(err, cityjson.ErrSemanticsMisaligned) {
		t.Fatalf("err=%v want ErrSemanticsMisaligned", err)
	}
}

func TestSelect_FollowsSkippedFaces(t *testing.T) {
	a, b, c := 0, 1, 2
	got := Select([]*int{&a, &b, &c}, []int{0, 2})
	if !reflect.DeepEqual(ints(got), []any{0, 2}) {
		t.Fatalf("got %v", ints(got))
	}
}

func TestTable_FirstEncounterOrder(t *testing.T) {
	tbl := NewTable()
	if i := tbl.Add("WallSurface", cityjson.SemanticSurface{Type: "WallSurface"}); i != 0 {
		t.Fatalf("wall=%d want 0", i)
	}
	if i := tbl.Add("RoofSurface", cityjson.SemanticSurface{Type: "RoofSurface"}); i != 1 {
		t.Fatalf("roof=%d want 1", i)
	}
	if i := tbl.Add("WallSurface", cityjson.SemanticSurface{Type: "WallSurface"}); i != 0 {
		t.Fatalf("second wall=%d want 0", i)
	}
	if tbl.LinkFace("Glass") != nil {
		t.Fatalf("unknown material must link to nil")
	}
	surfaces, idx := tbl.BuildSurfaces()
	if len(surfaces) != 2 || surfaces[1].Type != "RoofSurface" || idx["RoofSurface"] != 1 {
		t.Fatalf("surfaces=%v idx=%v", surfaces, idx)
	}
}

func TestNest_RoundTripsThroughLinkValues(t *testing.T) {
	a, b := 0, 3
	vals := []*int{&a, nil, &b}
	for _, k := range []cityjson.Kind{cityjson.MultiSurface, cityjson.Solid, cityjson.MultiSolid} {
		nested, err := Nest(vals, k)
		if err != nil {
			t.Fatalf("%s: %v", k, err)
		}
		back, err := LinkValues(nested, k)
		if err != nil {
			t.Fatalf("%s: LinkValues: %v", k, err)
		}
		if !reflect.DeepEqual(ints(back), ints(vals)) {
			t.Fatalf("%s: got %v want %v", k, ints(back), ints(vals))
		}
	}
	nested, _ := Nest(vals, cityjson.Solid)
	b2, _ := json.Marshal(nested)
	if string(b2) != `[[0,null,3]]` {
		t.Fatalf("solid values=%s", b2)
	}
}
