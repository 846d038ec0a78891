package dedupe

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
)

func TestVertices_MergesAtPrecision(t *testing.T) {
	vs := []cityjson.Vertex{
		{1.0001, 2, 3},
		{5, 5, 5},
		{1.0004, 2, 3},
		{-0.0001, 0, 0},
		{0.0001, 0, 0},
	}
	res := Vertices(vs, Options{Precision: 3})
	if res.Removed != 2 {
		t.Fatalf("removed=%d want 2", res.Removed)
	}
	if !reflect.DeepEqual(res.Reindex, []int{0, 1, 0, 2, 2}) {
		t.Fatalf("reindex=%v", res.Reindex)
	}
	// first occurrence wins and keeps its coordinates
	if res.Vertices[0] != vs[0] {
		t.Fatalf("representative=%v want %v", res.Vertices[0], vs[0])
	}
}

func TestVertices_HugePrecisionKeepsDistinctVertices(t *testing.T) {
	vs := []cityjson.Vertex{{1, 2, 3}, {400, 500, 600}, {1, 2, 3}}
	for _, p := range []int{13, 309, 400} {
		res := Vertices(vs, Options{Precision: p})
		if res.Removed != 1 || !reflect.DeepEqual(res.Reindex, []int{0, 1, 0}) {
			t.Fatalf("precision %d: removed=%d reindex=%v", p, res.Removed, res.Reindex)
		}
	}
}

func TestClampPrecision(t *testing.T) {
	for in, want := range map[int]int{-2: 0, 0: 0, 3: 3, MaxPrecision: MaxPrecision, 400: MaxPrecision} {
		if got := ClampPrecision(in); got != want {
			t.Fatalf("ClampPrecision(%d)=%d want %d", in, got, want)
		}
	}
}

func TestVertices_QuantizedKeys(t *testing.T) {
	tr := &cityjson.Transform{Scale: cityjson.Vertex{0.01, 0.01, 0.01}}
	vs := []cityjson.Vertex{{1.001, 0, 0}, {1.004, 0, 0}, {1.006, 0, 0}}
	res := Vertices(vs, Options{Precision: 6, Transform: tr})
	if res.Removed != 1 || !reflect.DeepEqual(res.Reindex, []int{0, 0, 1}) {
		t.Fatalf("removed=%d reindex=%v", res.Removed, res.Reindex)
	}
}

func TestVertices_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	vs := make([]cityjson.Vertex, 2000)
	for i := range vs {
		vs[i] = cityjson.Vertex{
			float64(rng.Intn(30)) / 7,
			float64(rng.Intn(30)) / 11,
			float64(rng.Intn(3)) * 0.0004,
		}
	}
	for _, p := range []int{0, 1, 3, 6} {
		first := Vertices(vs, Options{Precision: p})
		second := Vertices(first.Vertices, Options{Precision: p})
		if second.Removed != 0 {
			t.Fatalf("precision %d: second pass removed %d", p, second.Removed)
		}
	}
}

// Two faces share a corner that differs only in the 4th decimal.
func TestDocument_SharedCornerAtPrecision3(t *testing.T) {
	doc := &cityjson.Document{
		Type:    cityjson.DocumentType,
		Version: "1.0",
		Vertices: []cityjson.Vertex{
			{0, 0, 0}, {1, 0, 0}, {1.0001, 1, 0},
			{1.0004, 1, 0}, {2, 1, 0}, {2, 2, 0},
		},
		CityObjects: map[string]*cityjson.CityObject{
			"a": {ID: "a", Type: "Building", Geometry: []cityjson.Geometry{{
				Kind:     cityjson.MultiSurface,
				Surfaces: []cityjson.Surface{{{0, 1, 2}}, {{3, 4, 5}}},
			}}},
		},
	}

	out, res := Document(doc, Options{Precision: 3})
	if res.Removed != 1 || len(out.Vertices) != 5 {
		t.Fatalf("removed=%d vertices=%d", res.Removed, len(out.Vertices))
	}
	faces := out.CityObjects["a"].Geometry[0].Surfaces
	if faces[0][0][2] != faces[1][0][0] {
		t.Fatalf("shared corner not merged: %v", faces)
	}
	if faces[1][0][0] != 2 {
		t.Fatalf("merged index=%d want 2", faces[1][0][0])
	}

	// input untouched
	if len(doc.Vertices) != 6 || doc.CityObjects["a"].Geometry[0].Surfaces[1][0][0] != 3 {
		t.Fatalf("input document was modified")
	}

	again, res2 := Document(out, Options{Precision: 3})
	if res2.Removed != 0 || !reflect.DeepEqual(again.CityObjects["a"].Geometry[0].Surfaces, faces) {
		t.Fatalf("second pass changed the document: removed=%d", res2.Removed)
	}
}
