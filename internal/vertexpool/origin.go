package vertexpool

import (
	"math"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
)

// NormalizeToOrigin subtracts the per-axis minimum from every vertex and
// returns it as the origin. An empty pool has a zero origin.
func NormalizeToOrigin(vs []cityjson.Vertex) ([]cityjson.Vertex, cityjson.Vertex) {
	if len(vs) == 0 {
		return []cityjson.Vertex{}, cityjson.Vertex{}
	}
	origin, _ := Bounds(vs)
	return Translate(vs, negate(origin)), origin
}

// Denormalize adds origin back to every vertex.
func Denormalize(vs []cityjson.Vertex, origin cityjson.Vertex) []cityjson.Vertex {
	return Translate(vs, origin)
}

// Translate returns a copy of vs moved by delta.
func Translate(vs []cityjson.Vertex, delta cityjson.Vertex) []cityjson.Vertex {
	out := make([]cityjson.Vertex, len(vs))
	for i, v := range vs {
		out[i] = cityjson.Vertex{v[0] + delta[0], v[1] + delta[1], v[2] + delta[2]}
	}
	return out
}

// Reconcile places a later import into the coordinate space of an
// established origin: the vertices are normalized by their own origin and
// then moved by (own origin - established). The result equals vs minus the
// established origin, but keeps the subtraction of large values per file.
func Reconcile(vs []cityjson.Vertex, established cityjson.Vertex) ([]cityjson.Vertex, cityjson.Vertex) {
	local, own := NormalizeToOrigin(vs)
	delta := cityjson.Vertex{own[0] - established[0], own[1] - established[1], own[2] - established[2]}
	return Translate(local, delta), own
}

// Bounds returns the per-axis minimum and maximum of vs.
func Bounds(vs []cityjson.Vertex) (lo, hi cityjson.Vertex) {
	if len(vs) == 0 {
		return lo, hi
	}
	lo = cityjson.Vertex{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = cityjson.Vertex{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range vs {
		for a := 0; a < 3; a++ {
			lo[a] = math.Min(lo[a], v[a])
			hi[a] = math.Max(hi[a], v[a])
		}
	}
	return lo, hi
}

// Extent formats Bounds as a CityJSON geographicalExtent
// [minx, miny, minz, maxx, maxy, maxz]. Empty input yields nil.
func Extent(vs []cityjson.Vertex) []float64 {
	if len(vs) == 0 {
		return nil
	}
	lo, hi := Bounds(vs)
	return []float64{lo[0], lo[1], lo[2], hi[0], hi[1], hi[2]}
}

func negate(v cityjson.Vertex) cityjson.Vertex {
	return cityjson.Vertex{-v[0], -v[1], -v[2]}
}
