// Package vertexpool holds the coordinate math of the vertex pool: the
// scale/translate quantization and the axis-origin normalization.
package vertexpool

import (
	"math"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
)

// DecodeVertices applies raw*scale+translate to every vertex. A nil
// transform passes the vertices through unchanged. The input is not modified.
func DecodeVertices(raw []cityjson.Vertex, t *cityjson.Transform) []cityjson.Vertex {
	out := make([]cityjson.Vertex, len(raw))
	if t == nil {
		copy(out, raw)
		return out
	}
	for i, v := range raw {
		for a := 0; a < 3; a++ {
			out[i][a] = v[a]*t.Scale[a] + t.Translate[a]
		}
	}
	return out
}

// Requantize is the left inverse of DecodeVertices: round((v-translate)/scale)
// with halves rounded away from zero. A nil transform copies the input.
func Requantize(vs []cityjson.Vertex, t *cityjson.Transform) []cityjson.Vertex {
	out := make([]cityjson.Vertex, len(vs))
	if t == nil {
		copy(out, vs)
		return out
	}
	for i, v := range vs {
		out[i] = Quantize(v, t)
	}
	return out
}

// Quantize returns the integer grid coordinates of a single vertex.
func Quantize(v cityjson.Vertex, t *cityjson.Transform) cityjson.Vertex {
	var q cityjson.Vertex
	for a := 0; a < 3; a++ {
		q[a] = math.Round((v[a] - t.Translate[a]) / t.Scale[a])
	}
	return q
}

// FitTransform returns a transform with the given number of decimals whose
// translate is the minimum corner of vs. It is used when a document has to
// be written quantized but carries no transform of its own.
func FitTransform(vs []cityjson.Vertex, decimals int) *cityjson.Transform {
	if decimals < 0 {
		decimals = 0
	}
	s := math.Pow10(-decimals)
	t := &cityjson.Transform{Scale: cityjson.Vertex{s, s, s}}
	if len(vs) > 0 {
		lo, _ := Bounds(vs)
		t.Translate = lo
	}
	return t
}
