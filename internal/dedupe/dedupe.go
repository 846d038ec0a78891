// Package dedupe merges vertices that are equal at a given precision and
// rewrites every boundary of a document through the resulting index map.
package dedupe

import (
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
	"github.com/mohammed-shakir/cityjson-codec/internal/vertexpool"
)

const (
	DefaultPrecision = 3
	// MaxPrecision is the most decimals a key carries; float64 holds no
	// more for projected coordinates.
	MaxPrecision = 12
)

// ClampPrecision limits p to [0, MaxPrecision].
func ClampPrecision(p int) int {
	return min(max(p, 0), MaxPrecision)
}

// Options select the comparison key. With a Transform the vertices are
// compared on the quantized grid the file will be written with, otherwise
// as fixed-decimal text at Precision digits.
type Options struct {
	Precision int
	Transform *cityjson.Transform
}

type Result struct {
	Vertices []cityjson.Vertex
	// Reindex maps an old vertex index to its new one.
	Reindex []int
	Removed int
}

type entry struct {
	key string
	idx int
}

// Vertices keeps the first occurrence of every key, in input order.
func Vertices(vs []cityjson.Vertex, opts Options) Result {
	res := Result{
		Vertices: make([]cityjson.Vertex, 0, len(vs)),
		Reindex:  make([]int, len(vs)),
	}
	buckets := make(map[uint64][]entry, len(vs))
	buf := make([]byte, 0, 64)

	for i, v := range vs {
		buf = appendKey(buf[:0], v, opts)
		h := xxhash.Sum64(buf)

		found := -1
		for _, e := range buckets[h] {
			if e.key == string(buf) {
				found = e.idx
				break
			}
		}
		if found >= 0 {
			res.Reindex[i] = found
			res.Removed++
			continue
		}
		n := len(res.Vertices)
		res.Vertices = append(res.Vertices, v)
		res.Reindex[i] = n
		buckets[h] = append(buckets[h], entry{key: string(buf), idx: n})
	}
	return res
}

func appendKey(dst []byte, v cityjson.Vertex, opts Options) []byte {
	if opts.Transform != nil {
		q := vertexpool.Quantize(v, opts.Transform)
		for a := 0; a < 3; a++ {
			if a > 0 {
				dst = append(dst, ' ')
			}
			dst = strconv.AppendInt(dst, int64(q[a]), 10)
		}
		return dst
	}
	p := ClampPrecision(opts.Precision)
	for a := 0; a < 3; a++ {
		if a > 0 {
			dst = append(dst, ' ')
		}
		dst = strconv.AppendFloat(dst, roundFloat(v[a], p), 'f', p, 64)
	}
	return dst
}

func roundFloat(x float64, p int) float64 {
	f := math.Pow(10, float64(p))
	r := math.Round(x*f) / f
	if math.IsInf(r, 0) || math.IsNaN(r) {
		r = x
	}
	if r == 0 {
		// fold -0 into 0 so both print the same
		return 0
	}
	return r
}

// Document returns a copy of doc with duplicate vertices merged and every
// geometry rewritten. doc is not modified.
func Document(doc *cityjson.Document, opts Options) (*cityjson.Document, Result) {
	res := Vertices(doc.Vertices, opts)

	out := *doc
	out.Vertices = res.Vertices
	out.CityObjects = make(map[string]*cityjson.CityObject, len(doc.CityObjects))
	for id, o := range doc.CityObjects {
		if o == nil {
			out.CityObjects[id] = nil
			continue
		}
		co := *o
		co.Geometry = make([]cityjson.Geometry, len(o.Geometry))
		for i, g := range o.Geometry {
			ng := g.Clone()
			reindex(&ng, res.Reindex)
			co.Geometry[i] = ng
		}
		out.CityObjects[id] = &co
	}
	return &out, res
}

func reindex(g *cityjson.Geometry, m []int) {
	g.Faces(func(f cityjson.Surface) bool {
		for _, r := range f {
			for i, idx := range r {
				if idx >= 0 && idx < len(m) {
					r[i] = m[idx]
				}
			}
		}
		return true
	})
}
