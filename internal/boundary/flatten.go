// Package boundary converts between the nested CityJSON boundary arrays and
// the flat face lists a host mesh understands.
package boundary

import (
	"fmt"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
)

// Options control the hole policy. By default interior rings are dropped,
// since a flat host face has a single outline; HolesDropped reports how many
// were lost.
type Options struct {
	KeepHoles bool
}

// Flat is the flattened form of one geometry.
type Flat struct {
	// Faces holds the outer ring of each kept face.
	Faces [][]int
	// Holes is parallel to Faces and only set with Options.KeepHoles.
	Holes [][][]int
	// Index maps each kept face to its ordinal in boundary traversal order,
	// so per-face data such as semantic values can follow skipped faces.
	Index []int

	HolesDropped int
}

// Flatten walks the boundaries in traversal order (surfaces; shells then
// faces; solids then shells then faces) and emits one face per surface.
// Faces whose outer ring is empty are skipped.
func Flatten(g *cityjson.Geometry, opts Options) Flat {
	var out Flat
	ordinal := 0
	g.Faces(func(f cityjson.Surface) bool {
		defer func() { ordinal++ }()
		if len(f) == 0 || len(f[0]) == 0 {
			return true
		}
		out.Faces = append(out.Faces, append([]int(nil), f[0]...))
		out.Index = append(out.Index, ordinal)

		holes := f[1:]
		if opts.KeepHoles {
			var kept [][]int
			for _, h := range holes {
				if len(h) > 0 {
					kept = append(kept, append([]int(nil), h...))
				}
			}
			out.Holes = append(out.Holes, kept)
		} else {
			out.HolesDropped += len(holes)
		}
		return true
	})
	return out
}

// Unflatten nests flat faces back into the boundaries of kind. Each face
// becomes a single-ring surface, or an outer ring plus its holes when Holes
// is set. A Solid gets exactly one shell and a MultiSolid one solid of one
// shell; cavities are not reconstructed.
func Unflatten(flat Flat, kind cityjson.Kind) (cityjson.Geometry, error) {
	surfaces := make([]cityjson.Surface, len(flat.Faces))
	for i, f := range flat.Faces {
		s := cityjson.Surface{append(cityjson.Ring(nil), f...)}
		if i < len(flat.Holes) {
			for _, h := range flat.Holes[i] {
				s = append(s, append(cityjson.Ring(nil), h...))
			}
		}
		surfaces[i] = s
	}

	g := cityjson.Geometry{Kind: kind}
	switch kind {
	case cityjson.MultiSurface, cityjson.CompositeSurface:
		g.Surfaces = surfaces
	case cityjson.Solid:
		g.Shells = []cityjson.Shell{cityjson.Shell(surfaces)}
	case cityjson.MultiSolid:
		g.Solids = []cityjson.SolidBoundary{{cityjson.Shell(surfaces)}}
	default:
		return cityjson.Geometry{}, fmt.Errorf("%w: %s", cityjson.ErrUnsupportedGeometryType, kind)
	}
	return g, nil
}

// Validate checks every index of g against a pool of n vertices.
func Validate(g *cityjson.Geometry, n int) error {
	return g.Validate(n)
}
