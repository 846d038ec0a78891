package boundary

import (
	"fmt"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
)

// CleanBuffer extracts the vertices referenced by faces into a dense local
// pool, in first-use order, and re-indexes the faces against it. Holes, if
// not nil, are re-indexed into the same local pool.
func CleanBuffer(pool []cityjson.Vertex, faces [][]int, holes [][][]int) ([]cityjson.Vertex, [][]int, [][][]int, error) {
	local := make(map[int]int)
	var used []cityjson.Vertex

	remap := func(ring []int, face int) ([]int, error) {
		out := make([]int, len(ring))
		for i, idx := range ring {
			if idx < 0 || idx >= len(pool) {
				return nil, fmt.Errorf("%w: face %d references vertex %d (pool has %d)",
					cityjson.ErrMalformedBoundary, face, idx, len(pool))
			}
			li, ok := local[idx]
			if !ok {
				li = len(used)
				local[idx] = li
				used = append(used, pool[idx])
			}
			out[i] = li
		}
		return out, nil
	}

	outFaces := make([][]int, len(faces))
	var outHoles [][][]int
	if holes != nil {
		outHoles = make([][][]int, len(faces))
	}
	for fi, f := range faces {
		r, err := remap(f, fi)
		if err != nil {
			return nil, nil, nil, err
		}
		outFaces[fi] = r
		if outHoles == nil || fi >= len(holes) {
			continue
		}
		for _, h := range holes[fi] {
			hr, err := remap(h, fi)
			if err != nil {
				return nil, nil, nil, err
			}
			outHoles[fi] = append(outHoles[fi], hr)
		}
	}
	if used == nil {
		used = []cityjson.Vertex{}
	}
	return used, outFaces, outHoles, nil
}
