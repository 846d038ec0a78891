package cityjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the closed set of geometry types the codec understands.
type Kind int

const (
	MultiSurface Kind = iota + 1
	CompositeSurface
	Solid
	MultiSolid
)

func (k Kind) String() string {
	switch k {
	case MultiSurface:
		return "MultiSurface"
	case CompositeSurface:
		return "CompositeSurface"
	case Solid:
		return "Solid"
	case MultiSolid:
		return "MultiSolid"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.TrimSpace(s) {
	case "MultiSurface":
		return MultiSurface, nil
	case "CompositeSurface":
		return CompositeSurface, nil
	case "Solid":
		return Solid, nil
	case "MultiSolid":
		return MultiSolid, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnsupportedGeometryType, s)
	}
}

// Ring is a closed loop of vertex indices. Ring 0 of a surface is the
// outer boundary, further rings are holes.
type Ring []int

type Surface []Ring

type Shell []Surface

type SolidBoundary []Shell

// LoD keeps the level of detail as text. On its own it marshals in the
// CityJSON 1.0 form, a number when numeric; documents of version 1.1 and
// later write every lod as a string such as "2.2".
type LoD string

func (l LoD) MarshalJSON() ([]byte, error) {
	return l.marshal(false)
}

func (l LoD) marshal(asText bool) ([]byte, error) {
	if l == "" {
		return []byte("null"), nil
	}
	if !asText {
		if _, err := strconv.ParseFloat(string(l), 64); err == nil {
			return []byte(l), nil
		}
	}
	return json.Marshal(string(l))
}

// LoDAsText reports whether a document of the given version stores lod as a
// string.
func LoDAsText(version string) bool {
	v := strings.TrimSpace(version)
	return v != "" && v != "1" && !strings.HasPrefix(v, "1.0") && !strings.HasPrefix(v, "0.")
}

func (l *LoD) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("parse lod: %w", err)
		}
		*l = LoD(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("lod must be number or string: %w", err)
	}
	*l = LoD(n.String())
	return nil
}

// SemanticSurface classifies faces. Type is mandatory, everything else is
// carried as free-form attributes.
type SemanticSurface struct {
	Type       string
	Attributes map[string]Value
}

func (s SemanticSurface) MarshalJSON() ([]byte, error) {
	m := make(map[string]Value, len(s.Attributes)+1)
	for k, v := range s.Attributes {
		m[k] = v
	}
	m["type"] = String(s.Type)
	return Map(m).MarshalJSON()
}

func (s *SemanticSurface) UnmarshalJSON(b []byte) error {
	var v Value
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	m, ok := v.Map()
	if !ok {
		return fmt.Errorf("semantic surface must be an object, got %s", v.Kind())
	}
	typ, ok := m["type"].Str()
	if !ok || typ == "" {
		return fmt.Errorf(`semantic surface: missing "type"`)
	}
	s.Type = typ
	s.Attributes = nil
	for k, a := range m {
		if k == "type" {
			continue
		}
		if s.Attributes == nil {
			s.Attributes = make(map[string]Value, len(m)-1)
		}
		s.Attributes[k] = a
	}
	return nil
}

// Semantics links faces to semantic surfaces. Values mirrors the nesting of
// the boundaries; its leaves are integer indices into Surfaces or nil.
type Semantics struct {
	Surfaces []SemanticSurface `json:"surfaces"`
	Values   []any             `json:"values"`
}

// Geometry is one boundary representation of a CityObject. Exactly one of
// Surfaces, Shells or Solids is populated, selected by Kind.
type Geometry struct {
	Kind Kind
	LoD  LoD

	Surfaces []Surface       // MultiSurface, CompositeSurface
	Shells   []Shell         // Solid
	Solids   []SolidBoundary // MultiSolid

	Semantics *Semantics

	// set by Document.MarshalJSON for 1.1+ documents
	lodText bool
}

// Faces calls fn for every face in boundary traversal order: surfaces in
// file order, shells then faces for a Solid, solids then shells then faces
// for a MultiSolid. It stops early when fn returns false.
func (g *Geometry) Faces(fn func(face Surface) bool) {
	switch g.Kind {
	case MultiSurface, CompositeSurface:
		for _, f := range g.Surfaces {
			if !fn(f) {
				return
			}
		}
	case Solid:
		for _, sh := range g.Shells {
			for _, f := range sh {
				if !fn(f) {
					return
				}
			}
		}
	case MultiSolid:
		for _, so := range g.Solids {
			for _, sh := range so {
				for _, f := range sh {
					if !fn(f) {
						return
					}
				}
			}
		}
	}
}

func (g *Geometry) FaceCount() int {
	n := 0
	g.Faces(func(Surface) bool {
		n++
		return true
	})
	return n
}

// Validate checks that every vertex index is inside a pool of n vertices.
func (g *Geometry) Validate(n int) error {
	var err error
	face := 0
	g.Faces(func(f Surface) bool {
		for ri, r := range f {
			for _, idx := range r {
				if idx < 0 || idx >= n {
					err = fmt.Errorf("%w: face %d ring %d references vertex %d (pool has %d)",
						ErrMalformedBoundary, face, ri, idx, n)
					return false
				}
			}
		}
		face++
		return true
	})
	return err
}

// Clone returns a deep copy of the boundaries; semantics are shared.
func (g Geometry) Clone() Geometry {
	out := g
	out.Surfaces = cloneSurfaces(g.Surfaces)
	if g.Shells != nil {
		out.Shells = make([]Shell, len(g.Shells))
		for i, sh := range g.Shells {
			out.Shells[i] = Shell(cloneSurfaces(sh))
		}
	}
	if g.Solids != nil {
		out.Solids = make([]SolidBoundary, len(g.Solids))
		for i, so := range g.Solids {
			shells := make(SolidBoundary, len(so))
			for j, sh := range so {
				shells[j] = Shell(cloneSurfaces(sh))
			}
			out.Solids[i] = shells
		}
	}
	return out
}

func cloneSurfaces(in []Surface) []Surface {
	if in == nil {
		return nil
	}
	out := make([]Surface, len(in))
	for i, f := range in {
		rings := make(Surface, len(f))
		for j, r := range f {
			rings[j] = append(Ring(nil), r...)
		}
		out[i] = rings
	}
	return out
}

// MarshalJSON converts the geometry into its CityJSON form.
func (g Geometry) MarshalJSON() ([]byte, error) {
	// defining a struct here fixes the member order
	type geometry struct {
		Type       string          `json:"type"`
		LoD        json.RawMessage `json:"lod,omitempty"`
		Boundaries any             `json:"boundaries"`
		Semantics  *Semantics      `json:"semantics,omitempty"`
	}

	geo := &geometry{Type: g.Kind.String(), Semantics: g.Semantics}
	if g.LoD != "" {
		lod, err := g.LoD.marshal(g.lodText)
		if err != nil {
			return nil, err
		}
		geo.LoD = lod
	}

	switch g.Kind {
	case MultiSurface, CompositeSurface:
		geo.Boundaries = nonNil(g.Surfaces)
	case Solid:
		geo.Boundaries = nonNil(g.Shells)
	case MultiSolid:
		geo.Boundaries = nonNil(g.Solids)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometryType, g.Kind)
	}
	return json.Marshal(geo)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ParseGeometry decodes a single geometry object. Errors wrap
// ErrUnsupportedGeometryType or ErrMalformedBoundary.
func ParseGeometry(data []byte) (Geometry, error) {
	var hdr struct {
		Type       string          `json:"type"`
		LoD        LoD             `json:"lod"`
		Boundaries json.RawMessage `json:"boundaries"`
		Semantics  json.RawMessage `json:"semantics"`
	}
	if err := json.Unmarshal(data, &hdr); err != nil {
		return Geometry{}, fmt.Errorf("%w: %v", ErrMalformedBoundary, err)
	}

	kind, err := ParseKind(hdr.Type)
	if err != nil {
		return Geometry{}, err
	}
	g := Geometry{Kind: kind, LoD: hdr.LoD}

	if len(hdr.Boundaries) == 0 {
		return Geometry{}, fmt.Errorf(`%w: missing "boundaries"`, ErrMalformedBoundary)
	}
	switch kind {
	case MultiSurface, CompositeSurface:
		err = json.Unmarshal(hdr.Boundaries, &g.Surfaces)
	case Solid:
		err = json.Unmarshal(hdr.Boundaries, &g.Shells)
	case MultiSolid:
		err = json.Unmarshal(hdr.Boundaries, &g.Solids)
	}
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %s boundaries: %v", ErrMalformedBoundary, kind, err)
	}

	if len(hdr.Semantics) > 0 && !bytes.Equal(bytes.TrimSpace(hdr.Semantics), []byte("null")) {
		var sem Semantics
		if err := json.Unmarshal(hdr.Semantics, &sem); err != nil {
			// semantics are optional; a broken block is reported as misaligned
			return g, fmt.Errorf("%w: %v", ErrSemanticsMisaligned, err)
		}
		g.Semantics = &sem
	}
	return g, nil
}

func (g *Geometry) UnmarshalJSON(b []byte) error {
	out, err := ParseGeometry(b)
	if err != nil {
		return err
	}
	*g = out
	return nil
}
