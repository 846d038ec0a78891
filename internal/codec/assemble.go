package codec

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/cityjson-codec/internal/boundary"
	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/observability"
	"github.com/mohammed-shakir/cityjson-codec/internal/hierarchy"
	"github.com/mohammed-shakir/cityjson-codec/internal/semantics"
	"github.com/mohammed-shakir/cityjson-codec/internal/session"
	"github.com/mohammed-shakir/cityjson-codec/internal/vertexpool"
)

// Assemble collects host objects into a document ready for Encode. An
// object whose meshes lack a usable geometry type or lod, or that has no
// CityObject type, is left out and reported; the rest are exported.
// children and parents are derived from the objects' parent pointers. With
// a session the vertices are moved back to real-world coordinates and the
// session's transform and CRS are written.
func (c *Codec) Assemble(ctx context.Context, scene []SceneObject, sess *session.ImportSession) (doc *cityjson.Document, rep *Report, err error) {
	start := time.Now()
	defer func() { observability.ObserveCodecOp("assemble", err, time.Since(start).Seconds()) }()
	log := c.logger(ctx)

	doc = &cityjson.Document{
		Type:        cityjson.DocumentType,
		Version:     c.opts.Version,
		CityObjects: make(map[string]*cityjson.CityObject, len(scene)),
	}
	rep = &Report{}

	var order []string
	parentOf := make(map[string]string, len(scene))
	for _, so := range scene {
		if so.ID == "" {
			rep.ObjectsSkipped = append(rep.ObjectsSkipped, &cityjson.ObjectError{
				Err: fmt.Errorf("%w: object without id", cityjson.ErrMissingRequiredAttribute)})
			continue
		}
		if _, dup := doc.CityObjects[so.ID]; dup {
			rep.ObjectsSkipped = append(rep.ObjectsSkipped, &cityjson.ObjectError{ObjectID: so.ID,
				Err: errors.New("duplicate object id")})
			continue
		}
		o, verts, err := assembleObject(so, len(doc.Vertices))
		if err != nil {
			rep.ObjectsSkipped = append(rep.ObjectsSkipped, &cityjson.ObjectError{ObjectID: so.ID, Err: err})
			log.Warn().Str("cityobject", so.ID).Err(err).Msg("object not exported")
			continue
		}
		doc.Vertices = append(doc.Vertices, verts...)
		doc.CityObjects[so.ID] = o
		order = append(order, so.ID)
		parentOf[so.ID] = so.ParentID
		rep.Geometries += len(o.Geometry)
	}
	rep.Objects = len(order)

	links, issues := hierarchy.Link(order, parentOf)
	rep.Hierarchy = issues
	for id, l := range links {
		doc.CityObjects[id].Children = l.Children
		doc.CityObjects[id].Parents = l.Parents
	}

	if sess != nil {
		doc.Vertices = sess.Restore(doc.Vertices)
		if sess.Transform != nil {
			t := *sess.Transform
			doc.Transform = &t
		}
	}
	if doc.Vertices == nil {
		doc.Vertices = []cityjson.Vertex{}
	}

	md := &cityjson.Metadata{GeographicalExtent: vertexpool.Extent(doc.Vertices)}
	if sess != nil {
		md.ReferenceSystem = sess.CRS
	}
	if md.ReferenceSystem != "" || md.GeographicalExtent != nil {
		doc.Metadata = md
	}

	observability.AddObjectsSkipped(len(rep.ObjectsSkipped))
	log.Info().
		Int("objects", rep.Objects).
		Int("skipped", len(rep.ObjectsSkipped)).
		Int("vertices", len(doc.Vertices)).
		Msg("assembled")
	return doc, rep, nil
}

// assembleObject builds one CityObject whose boundaries index a document
// pool that already holds offset vertices.
func assembleObject(so SceneObject, offset int) (*cityjson.CityObject, []cityjson.Vertex, error) {
	o := &cityjson.CityObject{ID: so.ID}
	o.SetProperties(hierarchy.ExpandAttributes(so.Attributes))
	if o.Type == "" {
		return nil, nil, fmt.Errorf(`%w: missing "type"`, cityjson.ErrMissingRequiredAttribute)
	}

	var verts []cityjson.Vertex
	for mi, m := range so.Meshes {
		kind, lod, err := meshHeader(m)
		if err != nil {
			return nil, nil, fmt.Errorf("mesh %d (%s): %w", mi, m.Name, err)
		}
		base := offset + len(verts)
		shift := func(ring []int) ([]int, error) {
			out := make([]int, len(ring))
			for i, idx := range ring {
				if idx < 0 || idx >= len(m.Vertices) {
					return nil, fmt.Errorf("%w: mesh %d face references vertex %d of %d",
						cityjson.ErrMalformedBoundary, mi, idx, len(m.Vertices))
				}
				out[i] = idx + base
			}
			return out, nil
		}

		flat := boundary.Flat{Faces: make([][]int, 0, len(m.Faces))}
		if m.Holes != nil {
			flat.Holes = make([][][]int, 0, len(m.Faces))
		}
		for fi, f := range m.Faces {
			r, err := shift(f)
			if err != nil {
				return nil, nil, err
			}
			flat.Faces = append(flat.Faces, r)
			if flat.Holes == nil {
				continue
			}
			var hs [][]int
			if fi < len(m.Holes) {
				for _, h := range m.Holes[fi] {
					hr, err := shift(h)
					if err != nil {
						return nil, nil, err
					}
					hs = append(hs, hr)
				}
			}
			flat.Holes = append(flat.Holes, hs)
		}

		g, err := boundary.Unflatten(flat, kind)
		if err != nil {
			return nil, nil, err
		}
		g.LoD = lod
		if g.Semantics, err = buildSemantics(m, kind); err != nil {
			return nil, nil, err
		}

		verts = append(verts, m.Vertices...)
		o.Geometry = append(o.Geometry, g)
	}
	return o, verts, nil
}

func meshHeader(m SceneMesh) (cityjson.Kind, cityjson.LoD, error) {
	if strings.TrimSpace(m.GeometryType) == "" {
		return 0, "", fmt.Errorf(`%w: missing geometry "type"`, cityjson.ErrMissingRequiredAttribute)
	}
	kind, err := cityjson.ParseKind(m.GeometryType)
	if err != nil {
		return 0, "", err
	}
	lod := strings.TrimSpace(m.LoD)
	if lod == "" {
		return 0, "", fmt.Errorf(`%w: missing "lod"`, cityjson.ErrMissingRequiredAttribute)
	}
	if _, err := strconv.ParseFloat(lod, 64); err != nil {
		return 0, "", fmt.Errorf(`%w: "lod" %q is not a number`, cityjson.ErrMissingRequiredAttribute, lod)
	}
	return kind, cityjson.LoD(lod), nil
}

// buildSemantics turns per-face materials into a surfaces/values pair.
// Faces without a semantic material get null; a mesh without any gets no
// semantics at all.
func buildSemantics(m SceneMesh, kind cityjson.Kind) (*cityjson.Semantics, error) {
	tbl := semantics.NewTable()
	for _, mat := range m.Materials {
		if mat.Surface != nil {
			tbl.Add(mat.Name, *mat.Surface)
		}
	}
	if tbl.Len() == 0 {
		return nil, nil
	}

	vals := make([]*int, len(m.Faces))
	for fi := range m.Faces {
		if fi >= len(m.FaceMaterial) {
			continue
		}
		mi := m.FaceMaterial[fi]
		if mi < 0 || mi >= len(m.Materials) {
			continue
		}
		vals[fi] = tbl.LinkFace(m.Materials[mi].Name)
	}
	values, err := semantics.Nest(vals, kind)
	if err != nil {
		return nil, err
	}
	surfaces, _ := tbl.BuildSurfaces()
	return &cityjson.Semantics{Surfaces: surfaces, Values: values}, nil
}
