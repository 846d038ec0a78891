package codec

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammed-shakir/cityjson-codec/internal/boundary"
	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/observability"
	"github.com/mohammed-shakir/cityjson-codec/internal/hierarchy"
	"github.com/mohammed-shakir/cityjson-codec/internal/semantics"
	"github.com/mohammed-shakir/cityjson-codec/internal/session"
)

// Import hands a decoded document to host: one object per CityObject,
// parents first, and one mesh per geometry. With a session the vertices are
// placed in the session's frame and the session records CRS, origin and
// transform; without one they are passed through as real-world coordinates.
// Host errors abort the import.
func (c *Codec) Import(ctx context.Context, doc *cityjson.Document, sess *session.ImportSession, host Host) (rep *Report, err error) {
	start := time.Now()
	defer func() { observability.ObserveCodecOp("import", err, time.Since(start).Seconds()) }()
	log := c.logger(ctx)

	rep = &Report{Objects: len(doc.CityObjects)}

	verts := doc.Vertices
	if sess != nil {
		if sess.CRSConflict(doc) {
			w := fmt.Sprintf("document CRS %q differs from session CRS %q", doc.Metadata.ReferenceSystem, sess.CRS)
			rep.Warnings = append(rep.Warnings, w)
			log.Warn().Str("session", sess.ID).Msg(w)
		}
		verts = sess.Prepare(doc)
	}

	forest, issues := hierarchy.Build(doc.CityObjects)
	rep.Hierarchy = issues
	for _, e := range issues {
		log.Warn().Err(e).Msg("hierarchy")
	}

	handles := make(map[string]ObjectHandle, len(doc.CityObjects))
	err = forest.Walk(func(n hierarchy.Node, _ int) error {
		o := doc.CityObjects[n.ID]
		parentID := forest.ParentOf(n.ID)

		h, err := host.CreateObject(n.ID, parentID)
		if err != nil {
			return fmt.Errorf("create object %q: %w", n.ID, err)
		}
		handles[n.ID] = h
		if o == nil {
			return nil
		}
		if err := host.SetAttributes(h, hierarchy.FlattenAttributes(o.Properties())); err != nil {
			return fmt.Errorf("set attributes of %q: %w", n.ID, err)
		}

		for i := range o.Geometry {
			rep.Geometries++
			if err := c.importGeometry(n.ID, i, &o.Geometry[i], verts, h, host, rep); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("import aborted")
		return nil, err
	}

	observability.AddHolesDropped(rep.HolesDropped)
	observeSkipped(rep)
	log.Info().
		Int("objects", rep.Objects).
		Int("meshes", rep.Meshes).
		Int("holes_dropped", rep.HolesDropped).
		Msg("imported")
	return rep, nil
}

func (c *Codec) importGeometry(id string, index int, g *cityjson.Geometry, verts []cityjson.Vertex, owner ObjectHandle, host Host, rep *Report) error {
	flat := boundary.Flatten(g, boundary.Options{KeepHoles: c.opts.KeepHoles})
	rep.HolesDropped += flat.HolesDropped
	if len(flat.Faces) == 0 {
		rep.Skipped = append(rep.Skipped, &cityjson.GeometryError{ObjectID: id, Index: index,
			Err: fmt.Errorf("%w: no faces", cityjson.ErrMalformedBoundary)})
		return nil
	}

	local, faces, holes, err := boundary.CleanBuffer(verts, flat.Faces, flat.Holes)
	if err != nil {
		rep.Skipped = append(rep.Skipped, &cityjson.GeometryError{ObjectID: id, Index: index, Err: err})
		return nil
	}

	m := Mesh{
		Name:          GeometryName(index, g.LoD, id),
		GeometryType:  g.Kind,
		LoD:           g.LoD,
		Vertices:      local,
		Faces:         faces,
		Holes:         holes,
		MaterialIndex: make([]int, len(faces)),
	}
	for i := range m.MaterialIndex {
		m.MaterialIndex[i] = -1
	}

	vals, err := semantics.Check(g)
	if err != nil {
		rep.SemanticsDropped = append(rep.SemanticsDropped, &cityjson.GeometryError{ObjectID: id, Index: index, Err: err})
		vals = nil
	}
	if vals != nil {
		slot := map[int]int{}
		for fi, v := range semantics.Select(vals, flat.Index) {
			if v == nil {
				continue
			}
			si, ok := slot[*v]
			if !ok {
				mat, err := host.GetOrCreateMaterial(owner, g.Semantics.Surfaces[*v])
				if err != nil {
					return fmt.Errorf("material for %q geometry %d: %w", id, index, err)
				}
				si = len(m.Materials)
				slot[*v] = si
				m.Materials = append(m.Materials, mat)
			}
			m.MaterialIndex[fi] = si
		}
	}

	if _, err := host.CreateMesh(owner, m); err != nil {
		return fmt.Errorf("create mesh %q: %w", m.Name, err)
	}
	rep.Meshes++
	return nil
}
