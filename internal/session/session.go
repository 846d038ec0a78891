// Package session keeps the per-scene state shared by successive imports and
// exports: the reference system, the axis origin and the transform.
package session

import (
	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
	"github.com/mohammed-shakir/cityjson-codec/internal/vertexpool"
)

// ImportSession is loaded before and saved after every codec call that
// touches a scene.
type ImportSession struct {
	ID        string              `json:"id"`
	CRS       string              `json:"crs,omitempty"`
	Origin    *cityjson.Vertex    `json:"origin,omitempty"`
	Transform *cityjson.Transform `json:"transform,omitempty"`
	Imports   int                 `json:"imports"`
}

func New(id string) *ImportSession {
	return &ImportSession{ID: id}
}

// Prepare moves the real-world vertices of doc into the scene frame. The
// first import fixes the origin at the minimum corner of its vertices and
// records the CRS and transform; later imports are placed relative to that
// origin instead of being re-zeroed.
func (s *ImportSession) Prepare(doc *cityjson.Document) []cityjson.Vertex {
	defer func() { s.Imports++ }()

	if s.CRS == "" && doc.Metadata != nil {
		s.CRS = doc.Metadata.ReferenceSystem
	}
	if s.Transform == nil && doc.Transform != nil {
		t := *doc.Transform
		s.Transform = &t
	}

	if s.Origin == nil {
		out, origin := vertexpool.NormalizeToOrigin(doc.Vertices)
		if len(doc.Vertices) > 0 {
			s.Origin = &origin
		}
		return out
	}
	out, _ := vertexpool.Reconcile(doc.Vertices, *s.Origin)
	return out
}

// Restore maps scene vertices back to real-world coordinates.
func (s *ImportSession) Restore(vs []cityjson.Vertex) []cityjson.Vertex {
	if s == nil || s.Origin == nil {
		return vertexpool.Translate(vs, cityjson.Vertex{})
	}
	return vertexpool.Denormalize(vs, *s.Origin)
}

// CRSConflict reports whether doc declares a reference system other than the
// one the session was started with.
func (s *ImportSession) CRSConflict(doc *cityjson.Document) bool {
	if s.CRS == "" || doc.Metadata == nil || doc.Metadata.ReferenceSystem == "" {
		return false
	}
	return s.CRS != doc.Metadata.ReferenceSystem
}

func (s *ImportSession) Clone() *ImportSession {
	if s == nil {
		return nil
	}
	out := *s
	if s.Origin != nil {
		o := *s.Origin
		out.Origin = &o
	}
	if s.Transform != nil {
		t := *s.Transform
		out.Transform = &t
	}
	return &out
}
