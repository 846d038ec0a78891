package codec

import (
	"encoding/json"
	"errors"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
)

// Report lists everything a call recovered from. Nothing in it is fatal.
type Report struct {
	Objects    int
	Geometries int
	Meshes     int

	// Skipped are geometries left out (GeometryError).
	Skipped []error
	// SemanticsDropped are geometries imported without their semantics.
	SemanticsDropped []error
	HolesDropped     int
	// Hierarchy holds dangling parents, cycles and stale children lists.
	Hierarchy []error
	// ObjectsSkipped are CityObjects left out of an export (ObjectError).
	ObjectsSkipped  []error
	VerticesRemoved int
	// Warnings are notes that did not change the result, such as a CRS
	// differing from the session's.
	Warnings []string
}

func (r *Report) addIssues(issues []error) {
	for _, err := range issues {
		if errors.Is(err, cityjson.ErrSemanticsMisaligned) {
			r.SemanticsDropped = append(r.SemanticsDropped, err)
			continue
		}
		r.Skipped = append(r.Skipped, err)
	}
}

// Clean reports whether nothing was skipped or dropped.
func (r *Report) Clean() bool {
	return len(r.Skipped) == 0 && len(r.SemanticsDropped) == 0 && r.HolesDropped == 0 &&
		len(r.Hierarchy) == 0 && len(r.ObjectsSkipped) == 0
}

func messages(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Objects          int      `json:"objects"`
		Geometries       int      `json:"geometries"`
		Meshes           int      `json:"meshes,omitempty"`
		Skipped          []string `json:"skipped"`
		SemanticsDropped []string `json:"semantics_dropped"`
		HolesDropped     int      `json:"holes_dropped"`
		Hierarchy        []string `json:"hierarchy"`
		ObjectsSkipped   []string `json:"objects_skipped"`
		VerticesRemoved  int      `json:"vertices_removed"`
		Warnings         []string `json:"warnings,omitempty"`
	}{
		Objects:          r.Objects,
		Geometries:       r.Geometries,
		Meshes:           r.Meshes,
		Skipped:          messages(r.Skipped),
		SemanticsDropped: messages(r.SemanticsDropped),
		HolesDropped:     r.HolesDropped,
		Hierarchy:        messages(r.Hierarchy),
		ObjectsSkipped:   messages(r.ObjectsSkipped),
		VerticesRemoved:  r.VerticesRemoved,
		Warnings:         r.Warnings,
	})
}
