// Package cityjson defines the CityJSON data model: documents, city
// objects, typed geometries, semantic surfaces and attribute values.
package cityjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const DocumentType = "CityJSON"

type Vertex [3]float64

// Transform quantizes coordinates: real = raw*Scale + Translate.
type Transform struct {
	Scale     [3]float64 `json:"scale"`
	Translate [3]float64 `json:"translate"`
}

func (t *Transform) Valid() error {
	if t == nil {
		return nil
	}
	for i, s := range t.Scale {
		if s == 0 {
			return fmt.Errorf("transform scale[%d] is zero", i)
		}
	}
	return nil
}

type Appearance struct {
	Textures        []Value     `json:"textures,omitempty"`
	VerticesTexture [][]float64 `json:"vertices-texture,omitempty"`
}

type Metadata struct {
	ReferenceSystem    string
	GeographicalExtent []float64
	Extra              map[string]Value
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]Value, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.ReferenceSystem != "" {
		out["referenceSystem"] = String(m.ReferenceSystem)
	}
	if len(m.GeographicalExtent) > 0 {
		items := make([]Value, len(m.GeographicalExtent))
		for i, f := range m.GeographicalExtent {
			items[i] = Float(f)
		}
		out["geographicalExtent"] = List(items...)
	}
	return Map(out).MarshalJSON()
}

func (m *Metadata) UnmarshalJSON(b []byte) error {
	var v Value
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	fields, ok := v.Map()
	if !ok {
		return fmt.Errorf("metadata must be an object, got %s", v.Kind())
	}
	*m = Metadata{}
	for k, f := range fields {
		switch k {
		case "referenceSystem":
			if s, ok := f.Str(); ok {
				m.ReferenceSystem = s
				continue
			}
		case "geographicalExtent":
			if items, ok := f.List(); ok {
				ext := make([]float64, 0, len(items))
				for _, it := range items {
					if x, ok := it.Float(); ok {
						ext = append(ext, x)
					}
				}
				if len(ext) == len(items) {
					m.GeographicalExtent = ext
					continue
				}
			}
		}
		if m.Extra == nil {
			m.Extra = map[string]Value{}
		}
		m.Extra[k] = f
	}
	return nil
}

// CityObject is a named entity owning geometries and attributes. Extra
// holds any further members (geographicalExtent, address, ...) verbatim.
type CityObject struct {
	ID         string
	Type       string
	Attributes map[string]Value
	Extra      map[string]Value
	Geometry   []Geometry
	Children   []string
	Parents    []string
}

// ReservedKeys are never treated as attributes.
var ReservedKeys = map[string]struct{}{
	"geometry": {},
	"children": {},
	"parents":  {},
}

// Properties returns every non-reserved member of the object as it appears
// in the file: type, attributes and extra members.
func (o *CityObject) Properties() map[string]Value {
	out := make(map[string]Value, len(o.Extra)+2)
	for k, v := range o.Extra {
		out[k] = v
	}
	if o.Type != "" {
		out["type"] = String(o.Type)
	}
	if len(o.Attributes) > 0 {
		out["attributes"] = Map(o.Attributes)
	}
	return out
}

// SetProperties is the inverse of Properties.
func (o *CityObject) SetProperties(props map[string]Value) {
	o.Type = ""
	o.Attributes = nil
	o.Extra = nil
	for k, v := range props {
		if _, reserved := ReservedKeys[k]; reserved {
			continue
		}
		switch k {
		case "type":
			if s, ok := v.Str(); ok {
				o.Type = s
				continue
			}
		case "attributes":
			if m, ok := v.Map(); ok {
				o.Attributes = m
				continue
			}
		}
		if o.Extra == nil {
			o.Extra = map[string]Value{}
		}
		o.Extra[k] = v
	}
}

func (o *CityObject) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(o.Extra)+5)
	for k, v := range o.Properties() {
		b, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("cityobject %q member %q: %w", o.ID, k, err)
		}
		out[k] = b
	}
	geoms := o.Geometry
	if geoms == nil {
		geoms = []Geometry{}
	}
	b, err := json.Marshal(geoms)
	if err != nil {
		return nil, fmt.Errorf("cityobject %q geometry: %w", o.ID, err)
	}
	out["geometry"] = b
	if len(o.Children) > 0 {
		if out["children"], err = json.Marshal(o.Children); err != nil {
			return nil, err
		}
	}
	if len(o.Parents) > 0 {
		if out["parents"], err = json.Marshal(o.Parents); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// ParseCityObject decodes one CityObject against a pool of nVertices.
// Geometries that cannot be decoded or that reference vertices outside the
// pool are skipped and returned as issues; a broken semantics block only
// drops the semantics. The returned error is set when the object itself is
// not an object.
func ParseCityObject(id string, data []byte, nVertices int) (*CityObject, []error, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, nil, &ObjectError{ObjectID: id, Err: fmt.Errorf("not a JSON object: %w", err)}
	}

	obj := &CityObject{ID: id}
	props := make(map[string]Value, len(members))
	for k, raw := range members {
		if _, reserved := ReservedKeys[k]; reserved {
			continue
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return nil, nil, &ObjectError{ObjectID: id, Err: fmt.Errorf("member %q: %w", k, err)}
		}
		props[k] = v
	}
	obj.SetProperties(props)

	for _, rel := range []struct {
		key string
		dst *[]string
	}{{"children", &obj.Children}, {"parents", &obj.Parents}} {
		if raw, ok := members[rel.key]; ok {
			if err := json.Unmarshal(raw, rel.dst); err != nil {
				return nil, nil, &ObjectError{ObjectID: id, Err: fmt.Errorf("%q must be a list of ids: %w", rel.key, err)}
			}
		}
	}

	var issues []error
	if raw, ok := members["geometry"]; ok {
		var geoms []json.RawMessage
		if err := json.Unmarshal(raw, &geoms); err != nil {
			return nil, nil, &ObjectError{ObjectID: id, Err: fmt.Errorf(`"geometry" must be an array: %w`, err)}
		}
		for i, gr := range geoms {
			g, err := ParseGeometry(gr)
			if err != nil {
				issues = append(issues, &GeometryError{ObjectID: id, Index: i, Err: err})
				if !errors.Is(err, ErrSemanticsMisaligned) {
					continue
				}
			}
			if err := g.Validate(nVertices); err != nil {
				issues = append(issues, &GeometryError{ObjectID: id, Index: i, Err: err})
				continue
			}
			obj.Geometry = append(obj.Geometry, g)
		}
	}
	return obj, issues, nil
}

// Document is a CityJSON file. Vertices hold whatever coordinates the
// producer put there; the codec keeps real-world coordinates in memory and
// applies Transform only when writing.
type Document struct {
	Type        string
	Version     string
	Transform   *Transform
	CityObjects map[string]*CityObject
	Vertices    []Vertex
	Appearance  *Appearance
	Metadata    *Metadata
}

// IDs returns the CityObject ids in sorted order.
func (d *Document) IDs() []string {
	ids := make([]string, 0, len(d.CityObjects))
	for id := range d.CityObjects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d *Document) MarshalJSON() ([]byte, error) {
	// defining a struct here fixes the member order
	type document struct {
		Type        string                 `json:"type"`
		Version     string                 `json:"version"`
		Transform   *Transform             `json:"transform,omitempty"`
		Metadata    *Metadata              `json:"metadata,omitempty"`
		CityObjects map[string]*CityObject `json:"CityObjects"`
		Vertices    []Vertex               `json:"vertices"`
		Appearance  *Appearance            `json:"appearance,omitempty"`
	}
	objs := d.CityObjects
	if LoDAsText(d.Version) {
		objs = make(map[string]*CityObject, len(d.CityObjects))
		for id, o := range d.CityObjects {
			if o == nil {
				objs[id] = nil
				continue
			}
			co := *o
			co.Geometry = make([]Geometry, len(o.Geometry))
			for i, g := range o.Geometry {
				g.lodText = true
				co.Geometry[i] = g
			}
			objs[id] = &co
		}
	}
	out := document{
		Type:        d.Type,
		Version:     d.Version,
		Transform:   d.Transform,
		Metadata:    d.Metadata,
		CityObjects: objs,
		Vertices:    d.Vertices,
		Appearance:  d.Appearance,
	}
	if out.Type == "" {
		out.Type = DocumentType
	}
	if out.CityObjects == nil {
		out.CityObjects = map[string]*CityObject{}
	}
	if out.Vertices == nil {
		out.Vertices = []Vertex{}
	}
	return json.Marshal(out)
}

// ParseDocument decodes a CityJSON file. A missing required member or a
// broken top-level structure is fatal; per-geometry problems are returned
// as issues and the geometry is left out. Vertices are returned as stored.
func ParseDocument(data []byte) (*Document, []error, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("%w: parse json: %v", ErrMalformedDocument, err)
	}
	for _, k := range []string{"type", "version", "CityObjects", "vertices"} {
		if _, ok := root[k]; !ok {
			return nil, nil, missingMember(k)
		}
	}

	doc := &Document{}
	if err := json.Unmarshal(root["type"], &doc.Type); err != nil {
		return nil, nil, fmt.Errorf(`%w: parse "type": %v`, ErrMalformedDocument, err)
	}
	if doc.Type != DocumentType {
		return nil, nil, fmt.Errorf(`%w: type is %q (want %q)`, ErrMalformedDocument, doc.Type, DocumentType)
	}
	var version json.Number
	if err := json.Unmarshal(root["version"], &version); err != nil {
		var s string
		if errS := json.Unmarshal(root["version"], &s); errS != nil {
			return nil, nil, fmt.Errorf(`%w: parse "version": %v`, ErrMalformedDocument, err)
		}
		version = json.Number(s)
	}
	doc.Version = strings.TrimSpace(version.String())

	if raw, ok := root["transform"]; ok && string(raw) != "null" {
		var t Transform
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, nil, fmt.Errorf(`%w: parse "transform": %v`, ErrMalformedDocument, err)
		}
		if err := t.Valid(); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		doc.Transform = &t
	}

	var verts [][]float64
	if err := json.Unmarshal(root["vertices"], &verts); err != nil {
		return nil, nil, fmt.Errorf(`%w: "vertices" must be an array of [x,y,z]: %v`, ErrMalformedDocument, err)
	}
	doc.Vertices = make([]Vertex, len(verts))
	for i, v := range verts {
		if len(v) != 3 {
			return nil, nil, fmt.Errorf("%w: vertex %d has %d coordinates (want 3)", ErrMalformedDocument, i, len(v))
		}
		doc.Vertices[i] = Vertex{v[0], v[1], v[2]}
	}

	if raw, ok := root["metadata"]; ok && string(raw) != "null" {
		var md Metadata
		if err := json.Unmarshal(raw, &md); err != nil {
			return nil, nil, fmt.Errorf(`%w: parse "metadata": %v`, ErrMalformedDocument, err)
		}
		doc.Metadata = &md
	}
	if raw, ok := root["appearance"]; ok && string(raw) != "null" {
		var ap Appearance
		if err := json.Unmarshal(raw, &ap); err != nil {
			return nil, nil, fmt.Errorf(`%w: parse "appearance": %v`, ErrMalformedDocument, err)
		}
		doc.Appearance = &ap
	}

	var objects map[string]json.RawMessage
	if err := json.Unmarshal(root["CityObjects"], &objects); err != nil {
		return nil, nil, fmt.Errorf(`%w: "CityObjects" must be an object: %v`, ErrMalformedDocument, err)
	}

	var issues []error
	doc.CityObjects = make(map[string]*CityObject, len(objects))
	for id, raw := range objects {
		obj, objIssues, err := ParseCityObject(id, raw, len(doc.Vertices))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		issues = append(issues, objIssues...)
		doc.CityObjects[id] = obj
	}
	sortIssues(issues)
	return doc, issues, nil
}

// map iteration order is random; reports are sorted by object and geometry
func sortIssues(issues []error) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issueKey(issues[i]) < issueKey(issues[j])
	})
}

func issueKey(err error) string {
	var ge *GeometryError
	if errors.As(err, &ge) {
		return fmt.Sprintf("%s\x00%08d", ge.ObjectID, ge.Index)
	}
	var oe *ObjectError
	if errors.As(err, &oe) {
		return oe.ObjectID
	}
	return err.Error()
}
