// Package scene is an in-memory host for the codec. It stands in for a
// renderer in tests, the CLI and the service, and keeps just enough state to
// export what it imported.
package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
	"github.com/mohammed-shakir/cityjson-codec/internal/codec"
)

var (
	ErrDuplicateObject = errors.New("object already exists")
	ErrUnknownParent   = errors.New("parent object does not exist")
	ErrForeignHandle   = errors.New("handle does not belong to this scene")
)

type Options struct {
	// ReuseMaterials shares one material between surfaces of the same type
	// and attributes; otherwise every surface gets its own.
	ReuseMaterials bool
}

type Object struct {
	ID         string
	ParentID   string
	Children   []string
	Attributes map[string]cityjson.Value
	Meshes     []*Mesh
}

// Mesh keeps the geometry type and lod as editable text, the way a host
// stores them as custom properties.
type Mesh struct {
	Name          string
	GeometryType  string
	LoD           string
	Vertices      []cityjson.Vertex
	Faces         [][]int
	Holes         [][][]int
	Materials     []*Material
	MaterialIndex []int
}

type Scene struct {
	mu        sync.Mutex
	opts      Options
	objects   map[string]*Object
	order     []string
	materials []*Material
	names     map[string]int
}

var _ codec.Host = (*Scene)(nil)

func New(opts Options) *Scene {
	return &Scene{
		opts:    opts,
		objects: map[string]*Object{},
		names:   map[string]int{},
	}
}

func (s *Scene) CreateObject(id, parentID string) (codec.ObjectHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateObject, id)
	}
	if parentID != "" {
		p, ok := s.objects[parentID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParent, parentID)
		}
		p.Children = append(p.Children, id)
	}
	o := &Object{ID: id, ParentID: parentID}
	s.objects[id] = o
	s.order = append(s.order, id)
	return o, nil
}

func (s *Scene) owned(h codec.ObjectHandle) (*Object, error) {
	o, ok := h.(*Object)
	if !ok || s.objects[o.ID] != o {
		return nil, ErrForeignHandle
	}
	return o, nil
}

func (s *Scene) SetAttributes(h codec.ObjectHandle, attrs map[string]cityjson.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.owned(h)
	if err != nil {
		return err
	}
	o.Attributes = make(map[string]cityjson.Value, len(attrs))
	for k, v := range attrs {
		o.Attributes[k] = v
	}
	return nil
}

func (s *Scene) CreateMesh(h codec.ObjectHandle, m codec.Mesh) (codec.MeshHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.owned(h)
	if err != nil {
		return nil, err
	}
	mats := make([]*Material, len(m.Materials))
	for i, mh := range m.Materials {
		mat, ok := mh.(*Material)
		if !ok {
			return nil, fmt.Errorf("%w: material %T", ErrForeignHandle, mh)
		}
		mats[i] = mat
	}
	mesh := &Mesh{
		Name:          m.Name,
		GeometryType:  m.GeometryType.String(),
		LoD:           string(m.LoD),
		Vertices:      m.Vertices,
		Faces:         m.Faces,
		Holes:         m.Holes,
		Materials:     mats,
		MaterialIndex: m.MaterialIndex,
	}
	o.Meshes = append(o.Meshes, mesh)
	return mesh, nil
}

// Object returns the object with id, or nil.
func (s *Scene) Object(id string) *Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[id]
}

// Reparent moves an object under a new parent; an empty parent makes it a
// root.
func (s *Scene) Reparent(id, parentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[id]
	if !ok {
		return fmt.Errorf("unknown object %q", id)
	}
	if parentID != "" {
		if _, ok := s.objects[parentID]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownParent, parentID)
		}
	}
	if old, ok := s.objects[o.ParentID]; ok {
		for i, c := range old.Children {
			if c == id {
				old.Children = append(old.Children[:i], old.Children[i+1:]...)
				break
			}
		}
	}
	o.ParentID = parentID
	if p, ok := s.objects[parentID]; ok {
		p.Children = append(p.Children, id)
	}
	return nil
}

// Export returns the scene in creation order for codec.Assemble.
func (s *Scene) Export() []codec.SceneObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]codec.SceneObject, 0, len(s.order))
	for _, id := range s.order {
		o := s.objects[id]
		so := codec.SceneObject{ID: o.ID, ParentID: o.ParentID, Attributes: o.Attributes}
		for _, m := range o.Meshes {
			sm := codec.SceneMesh{
				Name:         m.Name,
				GeometryType: m.GeometryType,
				LoD:          m.LoD,
				Vertices:     m.Vertices,
				Faces:        m.Faces,
				Holes:        m.Holes,
				FaceMaterial: m.MaterialIndex,
			}
			for _, mat := range m.Materials {
				surface := mat.Surface
				sm.Materials = append(sm.Materials, codec.SurfaceMaterial{Name: mat.Name, Surface: &surface})
			}
			so.Meshes = append(so.Meshes, sm)
		}
		out = append(out, so)
	}
	return out
}

// Summary counts what the scene holds.
type Summary struct {
	Objects   int      `json:"objects"`
	Roots     []string `json:"roots"`
	Meshes    int      `json:"meshes"`
	Faces     int      `json:"faces"`
	Vertices  int      `json:"vertices"`
	Materials []string `json:"materials"`
}

func (s *Scene) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := Summary{Objects: len(s.order), Roots: []string{}, Materials: []string{}}
	for _, id := range s.order {
		o := s.objects[id]
		if o.ParentID == "" {
			sum.Roots = append(sum.Roots, id)
		}
		for _, m := range o.Meshes {
			sum.Meshes++
			sum.Faces += len(m.Faces)
			sum.Vertices += len(m.Vertices)
		}
	}
	for _, m := range s.materials {
		sum.Materials = append(sum.Materials, m.Name)
	}
	return sum
}
