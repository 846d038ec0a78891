package codec

import (
	"fmt"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
)

// Handles are opaque to the codec; the host decides what they are.
type (
	ObjectHandle   = any
	MeshHandle     = any
	MaterialHandle = any
)

// Host is the renderer side of an import. The codec creates parents before
// their children.
type Host interface {
	CreateObject(id, parentID string) (ObjectHandle, error)
	CreateMesh(owner ObjectHandle, m Mesh) (MeshHandle, error)
	// SetAttributes receives every non-reserved member of the CityObject
	// under dotted keys, e.g. "attributes.address.city".
	SetAttributes(obj ObjectHandle, attrs map[string]cityjson.Value) error
	// GetOrCreateMaterial is called with the object whose faces will use
	// the material; hosts may colour by its type.
	GetOrCreateMaterial(owner ObjectHandle, surface cityjson.SemanticSurface) (MaterialHandle, error)
}

// Mesh is one geometry in host form: a dense vertex list and faces indexing
// into it.
type Mesh struct {
	Name         string
	GeometryType cityjson.Kind
	LoD          cityjson.LoD
	Vertices     []cityjson.Vertex
	Faces        [][]int
	// Holes is parallel to Faces when holes are kept.
	Holes     [][][]int
	Materials []MaterialHandle
	// MaterialIndex holds, per face, an index into Materials or -1.
	MaterialIndex []int
}

// SceneObject is what the host hands back for export. Attributes use the
// same dotted keys SetAttributes received.
type SceneObject struct {
	ID         string
	ParentID   string
	Attributes map[string]cityjson.Value
	Meshes     []SceneMesh
}

// SceneMesh carries the geometry type and lod as free text because the host
// lets users edit them; Assemble validates both.
type SceneMesh struct {
	Name         string
	GeometryType string
	LoD          string
	Vertices     []cityjson.Vertex
	Faces        [][]int
	Holes        [][][]int
	Materials    []SurfaceMaterial
	// FaceMaterial holds, per face, an index into Materials or -1.
	FaceMaterial []int
}

// SurfaceMaterial is a host material. Surface is nil for materials that do
// not stand for a semantic surface; faces using them get a null value.
type SurfaceMaterial struct {
	Name    string
	Surface *cityjson.SemanticSurface
}

// GeometryName is the host name of geometry index of object id.
func GeometryName(index int, lod cityjson.LoD, id string) string {
	return fmt.Sprintf("%d: [LoD%s] %s", index, lod, id)
}
