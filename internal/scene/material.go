package scene

import (
	"fmt"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
	"github.com/mohammed-shakir/cityjson-codec/internal/codec"
)

type Color [4]float64

var surfaceColors = map[string]Color{
	"WallSurface":   {0.8, 0.8, 0.8, 1},
	"RoofSurface":   {0.9, 0.057, 0.086, 1},
	"GroundSurface": {0.507, 0.233, 0.036, 1},
}

var defaultColor = Color{0, 0, 0, 1}

// SurfaceColor is the display colour of a semantic surface type on objects
// outside the construction catalog.
func SurfaceColor(surfaceType string) Color {
	if c, ok := surfaceColors[surfaceType]; ok {
		return c
	}
	return defaultColor
}

// Material is named after its surface type; further materials of the same
// type get a numeric suffix (RoofSurface.001). ObjectType is the type of
// the object it was created for and selects the colour.
type Material struct {
	Name       string
	ObjectType string
	Surface    cityjson.SemanticSurface
	Color      Color
}

func (s *Scene) GetOrCreateMaterial(owner codec.ObjectHandle, surface cityjson.SemanticSurface) (codec.MaterialHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.owned(owner)
	if err != nil {
		return nil, err
	}
	objectType, _ := o.Attributes["type"].Str()

	if s.opts.ReuseMaterials {
		for _, m := range s.materials {
			if m.ObjectType == objectType && sameSurface(m.Surface, surface) {
				return m, nil
			}
		}
	}

	name := surface.Type
	if n := s.names[surface.Type]; n > 0 {
		name = fmt.Sprintf("%s.%03d", surface.Type, n)
	}
	s.names[surface.Type]++

	m := &Material{
		Name:       name,
		ObjectType: objectType,
		Surface:    surface,
		Color:      FeatureColor(objectType, surface.Type),
	}
	s.materials = append(s.materials, m)
	return m, nil
}

func sameSurface(a, b cityjson.SemanticSurface) bool {
	return a.Type == b.Type && cityjson.Map(a.Attributes).Equal(cityjson.Map(b.Attributes))
}
