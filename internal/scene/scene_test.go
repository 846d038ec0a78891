package scene

import (
	"errors"
	"testing"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
	"github.com/mohammed-shakir/cityjson-codec/internal/codec"
)

func TestCreateObject_ParentMustExist(t *testing.T) {
	s := New(Options{})
	if _, err := s.CreateObject("child", "missing"); !errors.Is(err, ErrUnknownParent) {
		t.Fatalf("err=%v want ErrUnknownParent", err)
	}
	if _, err := s.CreateObject("a", ""); err != nil {
		t.Fatalf("CreateObject: %v", err)
	}
	if _, err := s.CreateObject("a", ""); !errors.Is(err, ErrDuplicateObject) {
		t.Fatalf("err=%v want ErrDuplicateObject", err)
	}
	if _, err := s.CreateObject("b", "a"); err != nil {
		t.Fatalf("CreateObject: %v", err)
	}
	if got := s.Object("a").Children; len(got) != 1 || got[0] != "b" {
		t.Fatalf("children=%v want [b]", got)
	}
}

func TestGetOrCreateMaterial_Policies(t *testing.T) {
	roof := cityjson.SemanticSurface{Type: "RoofSurface"}
	steep := cityjson.SemanticSurface{Type: "RoofSurface", Attributes: map[string]cityjson.Value{"slope": cityjson.Int(45)}}

	shared := New(Options{ReuseMaterials: true})
	h, _ := shared.CreateObject("b1", "")
	a, _ := shared.GetOrCreateMaterial(h, roof)
	b, _ := shared.GetOrCreateMaterial(h, roof)
	c, _ := shared.GetOrCreateMaterial(h, steep)
	if a != b {
		t.Fatalf("equal surfaces must share a material")
	}
	if a == c {
		t.Fatalf("different attributes must not share a material")
	}
	if got := c.(*Material).Name; got != "RoofSurface.001" {
		t.Fatalf("name=%q want RoofSurface.001", got)
	}

	basic := New(Options{})
	bh, _ := basic.CreateObject("b1", "")
	x, _ := basic.GetOrCreateMaterial(bh, roof)
	y, _ := basic.GetOrCreateMaterial(bh, roof)
	if x == y {
		t.Fatalf("basic policy must create a material per call")
	}
	if got := basic.Summary().Materials; len(got) != 2 || got[0] != "RoofSurface" || got[1] != "RoofSurface.001" {
		t.Fatalf("materials=%v", got)
	}
}

func TestSurfaceColor(t *testing.T) {
	if c := SurfaceColor("RoofSurface"); c != (Color{0.9, 0.057, 0.086, 1}) {
		t.Fatalf("roof=%v", c)
	}
	if c := SurfaceColor("ClosureSurface"); c != defaultColor {
		t.Fatalf("unknown type=%v want default", c)
	}
}

func TestFeatureColor_ByObjectType(t *testing.T) {
	cases := []struct {
		object, surface string
		want            Color
	}{
		{"Building", "RoofSurface", Color{0x9c / 255.0, 0x44 / 255.0, 0x44 / 255.0, 1}},
		{"BuildingPart", "OuterFloorSurface", Color{0x85 / 255.0, 0x4c / 255.0, 0x7b / 255.0, 1}},
		{"Bridge", "RoofSurface", Color{1, 1, 1, 1}},
		{"BridgeConstructionElement", "BridgeConstructionElement", Color{0x77 / 255.0, 0x37 / 255.0, 0xae / 255.0, 1}},
		{"CityFurniture", "RoofSurface", SurfaceColor("RoofSurface")},
		{"Building", "TrafficArea", defaultColor},
	}
	for _, c := range cases {
		if got := FeatureColor(c.object, c.surface); got != c.want {
			t.Fatalf("FeatureColor(%q, %q)=%v want %v", c.object, c.surface, got, c.want)
		}
	}
}

func TestGetOrCreateMaterial_ColoursByOwnerType(t *testing.T) {
	s := New(Options{ReuseMaterials: true})
	house, _ := s.CreateObject("house", "")
	_ = s.SetAttributes(house, map[string]cityjson.Value{"type": cityjson.String("Building")})
	bridge, _ := s.CreateObject("bridge", "")
	_ = s.SetAttributes(bridge, map[string]cityjson.Value{"type": cityjson.String("Bridge")})

	roof := cityjson.SemanticSurface{Type: "RoofSurface"}
	a, _ := s.GetOrCreateMaterial(house, roof)
	b, _ := s.GetOrCreateMaterial(bridge, roof)
	if a == b {
		t.Fatalf("objects of different types must not share a material")
	}
	if got := a.(*Material).Color; got != FeatureColor("Building", "RoofSurface") {
		t.Fatalf("building roof=%v", got)
	}
	if got := b.(*Material).Color; got != (Color{1, 1, 1, 1}) {
		t.Fatalf("bridge roof=%v", got)
	}

	if _, err := s.GetOrCreateMaterial(&Object{ID: "house"}, roof); !errors.Is(err, ErrForeignHandle) {
		t.Fatalf("err=%v want ErrForeignHandle", err)
	}
}

func TestExport_RoundTripsMeshes(t *testing.T) {
	s := New(Options{ReuseMaterials: true})
	h, _ := s.CreateObject("b1", "")
	_ = s.SetAttributes(h, map[string]cityjson.Value{"type": cityjson.String("Building")})
	wall, _ := s.GetOrCreateMaterial(h, cityjson.SemanticSurface{Type: "WallSurface"})
	_, err := s.CreateMesh(h, codec.Mesh{
		Name:          "0: [LoD1] b1",
		GeometryType:  cityjson.MultiSurface,
		LoD:           "1",
		Vertices:      []cityjson.Vertex{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		Faces:         [][]int{{0, 1, 2}},
		Materials:     []codec.MaterialHandle{wall},
		MaterialIndex: []int{0},
	})
	if err != nil {
		t.Fatalf("CreateMesh: %v", err)
	}

	out := s.Export()
	if len(out) != 1 || len(out[0].Meshes) != 1 {
		t.Fatalf("export=%+v", out)
	}
	m := out[0].Meshes[0]
	if m.GeometryType != "MultiSurface" || m.LoD != "1" {
		t.Fatalf("type=%q lod=%q", m.GeometryType, m.LoD)
	}
	if len(m.Materials) != 1 || m.Materials[0].Surface == nil || m.Materials[0].Surface.Type != "WallSurface" {
		t.Fatalf("materials=%+v", m.Materials)
	}

	sum := s.Summary()
	if sum.Objects != 1 || sum.Meshes != 1 || sum.Faces != 1 || sum.Vertices != 3 {
		t.Fatalf("summary=%+v", sum)
	}
}

func TestCreateMesh_ForeignHandle(t *testing.T) {
	a, b := New(Options{}), New(Options{})
	h, _ := a.CreateObject("x", "")
	if _, err := b.CreateMesh(h, codec.Mesh{}); !errors.Is(err, ErrForeignHandle) {
		t.Fatalf("err=%v want ErrForeignHandle", err)
	}
}

func TestReparent(t *testing.T) {
	s := New(Options{})
	_, _ = s.CreateObject("a", "")
	_, _ = s.CreateObject("b", "")
	_, _ = s.CreateObject("c", "a")
	if err := s.Reparent("c", "b"); err != nil {
		t.Fatalf("Reparent: %v", err)
	}
	if len(s.Object("a").Children) != 0 || s.Object("b").Children[0] != "c" || s.Object("c").ParentID != "b" {
		t.Fatalf("reparent did not move c")
	}
	if err := s.Reparent("c", ""); err != nil || len(s.Object("b").Children) != 0 {
		t.Fatalf("detach failed: %v", err)
	}
}
