package scene

import (
	"strconv"
	"strings"
)

// featureColors holds the display colour per construction and element or
// surface type, as hex RGB.
var featureColors = map[string]map[string]string{
	"Building": {
		"Building":                "#ffffff",
		"BuildingPart":            "#ffffff",
		"BuildingInstallation":    "#ae825a",
		"IntBuildingInstallation": "#ae825a",
		"RoofSurface":             "#9c4444",
		"WallSurface":             "#ffed75",
		"GroundSurface":           "#815317",
		"ClosureSurface":          "#ffffff",
		"FloorSurface":            "#ffffff",
		"OuterFloorSurface":       "#854c7b",
		"CeilingSurface":          "#ffffff",
		"OuterCeilingSurface":     "#7e7d54",
		"Door":                    "#4d4de8",
		"Window":                  "#80c7c8",
		"Room":                    "#ffffff",
		"BuildingFurniture":       "#ffffff",
	},
	"Bridge": {
		"Bridge":                    "#a77600",
		"BridgePart":                "#ffffff",
		"BridgeInstallation":        "#ffffff",
		"IntBridgeInstallation":     "#7e7d54",
		"BridgeConstructionElement": "#7737ae",
		"RoofSurface":               "#ffffff",
		"WallSurface":               "#ffffff",
		"GroundSurface":             "#ffffff",
		"ClosureSurface":            "#ffffff",
		"FloorSurface":              "#ffffff",
		"OuterFloorSurface":         "#ffffff",
		"InteriorWallSurface":       "#ffffff",
		"CeilingSurface":            "#ffffff",
		"OuterCeilingSurface":       "#ffffff",
		"Door":                      "#ffffff",
		"Window":                    "#ffffff",
		"BridgeRoom":                "#ffffff",
		"BridgeFurniture":           "#ffffff",
	},
}

// construction groups CityObject types that share a palette: a BuildingPart
// or BuildingInstallation is coloured like a Building.
func construction(objectType string) string {
	for _, c := range []string{"Building", "Bridge"} {
		if strings.HasPrefix(objectType, c) || strings.HasPrefix(objectType, "Int"+c) {
			return c
		}
	}
	return ""
}

// FeatureColor is the display colour of a semantic surface on an object of
// objectType. Types outside the catalog fall back to SurfaceColor.
func FeatureColor(objectType, surfaceType string) Color {
	if hex, ok := featureColors[construction(objectType)][surfaceType]; ok {
		if c, ok := parseHex(hex); ok {
			return c
		}
	}
	return SurfaceColor(surfaceType)
}

func parseHex(s string) (Color, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, false
	}
	var c Color
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(s[2*i:2*i+2], 16, 8)
		if err != nil {
			return Color{}, false
		}
		c[i] = float64(v) / 255
	}
	c[3] = 1
	return c, true
}
