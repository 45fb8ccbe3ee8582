package geospatial

import "math"

// CompassLabel is a human-readable name for a bearing sector.
type CompassLabel struct {
	Name string `json:"name"`
	Abbr string `json:"abbr"`
}

const sectorDegrees = 360.0 / 32

// The 32-point compass rose in clockwise order starting at true north.
// Major points, by-points, and half-points, each covering 11.25 degrees.
var compassRose = [32]CompassLabel{
	{"North", "N"},
	{"North by east", "NbE"},
	{"North-northeast", "NNE"},
	{"Northeast by north", "NEbN"},
	{"Northeast", "NE"},
	{"Northeast by east", "NEbE"},
	{"East-northeast", "ENE"},
	{"East by north", "EbN"},
	{"East", "E"},
	{"East by south", "EbS"},
	{"East-southeast", "ESE"},
	{"Southeast by east", "SEbE"},
	{"Southeast", "SE"},
	{"Southeast by south", "SEbS"},
	{"South-southeast", "SSE"},
	{"South by east", "SbE"},
	{"South", "S"},
	{"South by west", "SbW"},
	{"South-southwest", "SSW"},
	{"Southwest by south", "SWbS"},
	{"Southwest", "SW"},
	{"Southwest by west", "SWbW"},
	{"West-southwest", "WSW"},
	{"West by south", "WbS"},
	{"West", "W"},
	{"West by north", "WbN"},
	{"West-northwest", "WNW"},
	{"Northwest by west", "NWbW"},
	{"Northwest", "NW"},
	{"Northwest by north", "NWbN"},
	{"North-northwest", "NNW"},
	{"North by west", "NbW"},
}

// Classify maps a bearing in degrees (any real number) to the nearest of the
// 32 compass points. With reverse set, the opposite bearing is classified,
// describing direction from the target back toward the observer.
//
// The sector whose center lies closest to the normalized bearing wins; on an
// exact tie the lower-indexed (more northerly/clockwise-earlier) sector is
// kept, so every input resolves to exactly one label.
func Classify(bearingDegrees float64, reverse bool) CompassLabel {
	d := bearingDegrees
	if reverse {
		d += 180
	}
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}

	best := 0
	bestDist := math.Inf(1)
	for i := range compassRose {
		center := float64(i) * sectorDegrees
		dist := math.Abs(d - center)
		if dist > 180 {
			dist = 360 - dist
		}
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return compassRose[best]
}
