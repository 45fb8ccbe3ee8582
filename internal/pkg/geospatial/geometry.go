// Package geospatial holds the coordinate math behind proximity queries:
// distances, bearings, compass labels, and bounding-box prefilters.
//
// Distances use an equirectangular approximation tuned for intra-metro
// scale. It is not accurate near the poles or at intercontinental range;
// treat results as valid for separations under about 100 miles.
package geospatial

import (
	"math"

	"github.com/jcroft/spots/internal/core/domain"
)

const (
	// MilesPerDegree is the north-south span of one degree of latitude.
	MilesPerDegree = 69.04

	// boxMilesPerDegree is the cruder uniform conversion used for bounding
	// boxes. Boxes are a coarse prefilter, never an authoritative distance.
	boxMilesPerDegree = 69.0

	// MaxCompassMiles is the range beyond which a compass label is
	// meaningless and suppressed rather than approximated.
	MaxCompassMiles = 100.0

	degToRad = math.Pi / 180.0
)

// DistanceMiles returns the approximate distance in miles between two
// coordinates. North-south miles come straight from the latitude delta;
// east-west miles scale the longitude delta by the averaged cosines of both
// latitudes; the two are combined Euclidean-style.
func DistanceMiles(a, b domain.Coordinate) float64 {
	y := (b.Lat - a.Lat) * MilesPerDegree
	x := (math.Cos(a.Lat*degToRad) + math.Cos(b.Lat*degToRad)) *
		(b.Lng - a.Lng) * (MilesPerDegree / 2)
	return math.Sqrt(y*y + x*x)
}

// InitialBearing returns the initial great-circle bearing in degrees from
// one coordinate to another, normalized into [0, 360). 0 is north,
// increasing clockwise.
func InitialBearing(from, to domain.Coordinate) float64 {
	phi1 := from.Lat * degToRad
	phi2 := to.Lat * degToRad
	dLng := (to.Lng - from.Lng) * degToRad

	y := math.Sin(dLng) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLng)

	return math.Mod(math.Atan2(y, x)/degToRad+360, 360)
}

// BoundingBox returns a four-corner box around center extending radiusMiles
// in each direction, treating one degree as a uniform 69 miles on both axes.
func BoundingBox(center domain.Coordinate, radiusMiles float64) domain.Bounds {
	delta := radiusMiles / boxMilesPerDegree
	return domain.Bounds{
		NW: domain.Coordinate{Lat: center.Lat + delta, Lng: center.Lng - delta},
		NE: domain.Coordinate{Lat: center.Lat + delta, Lng: center.Lng + delta},
		SW: domain.Coordinate{Lat: center.Lat - delta, Lng: center.Lng - delta},
		SE: domain.Coordinate{Lat: center.Lat - delta, Lng: center.Lng + delta},
	}
}

// CompassDirection returns the compass label for the bearing from one
// coordinate to another, or nil when the points are 100 miles or more apart.
// With reverse set, the label describes the direction from the target back
// toward the observer.
func CompassDirection(from, to domain.Coordinate, reverse bool) *CompassLabel {
	if DistanceMiles(from, to) >= MaxCompassMiles {
		return nil
	}
	label := Classify(InitialBearing(from, to), reverse)
	return &label
}
