package projection

import (
	"math"
	"strconv"
)

// Vec3 is a point in the globe's Cartesian frame.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Length returns the Euclidean norm of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Project maps a geographic coordinate onto the surface of a sphere of
// the given radius, north pole at +Y. The result always lies exactly on
// the sphere; inputs are not clamped or validated.
func Project(lat, lon, radius float64) Vec3 {
	phi := (90 - lat) * math.Pi / 180
	theta := (lon + 180) * math.Pi / 180
	return Vec3{
		X: -(radius * math.Sin(phi) * math.Cos(theta)),
		Y: radius * math.Cos(phi),
		Z: radius * math.Sin(phi) * math.Sin(theta),
	}
}

// ParseCoordinate parses latitude/longitude strings. ok is false when
// either value does not parse or is not finite; callers skip such rows.
func ParseCoordinate(latStr, lonStr string) (lat, lon float64, ok bool) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, false
	}
	if !Finite(lat) || !Finite(lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

// Finite reports whether f is neither NaN nor infinite.
func Finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
