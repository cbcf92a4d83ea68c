package domain

import "math"

// compassPoints is the 16-point rose in clockwise order from north.
var compassPoints = [...]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassFromDegrees converts a bearing in degrees to its 16-point compass
// label, e.g. 293 -> "WNW".
func CompassFromDegrees(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/22.5)) % len(compassPoints)
	return compassPoints[idx]
}

// DegreesFromCompass converts a 16-point compass label to its center
// bearing. The second return is false for unrecognized labels.
func DegreesFromCompass(label string) (float64, bool) {
	for i, p := range compassPoints {
		if p == label {
			return float64(i) * 22.5, true
		}
	}
	return 0, false
}

// angularDistance returns the smallest angle between two bearings, 0-180.
func angularDistance(a, b float64) float64 {
	d := math.Abs(math.Mod(a-b, 360))
	if d > 180 {
		d = 360 - d
	}
	return d
}
