package angle

import "math"

// Signed maps an angle of any magnitude into (-180, 180], the rotation
// that reaches it the short way.
func Signed(deg float64) float64 {
	d := Mod360(deg)
	if d > 180 {
		d -= 360
	}
	return d
}

// Mod360 normalises a bearing of any magnitude into [0, 360).
func Mod360(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// -1e-15 + 360 rounds to 360.
	if d >= 360 {
		d -= 360
	}
	return d
}

// ThroughZero adjusts destination by a full turn when it and current sit
// either side of north, so that destination-current is the short way round.
// Both inputs are expected in [0, 360); the result may be outside it.
func ThroughZero(destination, current float64) float64 {
	if math.Abs(current-destination) > 180 {
		if current < 180 {
			return destination - 360
		}
		return destination + 360
	}
	return destination
}
