// Package geo holds the flat-earth approximations the rover uses to turn a
// pair of GPS fixes into a distance and a compass bearing. Fixes are in
// degree+minute form, as reported by the localisation source.
package geo

import (
	"math"

	"github.com/quartercastle/vector"
)

const (
	EarthCircumference = 40075000.0 // metres
	EarthRadius        = 6371000.0  // metres
)

// Position is anything that reports a latitude/longitude in degrees and
// minutes.
type Position interface {
	Lat() (deg, min float64)
	Lon() (deg, min float64)
}

func DegreeToRadian(deg, min float64) float64 {
	return (math.Pi / 180) * (deg + min/60)
}

func RadianToDegree(rad float64) float64 {
	return rad * 180 / math.Pi
}

func radians(p Position) (lat, lon float64) {
	lat = DegreeToRadian(p.Lat())
	lon = DegreeToRadian(p.Lon())
	return
}

// displacement is the (north, east) offset in metres from start to dest.
func displacement(start, dest Position) vector.Vector {
	startLat, startLon := radians(start)
	destLat, destLon := radians(dest)

	dLon := (destLon - startLon) * math.Cos((startLat+destLat)/2)
	return vector.Vector{(destLat - startLat) * EarthRadius, dLon * EarthRadius}
}

// EstimateNoneuclid approximates the ground distance in metres between two
// fixes. Good to well under a percent over the few hundred metres a course
// leg covers.
func EstimateNoneuclid(start, dest Position) float64 {
	return displacement(start, dest).Magnitude()
}

// CalcBearing returns the compass bearing in degrees, [0, 360), from start
// to dest.
func CalcBearing(start, dest Position) float64 {
	startLat, startLon := radians(start)
	destLat, destLon := radians(dest)

	northComponent := EarthRadius * math.Sin(destLat-startLat)
	dist := EstimateNoneuclid(start, dest)

	// Due east or west: acos is ill-conditioned here and undefined when
	// the fixes coincide.
	if northComponent < 0.001 && northComponent > -0.001 {
		if startLon < destLon {
			return 90
		}
		return 270
	}

	bearing := math.Acos(math.Max(-1, math.Min(1, northComponent/dist)))
	if startLon > destLon {
		bearing = 2*math.Pi - bearing
	}
	deg := RadianToDegree(bearing)
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// LongMeterInMinutes is the number of longitude minutes per metre east at
// the given latitude.
func LongMeterInMinutes(latDeg, latMin float64) float64 {
	return 60 / (EarthCircumference * math.Cos(DegreeToRadian(latDeg, latMin)) / 360)
}
