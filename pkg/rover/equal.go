package rover

// ObstaclesEqual compares bearing and distance only.
func ObstaclesEqual(a, b Obstacle) bool {
	return a.Bearing == b.Bearing && a.Distance == b.Distance
}

// OdometriesEqual compares position and heading; speed is ignored.
func OdometriesEqual(a, b Odometry) bool {
	return a.LatitudeDeg == b.LatitudeDeg &&
		a.LatitudeMin == b.LatitudeMin &&
		a.LongitudeDeg == b.LongitudeDeg &&
		a.LongitudeMin == b.LongitudeMin &&
		a.BearingDeg == b.BearingDeg
}

// TargetsEqual compares distance and bearing. Two sightings of different
// posts at the same place are the same observation.
func TargetsEqual(a, b Target) bool {
	return a.Distance == b.Distance && a.Bearing == b.Bearing
}
