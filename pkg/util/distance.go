package util

import (
	"math"
)

const earthRadiusKm = 6371.0 // Earth's radius in kilometers

// HaversineKm calculates the great-circle distance between two geographic
// points using the haversine formula.
// Parameters: lat1, lon1, lat2, lon2 in degrees
// Returns: distance in kilometers, full precision (rounding is a display concern)
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := degToRad(lat1)
	lat2Rad := degToRad(lat2)
	dLat := degToRad(lat2 - lat1)
	dLon := degToRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// RoundKm rounds a distance to 2 decimal places for display.
// Ranking must happen on the unrounded value first.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// degToRad converts degrees to radians
func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
