package route

import (
	"fmt"
	"math"
)

// Coordinate is an immutable geographic point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the coordinate lies within WGS84 bounds.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return NewValidationError(fmt.Sprintf("latitude out of range [-90, 90]: %v", c.Lat))
	}
	if c.Lon < -180 || c.Lon > 180 {
		return NewValidationError(fmt.Sprintf("longitude out of range [-180, 180]: %v", c.Lon))
	}
	return nil
}

// DistanceKm returns the haversine distance to other in kilometers.
func (c Coordinate) DistanceKm(other Coordinate) float64 {
	const earthRadiusKm = 6371.0

	dLat := degreesToRadians(other.Lat - c.Lat)
	dLon := degreesToRadians(other.Lon - c.Lon)

	lat1Rad := degreesToRadians(c.Lat)
	lat2Rad := degreesToRadians(other.Lat)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	ch := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * ch
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
