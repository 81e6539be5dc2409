package activity

import "math"

const earthRadiusKm = 6371

type Coordinate struct {
	Lat float64
	Lon float64
}

// DistanceKm is the great-circle distance to other, spherical law of
// cosines. Precise enough for radius filtering; antipodal rounding
// errors do not matter at city scale.
func (c Coordinate) DistanceKm(other Coordinate) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dlon := (other.Lon - c.Lon) * math.Pi / 180

	cosine := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dlon)
	// Clamp: rounding can push the cosine just outside [-1, 1].
	if cosine > 1 {
		cosine = 1
	} else if cosine < -1 {
		cosine = -1
	}
	return earthRadiusKm * math.Acos(cosine)
}
