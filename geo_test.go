package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	assert := assert.New(t)

	amsterdam := Coordinate{Lat: 52.370, Lon: 4.895}
	assert.InDelta(0, amsterdam.DistanceKm(amsterdam), 1e-6)

	// Amsterdam centre to a point near Almere, roughly 16 km.
	almere := Coordinate{Lat: 52.500, Lon: 5.000}
	d := amsterdam.DistanceKm(almere)
	assert.Greater(d, 5.0)
	assert.Less(d, 25.0)

	// Symmetry.
	assert.InDelta(d, almere.DistanceKm(amsterdam), 1e-9)

	// Amsterdam to Paris is about 430 km.
	paris := Coordinate{Lat: 48.857, Lon: 2.352}
	assert.InDelta(430, amsterdam.DistanceKm(paris), 15)
}
