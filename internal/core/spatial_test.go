package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"intel_service/internal/domain/model"
)

func TestHaversine(t *testing.T) {
	delhi := model.Coordinates{Lat: 28.6139, Lng: 77.2090}
	mumbai := model.Coordinates{Lat: 19.0760, Lng: 72.8777}

	d := Haversine{}.Distance(delhi, mumbai)
	assert.InDelta(t, 1150, d, 15)
	assert.Zero(t, Haversine{}.Distance(delhi, delhi))

	// one degree of latitude
	assert.InDelta(t, 111.195, Haversine{}.Distance(model.Coordinates{}, model.Coordinates{Lat: 1}), 1e-3)
}

func TestInterpolate(t *testing.T) {
	from := model.Coordinates{}
	to := model.Coordinates{Lat: 5}

	assert.Equal(t, model.Coordinates{Lat: 1}, interpolate(from, to, 5, 1))
	assert.Equal(t, to, interpolate(from, to, 5, 7))
	assert.Equal(t, to, interpolate(to, to, 0, 1))
}

func TestRingPositions(t *testing.T) {
	center := model.Coordinates{Lat: 28.6139, Lng: 77.2090}
	points := ringPositions(center, 6, 2)
	assert.Len(t, points, 6)
	for _, p := range points {
		assert.InDelta(t, 2, Haversine{}.Distance(center, p), 0.01)
	}
	assert.Empty(t, ringPositions(center, 0, 2))
}

func TestMeanNearestDistance(t *testing.T) {
	points := []model.Coordinates{{Lat: 0}, {Lat: 10}}
	refs := []model.Coordinates{{Lat: 1}, {Lat: 7}}
	assert.InDelta(t, 2, meanNearestDistance(Planar{}, points, refs), 1e-12)
	assert.Zero(t, meanNearestDistance(Planar{}, points, nil))
}
