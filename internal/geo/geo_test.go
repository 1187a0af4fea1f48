package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	tests := map[string]struct {
		aLat, aLng float64
		bLat, bLng float64
		expMeters  float64
		tolerance  float64
	}{
		"Same point is zero": {
			aLat: 25.0, aLng: 121.0,
			bLat: 25.0, bLng: 121.0,
			expMeters: 0, tolerance: 0.001,
		},
		"Adjacent fixes a few meters apart": {
			aLat: 25.0000, aLng: 121.0000,
			bLat: 25.0001, bLng: 121.0001,
			expMeters: 15.7, tolerance: 0.3,
		},
		"One degree of latitude": {
			aLat: 25.0, aLng: 121.0,
			bLat: 26.0, bLng: 121.0,
			expMeters: 111195, tolerance: 200,
		},
		"Taipei to Kaohsiung": {
			aLat: 25.0330, aLng: 121.5654,
			bLat: 22.6273, bLng: 120.3014,
			expMeters: 295000, tolerance: 5000,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := DistanceMeters(test.aLat, test.aLng, test.bLat, test.bLng)
			assert.InDelta(t, test.expMeters, got, test.tolerance)
		})
	}
}

func TestDistanceMetersSymmetry(t *testing.T) {
	pairs := [][4]float64{
		{25.0, 121.0, 25.0001, 121.0001},
		{-33.8688, 151.2093, 51.5074, -0.1278},
		{0, 0, 0, 180},
		{89.9, 10, -89.9, -170},
	}

	for _, p := range pairs {
		ab := DistanceMeters(p[0], p[1], p[2], p[3])
		ba := DistanceMeters(p[2], p[3], p[0], p[1])
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

func TestDistanceMetersNaNPropagates(t *testing.T) {
	got := DistanceMeters(math.NaN(), 121.0, 25.0, 121.0)
	assert.True(t, math.IsNaN(got))

	got = DistanceMeters(25.0, 121.0, 25.0, math.NaN())
	assert.True(t, math.IsNaN(got))
}

func TestPositionValid(t *testing.T) {
	tests := map[string]struct {
		pos      Position
		expValid bool
	}{
		"Well formed":       {Position{Lat: 25, Lng: 121}, true},
		"Boundary values":   {Position{Lat: -90, Lng: 180}, true},
		"NaN latitude":      {Position{Lat: math.NaN(), Lng: 121}, false},
		"Infinite lng":      {Position{Lat: 25, Lng: math.Inf(1)}, false},
		"Out of range lat":  {Position{Lat: 91, Lng: 0}, false},
		"Out of range lng":  {Position{Lat: 0, Lng: -181}, false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expValid, test.pos.Valid())
		})
	}
}
