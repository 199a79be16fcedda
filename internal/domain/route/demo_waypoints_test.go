package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoWaypointsDeterministic(t *testing.T) {
	center := Coordinate{Lat: 41.3874, Lon: 2.1686}

	first := DemoWaypoints(center)
	second := DemoWaypoints(center)

	require.Len(t, first, 8)
	assert.Equal(t, first, second)
}

func TestDemoWaypointsTranslate(t *testing.T) {
	a := DemoWaypoints(Coordinate{Lat: 10, Lon: 20})
	b := DemoWaypoints(Coordinate{Lat: 11, Lon: 22})

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Name, b[i].Name)
		assert.Equal(t, a[i].Category, b[i].Category)
		assert.InDelta(t, a[i].Location.Lat+1, b[i].Location.Lat, 1e-9)
		assert.InDelta(t, a[i].Location.Lon+2, b[i].Location.Lon, 1e-9)
	}
}

func TestDemoWaypointsCategoriesValid(t *testing.T) {
	for _, wp := range DemoWaypoints(DefaultDemoCenter) {
		assert.True(t, wp.Category.IsValid(), "waypoint %q has invalid category %q", wp.Name, wp.Category)
		assert.NotEmpty(t, wp.Name)
		assert.NoError(t, wp.Location.Validate())
	}
}
