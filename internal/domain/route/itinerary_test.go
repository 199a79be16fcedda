package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripPayloadValidate(t *testing.T) {
	valid := TripPayload{
		Destination: "Barcelona",
		Center:      Coordinate{Lat: 41.3874, Lon: 2.1686},
		Days:        4,
	}

	tests := []struct {
		name    string
		mutate  func(p *TripPayload)
		wantErr bool
	}{
		{"valid payload", func(p *TripPayload) {}, false},
		{"missing destination", func(p *TripPayload) { p.Destination = "" }, true},
		{"latitude out of range", func(p *TripPayload) { p.Center.Lat = 91 }, true},
		{"longitude out of range", func(p *TripPayload) { p.Center.Lon = -181 }, true},
		{"zero days", func(p *TripPayload) { p.Days = 0 }, true},
		{"too many days", func(p *TripPayload) { p.Days = 31 }, true},
		{"single day trip", func(p *TripPayload) { p.Days = 1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := valid
			tt.mutate(&payload)
			err := payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.IsType(t, &ValidationError{}, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCoordinateDistanceKm(t *testing.T) {
	kualaLumpur := Coordinate{Lat: 3.139, Lon: 101.6869}
	singapore := Coordinate{Lat: 1.3521, Lon: 103.8198}

	d := kualaLumpur.DistanceKm(singapore)
	// Great-circle distance is roughly 309 km.
	assert.InDelta(t, 309, d, 5)

	assert.Zero(t, kualaLumpur.DistanceKm(kualaLumpur))
}
