package polyline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/domain/route"
)

const canonicalEncoded = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var canonicalCoords = []route.Coordinate{
	{Lat: 38.5, Lon: -120.2},
	{Lat: 40.7, Lon: -120.95},
	{Lat: 43.252, Lon: -126.453},
}

func TestDecodeCanonicalVector(t *testing.T) {
	got := Decode(canonicalEncoded)

	require.Len(t, got, len(canonicalCoords))
	for i, want := range canonicalCoords {
		assert.InDelta(t, want.Lat, got[i].Lat, 1e-9, "lat %d", i)
		assert.InDelta(t, want.Lon, got[i].Lon, 1e-9, "lon %d", i)
	}
}

func TestDecodeEmpty(t *testing.T) {
	got := Decode("")

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDecodeTruncatedReturnsPrefix(t *testing.T) {
	tests := []struct {
		name    string
		cut     int
		wantLen int
	}{
		{name: "mid first longitude", cut: 7, wantLen: 0},
		{name: "after first pair", cut: 10, wantLen: 1},
		{name: "mid third latitude", cut: 20, wantLen: 2},
		{name: "mid third longitude", cut: 25, wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(canonicalEncoded[:tt.cut])

			require.Len(t, got, tt.wantLen)
			for i := range got {
				assert.InDelta(t, canonicalCoords[i].Lat, got[i].Lat, 1e-9)
				assert.InDelta(t, canonicalCoords[i].Lon, got[i].Lon, 1e-9)
			}
		})
	}
}

func TestDecodeIsPure(t *testing.T) {
	first := Decode(canonicalEncoded)
	second := Decode(canonicalEncoded)

	assert.Equal(t, first, second)
}

func TestEncodeCanonicalVector(t *testing.T) {
	assert.Equal(t, canonicalEncoded, Encode(canonicalCoords))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	coords := []route.Coordinate{
		{Lat: 38.70770, Lon: -9.13660},
		{Lat: 38.71030, Lon: -9.13320},
		{Lat: 0, Lon: 0},
		{Lat: -33.86880, Lon: 151.20930},
		{Lat: 89.99999, Lon: -179.99999},
	}

	got := Decode(Encode(coords))

	require.Len(t, got, len(coords))
	for i, want := range coords {
		assert.InDelta(t, want.Lat, got[i].Lat, 1e-9, "lat %d", i)
		assert.InDelta(t, want.Lon, got[i].Lon, 1e-9, "lon %d", i)
	}
}

func TestDecodeNegativeDeltas(t *testing.T) {
	// Smallest representable step in both axes, heading south-west.
	got := Decode("@@")

	require.Len(t, got, 1)
	assert.InDelta(t, -0.00001, got[0].Lat, 1e-9)
	assert.InDelta(t, -0.00001, got[0].Lon, 1e-9)
}

func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, "", Encode(nil))
}
