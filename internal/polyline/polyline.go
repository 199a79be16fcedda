// Package polyline implements the Google Encoded Polyline Algorithm Format
// used for route geometry on the wire. Coordinates are carried as deltas in
// fixed-point with five decimal places of precision.
package polyline

import (
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/domain/route"
)

const scale = 1e5

// Decode unpacks an encoded polyline into coordinates. A malformed or
// truncated tail yields the successfully decoded prefix rather than an
// error, so a partial payload still renders as a partial path.
func Decode(encoded string) []route.Coordinate {
	coords := make([]route.Coordinate, 0, len(encoded)/4)

	var lat, lon int
	i := 0
	for i < len(encoded) {
		dLat, next, ok := decodeDelta(encoded, i)
		if !ok {
			break
		}
		dLon, after, ok := decodeDelta(encoded, next)
		if !ok {
			break
		}
		lat += dLat
		lon += dLon
		coords = append(coords, route.Coordinate{
			Lat: float64(lat) / scale,
			Lon: float64(lon) / scale,
		})
		i = after
	}
	return coords
}

// decodeDelta reads one zigzag-encoded value starting at index i. Each byte
// carries five payload bits; bit 0x20 marks a continuation. ok is false when
// the chunk ends before a terminating byte arrives.
func decodeDelta(encoded string, i int) (delta, next int, ok bool) {
	var result, shift uint
	for {
		if i >= len(encoded) {
			return 0, i, false
		}
		b := int(encoded[i]) - 63
		i++
		if b < 0 {
			return 0, i, false
		}
		result |= uint(b&0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		delta = int(^(result >> 1))
	} else {
		delta = int(result >> 1)
	}
	return delta, i, true
}

// Encode packs coordinates into the polyline wire format. It is the exact
// inverse of Decode for coordinates on the five-decimal grid.
func Encode(coords []route.Coordinate) string {
	out := make([]byte, 0, len(coords)*8)

	var prevLat, prevLon int
	for _, c := range coords {
		lat := roundFixed(c.Lat)
		lon := roundFixed(c.Lon)
		out = encodeDelta(out, lat-prevLat)
		out = encodeDelta(out, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return string(out)
}

func encodeDelta(out []byte, delta int) []byte {
	v := uint(delta) << 1
	if delta < 0 {
		v = ^v
	}
	for v >= 0x20 {
		out = append(out, byte(0x20|(v&0x1f))+63)
		v >>= 5
	}
	return append(out, byte(v)+63)
}

func roundFixed(deg float64) int {
	if deg < 0 {
		return int(deg*scale - 0.5)
	}
	return int(deg*scale + 0.5)
}
