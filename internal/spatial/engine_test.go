package spatial

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukpostcodes/internal/corpus"
	"github.com/ukpostcodes/internal/corpus/corpustest"
)

const (
	queryLat = 51.5014
	queryLon = -0.1419
)

func names(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Record.Postcode)
	}
	return out
}

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"one degree on the equator", 0, 0, 0, 1, 111.1949},
		{"SW1A 1AA to E3 4SS", 51.501009, -0.141588, 51.5403, -0.026, 9.1130},
		{"across the antimeridian", 0, 179.5, 0, -179.5, 111.1949},
		{"pole to pole", 90, 0, -90, 0, math.Pi * EarthRadiusKm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2), 0.001)
		})
	}
}

func TestHaversineProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		lat1, lon1 := rng.Float64()*180-90, rng.Float64()*360-180
		lat2, lon2 := rng.Float64()*180-90, rng.Float64()*360-180

		d := Haversine(lat1, lon1, lat2, lon2)
		assert.Equal(t, d, Haversine(lat2, lon2, lat1, lon1), "symmetric")
		assert.Positive(t, d)
		assert.LessOrEqual(t, d, math.Pi*EarthRadiusKm+1e-9)
		assert.Zero(t, Haversine(lat1, lon1, lat1, lon1))
	}

	next := math.Nextafter(10, 11)
	d := Haversine(10, 10, 10, next)
	assert.Positive(t, d)
	assert.Equal(t, d, Haversine(10, next, 10, 10))

	// the angle underflows to zero but the points differ
	assert.Equal(t, math.SmallestNonzeroFloat64, Haversine(0, 0, 0, math.SmallestNonzeroFloat64))
}

func TestNearest(t *testing.T) {
	e := NewEngine(corpustest.Records())
	assert.Equal(t, 6, e.Len())

	got := e.Nearest(queryLat, queryLon, 2, 3)
	assert.Equal(t, []string{"SW1A 1AA", "SW1P 3AD", "SW1E 6LA"}, names(got))
	assert.InDelta(t, 0.0485, got[0].DistanceKm, 0.0001)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistanceKm, got[i].DistanceKm)
	}

	got = e.Nearest(queryLat, queryLon, 10, 10)
	assert.Equal(t, []string{"SW1A 1AA", "SW1P 3AD", "SW1E 6LA", "N1 9AA", "E3 4SS"}, names(got))

	got = e.Nearest(queryLat, queryLon, 10, 2)
	assert.Equal(t, []string{"SW1A 1AA", "SW1P 3AD"}, names(got))

	assert.Empty(t, e.Nearest(queryLat, queryLon, 0.001, 10))
}

func TestNearestGuards(t *testing.T) {
	e := NewEngine(corpustest.Records())
	assert.Empty(t, e.Nearest(91, 0, 10, 10))
	assert.Empty(t, e.Nearest(0, 181, 10, 10))
	assert.Empty(t, e.Nearest(math.NaN(), 0, 10, 10))
	assert.Empty(t, e.Nearest(queryLat, queryLon, -1, 10))
	assert.Empty(t, e.Nearest(queryLat, queryLon, math.NaN(), 10))
	assert.Empty(t, e.Nearest(queryLat, queryLon, 10, 0))

	var nilEngine *Engine
	assert.Empty(t, nilEngine.Nearest(queryLat, queryLon, 10, 10))
}

func TestNearestTiesBreakByPostcode(t *testing.T) {
	at := func(pc string) corpus.Record {
		return corpus.Record{Postcode: pc, Coordinates: &corpus.Coordinates{Latitude: 50, Longitude: 0}}
	}
	e := NewEngine([]corpus.Record{at("ZZ1 1AA"), at("AB1 1AA"), at("M1 1AA")})

	got := e.Nearest(50, 0, 1, 2)
	assert.Equal(t, []string{"AB1 1AA", "M1 1AA"}, names(got))
	assert.Zero(t, got[0].DistanceKm)
}

func TestNearestTiesUseSpacedPostcode(t *testing.T) {
	at := func(pc string) corpus.Record {
		return corpus.Record{Postcode: pc, Coordinates: &corpus.Coordinates{Latitude: 51.5, Longitude: -0.1}}
	}
	e := NewEngine([]corpus.Record{at("E11 1AA"), at("E1 1AA")})

	assert.Equal(t, []string{"E1 1AA", "E11 1AA"}, names(e.Nearest(51.5, -0.1, 1, 2)))
	assert.Equal(t, []string{"E1 1AA"}, names(e.Nearest(51.5, -0.1, 1, 1)))
}

func TestReverseGeocode(t *testing.T) {
	e := NewEngine(corpustest.Records())

	got, ok := e.ReverseGeocode(queryLat, queryLon)
	require.True(t, ok)
	assert.Equal(t, "SW1A 1AA", got.Record.Postcode)

	// far from every point, still answered
	got, ok = e.ReverseGeocode(-45, 170)
	require.True(t, ok)
	assert.NotEmpty(t, got.Record.Postcode)

	_, ok = e.ReverseGeocode(100, 0)
	assert.False(t, ok)

	_, ok = NewEngine(nil).ReverseGeocode(queryLat, queryLon)
	assert.False(t, ok)
}

func TestDistance(t *testing.T) {
	records := corpustest.Records()
	d, ok := Distance(records[0], records[3])
	require.True(t, ok)
	assert.InDelta(t, 9.113, d, 0.001)

	d2, _ := Distance(records[3], records[0])
	assert.Equal(t, d, d2)

	_, ok = Distance(records[0], records[6])
	assert.False(t, ok, "EC1R 1UB has no coordinates")
}

func TestLoad(t *testing.T) {
	e, err := Load(context.Background(), corpustest.Memory(), nil)
	require.NoError(t, err)
	assert.Equal(t, 6, e.Len())

	_, err = Load(context.Background(), corpustest.Broken{}, nil)
	assert.ErrorIs(t, err, corpus.ErrUnavailable)
}

// Pruning by bounding box must never change the answer.
func TestPrunedMatchesFullScan(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	var records []corpus.Record
	for i := 0; i < 3000; i++ {
		lat := rng.Float64()*180 - 90
		lon := rng.Float64()*360 - 180
		if i%3 == 0 {
			// cluster around the UK
			lat = 49 + rng.Float64()*12
			lon = -8 + rng.Float64()*10
		}
		records = append(records, corpus.Record{
			Postcode:    fmt.Sprintf("P%05d", i),
			Coordinates: &corpus.Coordinates{Latitude: lat, Longitude: lon},
		})
	}
	e := NewEngine(records)

	queries := [][2]float64{{89.9, 0}, {-89.5, 45}, {0, 179.99}, {60, -179.9}, {51.5, -0.14}}
	for i := 0; i < 300; i++ {
		queries = append(queries, [2]float64{rng.Float64()*180 - 90, rng.Float64()*360 - 180})
	}

	radii := []float64{0, 1, 25, 50, 300, 2500, 15000}
	for _, q := range queries {
		for _, r := range radii {
			pruned := e.nearest(q[0], q[1], r, 25, true)
			full := e.nearest(q[0], q[1], r, 25, false)
			require.Equal(t, names(full), names(pruned), "query %v radius %v", q, r)
		}
	}
}

func TestBoundingBoxContainsCircle(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		lat := rng.Float64()*170 - 85
		lon := rng.Float64()*360 - 180
		r := rng.Float64() * 500
		b := boundingBox(lat, lon, r)

		// walk the circle's edge
		for k := 0; k < 16; k++ {
			bearing := float64(k) * math.Pi / 8
			plat, plon := destination(lat, lon, bearing, r*0.999999)
			require.True(t, b.contains(plat, plon), "centre %v,%v radius %v", lat, lon, r)
		}
	}
}

func destination(lat, lon, bearing, km float64) (float64, float64) {
	δ := km / EarthRadiusKm
	φ1, λ1 := radians(lat), radians(lon)
	φ2 := math.Asin(math.Sin(φ1)*math.Cos(δ) + math.Cos(φ1)*math.Sin(δ)*math.Cos(bearing))
	λ2 := λ1 + math.Atan2(math.Sin(bearing)*math.Sin(δ)*math.Cos(φ1), math.Cos(δ)-math.Sin(φ1)*math.Sin(φ2))
	lon2 := math.Mod(λ2*180/math.Pi+540, 360) - 180
	return φ2 * 180 / math.Pi, lon2
}
