// Package corpustest provides a small known directory for tests.
package corpustest

import (
	"context"
	"errors"

	"github.com/ukpostcodes/internal/corpus"
)

func intp(v int) *int { return &v }

func london(postcode string, lat, lon float64, east, north int, district, constituency, nhs string) corpus.Record {
	key := corpus.Key(postcode)
	return corpus.Record{
		Postcode: postcode,
		Outcode:  key[:len(key)-3],
		Incode:   key[len(key)-3:],
		Coordinates: &corpus.Coordinates{
			Latitude: lat, Longitude: lon,
			Eastings: intp(east), Northings: intp(north), Quality: intp(1),
		},
		Administrative: corpus.Administrative{
			Country:      "England",
			Region:       "London",
			County:       district,
			District:     district,
			Constituency: constituency,
		},
		Healthcare: corpus.Healthcare{HealthcareRegion: nhs},
	}
}

// Records returns the fixture: five central London postcodes with
// coordinates, one Edinburgh postcode and one record without coordinates.
func Records() []corpus.Record {
	return []corpus.Record{
		london("SW1A 1AA", 51.501009, -0.141588, 529090, 179645, "Westminster", "Cities of London and Westminster", "NHS North West London"),
		london("SW1E 6LA", 51.494789, -0.134270, 529650, 179020, "Westminster", "Cities of London and Westminster", "NHS North West London"),
		london("SW1P 3AD", 51.498749, -0.138969, 529340, 179420, "Westminster", "Cities of London and Westminster", "NHS North West London"),
		london("E3 4SS", 51.540300, -0.026000, 537800, 184000, "Tower Hamlets", "Poplar and Limehouse", "NHS North East London"),
		london("N1 9AA", 51.538067, -0.099181, 531750, 183770, "Islington", "Islington South and Finsbury", "NHS North Central London"),
		{
			Postcode: "EH1 1YZ",
			Outcode:  "EH1",
			Incode:   "1YZ",
			Coordinates: &corpus.Coordinates{
				Latitude: 55.948581, Longitude: -3.199355,
			},
			Administrative: corpus.Administrative{
				Country:  "Scotland",
				District: "City of Edinburgh",
			},
		},
		{
			Postcode: "EC1R 1UB",
			Outcode:  "EC1R",
			Incode:   "1UB",
			Administrative: corpus.Administrative{
				Country:  "England",
				Region:   "London",
				District: "Islington",
			},
		},
	}
}

// Memory returns the fixture as an in-memory directory.
func Memory() *corpus.Memory {
	return corpus.NewMemory(Records())
}

// ErrBroken is returned by Broken for every call.
var ErrBroken = errors.New("corpus offline")

// Broken is a corpus whose every call fails, for exercising degraded paths.
type Broken struct{}

func (Broken) Lookup(context.Context, string) (*corpus.Record, error) {
	return nil, errors.Join(corpus.ErrUnavailable, ErrBroken)
}

func (Broken) CoordinateBearing(context.Context) ([]corpus.Record, error) {
	return nil, errors.Join(corpus.ErrUnavailable, ErrBroken)
}
