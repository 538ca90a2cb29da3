// Package corpus provides read access to the postcode directory: the
// authoritative set of known postcodes with their coordinates and
// administrative metadata.
//
// Two backends are available. Memory holds an immutable snapshot loaded from
// a CSV file (optionally xz compressed). SQLStore queries a postcodes table
// in SQLite or PostgreSQL.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable wraps any failure to reach the directory. Callers must be
// able to tell it apart from "not found", which is reported as a nil record.
var ErrUnavailable = errors.New("postcode directory unavailable")

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// Corpus is the read-only directory collaborator.
type Corpus interface {
	// Lookup returns the record for a postcode in any spacing or case, or
	// nil when the directory does not hold it.
	Lookup(ctx context.Context, postcode string) (*Record, error)

	// CoordinateBearing returns every record that has coordinates.
	CoordinateBearing(ctx context.Context) ([]Record, error)
}

// Browser offers the listing queries of the directory.
type Browser interface {
	Search(ctx context.Context, prefix string, limit int) ([]Record, error)
	ByOutcode(ctx context.Context, outcode string) ([]Record, error)
	ByArea(ctx context.Context, area AreaType, value string, limit int) ([]Record, error)
	Stats(ctx context.Context) (Stats, error)
}

// Store is a corpus that also supports browsing.
type Store interface {
	Corpus
	Browser
}

// AreaType names an administrative field records can be listed by.
type AreaType string

const (
	AreaCountry          AreaType = "country"
	AreaRegion           AreaType = "region"
	AreaDistrict         AreaType = "district"
	AreaCounty           AreaType = "county"
	AreaConstituency     AreaType = "constituency"
	AreaHealthcareRegion AreaType = "healthcare_region"
)

// AreaTypes lists the accepted area types.
var AreaTypes = []AreaType{
	AreaCountry, AreaRegion, AreaDistrict, AreaCounty, AreaConstituency, AreaHealthcareRegion,
}

// ParseAreaType accepts only the names in AreaTypes.
func ParseAreaType(s string) (AreaType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range AreaTypes {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

func (a AreaType) valueOf(r Record) string {
	switch a {
	case AreaCountry:
		return r.Administrative.Country
	case AreaRegion:
		return r.Administrative.Region
	case AreaDistrict:
		return r.Administrative.District
	case AreaCounty:
		return r.Administrative.County
	case AreaConstituency:
		return r.Administrative.Constituency
	case AreaHealthcareRegion:
		return r.Healthcare.HealthcareRegion
	}
	return ""
}

// Stats summarises the loaded directory.
type Stats struct {
	TotalPostcodes    int            `json:"total_postcodes"`
	WithCoordinates   int            `json:"with_coordinates"`
	CoveragePercent   float64        `json:"coverage_percent"`
	CountryBreakdown  map[string]int `json:"country_breakdown"`
	Backend           string         `json:"backend"`
	Source            string         `json:"source,omitempty"`
	SourceSizeBytes   int64          `json:"source_size_bytes,omitempty"`
	SourceFingerprint string         `json:"source_fingerprint,omitempty"`
}

func coverage(with, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(int(float64(with)/float64(total)*10000+0.5)) / 100
}
