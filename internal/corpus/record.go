package corpus

import (
	"strconv"
	"strings"
)

// Coordinates locate a postcode centroid. A record has coordinates only when
// both latitude and longitude are known.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Eastings  *int    `json:"eastings,omitempty"`
	Northings *int    `json:"northings,omitempty"`
	Quality   *int    `json:"quality,omitempty"`
}

type Administrative struct {
	Country        string `json:"country,omitempty"`
	Region         string `json:"region,omitempty"`
	County         string `json:"county,omitempty"`
	District       string `json:"district,omitempty"`
	Ward           string `json:"ward,omitempty"`
	Parish         string `json:"parish,omitempty"`
	Constituency   string `json:"constituency,omitempty"`
	CountyDivision string `json:"county_division,omitempty"`
}

type Healthcare struct {
	HealthcareRegion   string `json:"healthcare_region,omitempty"`
	NHSHealthAuthority string `json:"nhs_health_authority,omitempty"`
	PrimaryCareTrust   string `json:"primary_care_trust,omitempty"`
}

type Statistical struct {
	LowerOutputArea   string `json:"lower_output_area,omitempty"`
	MiddleOutputArea  string `json:"middle_output_area,omitempty"`
	StatisticalRegion string `json:"statistical_region,omitempty"`
}

type Services struct {
	PoliceForce string `json:"police_force,omitempty"`
}

type Metadata struct {
	DateIntroduced string `json:"date_introduced,omitempty"`
}

// Record is one postcode in the directory.
type Record struct {
	Postcode       string         `json:"postcode"`
	Incode         string         `json:"incode"`
	Outcode        string         `json:"outcode"`
	Coordinates    *Coordinates   `json:"coordinates"`
	Administrative Administrative `json:"administrative"`
	Healthcare     Healthcare     `json:"healthcare"`
	Statistical    Statistical    `json:"statistical"`
	Services       Services       `json:"services"`
	Metadata       Metadata       `json:"metadata"`
}

// HasCoordinates reports whether the record can take part in spatial queries.
func (r Record) HasCoordinates() bool {
	return r.Coordinates != nil
}

// Key returns the upper-case, space free form used to index records.
func Key(postcode string) string {
	var b strings.Builder
	b.Grow(len(postcode))
	for _, r := range strings.ToUpper(postcode) {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Columns is the postcodes table layout shared by the CSV snapshot format and
// the SQL stores, in select order.
var Columns = []string{
	"postcode", "pc_compact", "incode", "outcode",
	"latitude", "longitude", "eastings", "northings", "coordinate_quality",
	"country", "region", "county", "district", "ward", "parish",
	"constituency", "county_division",
	"healthcare_region", "nhs_health_authority", "primary_care_trust",
	"lower_output_area", "middle_output_area", "statistical_region",
	"police_force", "date_introduced",
}

// recordBuilder accumulates column values and produces a Record. Latitude and
// longitude are held back until both are seen.
type recordBuilder struct {
	rec       Record
	lat, lon  *float64
	east      *int
	north     *int
	quality   *int
	outcodeOK bool
	incodeOK  bool
}

func (b *recordBuilder) set(column, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}

	r := &b.rec
	switch column {
	case "postcode":
		r.Postcode = strings.ToUpper(value)
	case "incode":
		r.Incode = strings.ToUpper(value)
		b.incodeOK = true
	case "outcode":
		r.Outcode = strings.ToUpper(value)
		b.outcodeOK = true
	case "latitude":
		b.lat = parseFloat(value)
	case "longitude":
		b.lon = parseFloat(value)
	case "eastings":
		b.east = parseInt(value)
	case "northings":
		b.north = parseInt(value)
	case "coordinate_quality":
		b.quality = parseInt(value)
	case "country":
		r.Administrative.Country = value
	case "region":
		r.Administrative.Region = value
	case "county":
		r.Administrative.County = value
	case "district":
		r.Administrative.District = value
	case "ward":
		r.Administrative.Ward = value
	case "parish":
		r.Administrative.Parish = value
	case "constituency":
		r.Administrative.Constituency = value
	case "county_division":
		r.Administrative.CountyDivision = value
	case "healthcare_region":
		r.Healthcare.HealthcareRegion = value
	case "nhs_health_authority":
		r.Healthcare.NHSHealthAuthority = value
	case "primary_care_trust":
		r.Healthcare.PrimaryCareTrust = value
	case "lower_output_area":
		r.Statistical.LowerOutputArea = value
	case "middle_output_area":
		r.Statistical.MiddleOutputArea = value
	case "statistical_region":
		r.Statistical.StatisticalRegion = value
	case "police_force":
		r.Services.PoliceForce = value
	case "date_introduced":
		r.Metadata.DateIntroduced = value
	}
}

func (b *recordBuilder) build() Record {
	r := b.rec
	key := Key(r.Postcode)
	if len(key) > 3 {
		if !b.outcodeOK {
			r.Outcode = key[:len(key)-3]
		}
		if !b.incodeOK {
			r.Incode = key[len(key)-3:]
		}
		r.Postcode = r.Outcode + " " + r.Incode
	}
	if b.lat != nil && b.lon != nil {
		r.Coordinates = &Coordinates{
			Latitude:  *b.lat,
			Longitude: *b.lon,
			Eastings:  b.east,
			Northings: b.north,
			Quality:   b.quality,
		}
	}
	return r
}

// values flattens a record back into Columns order; nil marks SQL NULL.
func (r Record) values() []any {
	var lat, lon, east, north, quality any
	if c := r.Coordinates; c != nil {
		lat, lon = c.Latitude, c.Longitude
		if c.Eastings != nil {
			east = *c.Eastings
		}
		if c.Northings != nil {
			north = *c.Northings
		}
		if c.Quality != nil {
			quality = *c.Quality
		}
	}
	str := func(s string) any {
		if s == "" {
			return nil
		}
		return s
	}

	a, h, s := r.Administrative, r.Healthcare, r.Statistical
	return []any{
		r.Postcode, Key(r.Postcode), r.Incode, r.Outcode,
		lat, lon, east, north, quality,
		str(a.Country), str(a.Region), str(a.County), str(a.District), str(a.Ward), str(a.Parish),
		str(a.Constituency), str(a.CountyDivision),
		str(h.HealthcareRegion), str(h.NHSHealthAuthority), str(h.PrimaryCareTrust),
		str(s.LowerOutputArea), str(s.MiddleOutputArea), str(s.StatisticalRegion),
		str(r.Services.PoliceForce), str(r.Metadata.DateIntroduced),
	}
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil
		}
		v = int(f)
	}
	return &v
}
