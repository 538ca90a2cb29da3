package corpus

import (
	"context"
	"sort"
	"strings"
)

// Memory is an immutable in-process directory. It is safe for concurrent
// use once built.
type Memory struct {
	byKey  map[string]Record
	keys   []string
	source string
	size   int64
	digest string
}

// NewMemory indexes records by their compact postcode. Records without a
// postcode are skipped and the first occurrence of a duplicate wins.
func NewMemory(records []Record) *Memory {
	m := &Memory{byKey: make(map[string]Record, len(records))}
	for _, r := range records {
		key := Key(r.Postcode)
		if key == "" {
			continue
		}
		if _, dup := m.byKey[key]; dup {
			continue
		}
		m.byKey[key] = r
		m.keys = append(m.keys, key)
	}
	sort.Strings(m.keys)
	return m
}

// Len returns the number of postcodes held.
func (m *Memory) Len() int {
	return len(m.keys)
}

// Records returns every record in postcode order.
func (m *Memory) Records() []Record {
	out := make([]Record, len(m.keys))
	for i, key := range m.keys {
		out[i] = m.byKey[key]
	}
	return out
}

func (m *Memory) Lookup(ctx context.Context, postcode string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("lookup", err)
	}
	r, ok := m.byKey[Key(postcode)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) CoordinateBearing(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("coordinate snapshot", err)
	}
	var out []Record
	for _, key := range m.keys {
		if r := m.byKey[key]; r.HasCoordinates() {
			out = append(out, r)
		}
	}
	return out, nil
}

// Search returns postcodes whose compact form starts with the compact prefix,
// in postcode order.
func (m *Memory) Search(ctx context.Context, prefix string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("search", err)
	}
	prefix = Key(prefix)
	if prefix == "" || limit <= 0 {
		return nil, nil
	}

	var out []Record
	start := sort.SearchStrings(m.keys, prefix)
	for _, key := range m.keys[start:] {
		if !strings.HasPrefix(key, prefix) || len(out) == limit {
			break
		}
		out = append(out, m.byKey[key])
	}
	return out, nil
}

func (m *Memory) ByOutcode(ctx context.Context, outcode string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("outcode", err)
	}
	outcode = Key(outcode)
	if outcode == "" {
		return nil, nil
	}
	return m.filter(func(r Record) bool { return r.Outcode == outcode }, -1), nil
}

func (m *Memory) ByArea(ctx context.Context, area AreaType, value string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("area", err)
	}
	if _, ok := ParseAreaType(string(area)); !ok || value == "" || limit <= 0 {
		return nil, nil
	}
	return m.filter(func(r Record) bool { return area.valueOf(r) == value }, limit), nil
}

func (m *Memory) filter(keep func(Record) bool, limit int) []Record {
	var out []Record
	for _, key := range m.keys {
		if limit >= 0 && len(out) == limit {
			break
		}
		if r := m.byKey[key]; keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (m *Memory) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, unavailable("stats", err)
	}
	st := Stats{
		TotalPostcodes:    len(m.keys),
		CountryBreakdown:  map[string]int{},
		Backend:           "memory",
		Source:            m.source,
		SourceSizeBytes:   m.size,
		SourceFingerprint: m.digest,
	}
	for _, r := range m.byKey {
		if r.HasCoordinates() {
			st.WithCoordinates++
		}
		if c := r.Administrative.Country; c != "" {
			st.CountryBreakdown[c]++
		}
	}
	st.CoveragePercent = coverage(st.WithCoordinates, st.TotalPostcodes)
	return st, nil
}
