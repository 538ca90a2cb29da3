// Package spatial answers proximity queries over the coordinate-bearing
// postcodes of the directory: nearest neighbours within a radius, reverse
// geocoding and point-to-point distance.
package spatial

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ukpostcodes/internal/corpus"
	"github.com/ukpostcodes/internal/postcode"
)

// Result is a record and its distance from the query point.
type Result struct {
	Record     corpus.Record `json:"record"`
	DistanceKm float64       `json:"distance_km"`
}

type point struct {
	lat, lon float64
	key      string // normalised "OUT IN" form
	rec      corpus.Record
}

// sortKey is the normalised postcode, so "E1 1AA" orders before "E11 1AA".
func sortKey(pc string) string {
	if n, err := postcode.Normalise(pc); err == nil {
		return n
	}
	return strings.ToUpper(strings.TrimSpace(pc))
}

// Engine holds an immutable snapshot of coordinate-bearing records.
type Engine struct {
	points []point
}

// NewEngine builds a snapshot from records; those without coordinates are
// ignored.
func NewEngine(records []corpus.Record) *Engine {
	e := &Engine{}
	for _, r := range records {
		c := r.Coordinates
		if c == nil || !ValidCoordinate(c.Latitude, c.Longitude) {
			continue
		}
		e.points = append(e.points, point{lat: c.Latitude, lon: c.Longitude, key: sortKey(r.Postcode), rec: r})
	}
	sort.Slice(e.points, func(i, j int) bool { return e.points[i].key < e.points[j].key })
	return e
}

// Load snapshots the coordinate-bearing records of a corpus.
func Load(ctx context.Context, c corpus.Corpus, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	records, err := c.CoordinateBearing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load coordinate snapshot: %w", err)
	}
	e := NewEngine(records)
	logger.Info("spatial snapshot loaded", "points", len(e.points), "duration", time.Since(start))
	return e, nil
}

// Len returns the number of points in the snapshot.
func (e *Engine) Len() int {
	return len(e.points)
}

// Nearest returns up to limit records within radiusKm of (lat, lon), closest
// first with ties broken by postcode. Invalid coordinates, a negative or NaN
// radius, or a non-positive limit yield no results.
func (e *Engine) Nearest(lat, lon, radiusKm float64, limit int) []Result {
	return e.nearest(lat, lon, radiusKm, limit, true)
}

// ReverseGeocode returns the closest record to (lat, lon) at any distance.
func (e *Engine) ReverseGeocode(lat, lon float64) (Result, bool) {
	res := e.nearest(lat, lon, math.Inf(1), 1, true)
	if len(res) == 0 {
		return Result{}, false
	}
	return res[0], true
}

// Distance returns the distance between two records, or false if either has
// no coordinates.
func Distance(a, b corpus.Record) (float64, bool) {
	if a.Coordinates == nil || b.Coordinates == nil {
		return 0, false
	}
	return Haversine(a.Coordinates.Latitude, a.Coordinates.Longitude,
		b.Coordinates.Latitude, b.Coordinates.Longitude), true
}

func (e *Engine) nearest(lat, lon, radiusKm float64, limit int, prune bool) []Result {
	if e == nil || limit <= 0 || !ValidCoordinate(lat, lon) || math.IsNaN(radiusKm) || radiusKm < 0 {
		return nil
	}

	var b box
	bounded := prune && !math.IsInf(radiusKm, 1)
	if bounded {
		b = boundingBox(lat, lon, radiusKm)
	}

	h := &topK{limit: limit}
	for i := range e.points {
		p := &e.points[i]
		if bounded && !b.contains(p.lat, p.lon) {
			continue
		}
		d := Haversine(lat, lon, p.lat, p.lon)
		if d > radiusKm {
			continue
		}
		h.offer(candidate{dist: d, p: p})
	}

	out := make([]Result, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		c := heap.Pop(h).(candidate)
		out[i] = Result{Record: c.p.rec, DistanceKm: c.dist}
	}
	return out
}

type candidate struct {
	dist float64
	p    *point
}

// less orders by distance, then postcode.
func (c candidate) less(o candidate) bool {
	if c.dist != o.dist {
		return c.dist < o.dist
	}
	return c.p.key < o.p.key
}

// topK is a max-heap keeping the limit best candidates seen so far.
type topK struct {
	items []candidate
	limit int
}

func (h *topK) Len() int           { return len(h.items) }
func (h *topK) Less(i, j int) bool { return h.items[j].less(h.items[i]) }
func (h *topK) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *topK) Push(x any)         { h.items = append(h.items, x.(candidate)) }

func (h *topK) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}

func (h *topK) offer(c candidate) {
	if len(h.items) < h.limit {
		heap.Push(h, c)
		return
	}
	if c.less(h.items[0]) {
		h.items[0] = c
		heap.Fix(h, 0)
	}
}
