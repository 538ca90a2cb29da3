// Package service is the single entry point the CLI and HTTP server use. It
// owns the directory validator, the recognizer and the spatial snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ukpostcodes/internal/corpus"
	"github.com/ukpostcodes/internal/directory"
	"github.com/ukpostcodes/internal/postcode"
	"github.com/ukpostcodes/internal/recognize"
	"github.com/ukpostcodes/internal/spatial"
)

// ErrCorpusUnavailable is returned when the directory cannot be reached.
var ErrCorpusUnavailable = corpus.ErrUnavailable

// ErrTooMany is returned when a bulk request exceeds the configured maximum.
var ErrTooMany = errors.New("too many postcodes in one request")

// Service answers every postcode question against one directory.
type Service struct {
	corpus     corpus.Corpus
	browser    corpus.Browser
	validator  *directory.Validator
	recognizer *recognize.Recognizer
	spatial    *spatial.Engine
	spatialErr error
	logger     *slog.Logger

	cacheSize   int
	maxBulk     int
	concurrency int
	started     time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCacheSize bounds the directory memo; zero disables it.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		s.cacheSize = n
	}
}

// WithMaxBulk caps BulkLookup and Validate request sizes.
func WithMaxBulk(n int) Option {
	return func(s *Service) {
		s.maxBulk = n
	}
}

// New builds the service and takes the spatial snapshot. A snapshot failure
// is logged and leaves the service degraded: text parsing keeps working and
// spatial calls return ErrCorpusUnavailable.
func New(ctx context.Context, c corpus.Corpus, opts ...Option) *Service {
	s := &Service{
		corpus:      c,
		cacheSize:   directory.DefaultCacheSize,
		maxBulk:     100,
		concurrency: 8,
		started:     time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if b, ok := c.(corpus.Browser); ok {
		s.browser = b
	}

	s.validator = directory.New(c, directory.WithCacheSize(s.cacheSize), directory.WithLogger(s.logger))
	repairer := postcode.NewRepairer(postcode.WithObserver(func(cand postcode.Candidate) {
		s.logger.Info("postcode repaired",
			"original", cand.Original, "fixed", cand.Postcode, "distance", cand.Distance)
	}))
	s.recognizer = recognize.New(s.validator,
		recognize.WithLogger(s.logger), recognize.WithRepairer(repairer))

	if c == nil {
		s.spatialErr = fmt.Errorf("%w: no directory configured", corpus.ErrUnavailable)
	} else if engine, err := spatial.Load(ctx, c, s.logger); err != nil {
		s.logger.Error("spatial snapshot unavailable, continuing degraded", "error", err)
		s.spatialErr = err
	} else {
		s.spatial = engine
	}
	return s
}

// Ready reports whether the spatial snapshot loaded.
func (s *Service) Ready() bool {
	return s.spatial != nil
}

// ParseText finds postcodes in text, in text order. mode selects single or
// exhaustive repair.
func (s *Service) ParseText(ctx context.Context, text string, mode postcode.Mode) []recognize.Recognized {
	return s.recognizer.ParseText(ctx, text, mode)
}

// ParseTextStrict finds only postcodes that need no repair.
func (s *Service) ParseTextStrict(ctx context.Context, text string) []recognize.Recognized {
	return s.recognizer.ParseTextStrict(ctx, text)
}

// ParseTextRanked is ParseText sorted best first.
func (s *Service) ParseTextRanked(ctx context.Context, text string, mode postcode.Mode) []recognize.Recognized {
	found := s.ParseText(ctx, text, mode)
	recognize.Rank(found)
	return found
}

// ParseOne parses a single token.
func (s *Service) ParseOne(ctx context.Context, token string, attemptFix bool) (recognize.Recognized, error) {
	return s.recognizer.ParseOne(ctx, token, attemptFix)
}

// Decompose splits a postcode into its parts without consulting the
// directory.
func (s *Service) Decompose(token string) (postcode.Parsed, error) {
	return postcode.Decompose(token)
}

// Lookup returns the directory record for a postcode, nil when absent.
func (s *Service) Lookup(ctx context.Context, pc string) (*corpus.Record, error) {
	return s.validator.Lookup(ctx, pc)
}

// BulkLookup looks up postcodes concurrently. The result has one entry per
// input, in input order, nil where the directory has no record.
func (s *Service) BulkLookup(ctx context.Context, postcodes []string) ([]*corpus.Record, error) {
	if len(postcodes) > s.maxBulk {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooMany, len(postcodes), s.maxBulk)
	}

	out := make([]*corpus.Record, len(postcodes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, pc := range postcodes {
		g.Go(func() error {
			rec, err := s.validator.Lookup(ctx, pc)
			if err != nil {
				return err
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validation is the per-postcode answer of Validate.
type Validation struct {
	Postcode    string `json:"postcode"`
	Normalized  string `json:"normalized,omitempty"`
	ValidFormat bool   `json:"valid_format"`
	Exists      bool   `json:"exists_in_database"`
	Valid       bool   `json:"is_valid"`
}

// Validate checks both format and directory membership for each postcode.
func (s *Service) Validate(ctx context.Context, postcodes []string) ([]Validation, error) {
	if len(postcodes) > s.maxBulk {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooMany, len(postcodes), s.maxBulk)
	}

	out := make([]Validation, len(postcodes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, pc := range postcodes {
		g.Go(func() error {
			v := Validation{Postcode: pc}
			parsed, err := postcode.Decompose(pc)
			if err == nil {
				v.ValidFormat = true
				v.Normalized = parsed.Postcode
				rec, err := s.validator.Lookup(ctx, parsed.Postcode)
				if err != nil {
					return err
				}
				v.Exists = rec != nil
			}
			v.Valid = v.ValidFormat && v.Exists
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Nearest lists postcodes within radiusKm of a point, closest first.
func (s *Service) Nearest(lat, lon, radiusKm float64, limit int) ([]spatial.Result, error) {
	if s.spatial == nil {
		return nil, s.spatialErr
	}
	return s.spatial.Nearest(lat, lon, radiusKm, limit), nil
}

// ReverseGeocode returns the closest postcode to a point, nil when the
// snapshot is empty or the coordinates are invalid.
func (s *Service) ReverseGeocode(lat, lon float64) (*spatial.Result, error) {
	if s.spatial == nil {
		return nil, s.spatialErr
	}
	res, ok := s.spatial.ReverseGeocode(lat, lon)
	if !ok {
		return nil, nil
	}
	return &res, nil
}

// DistanceBetween returns the great-circle distance between two postcodes.
// ok is false when either is absent from the directory or lacks coordinates.
func (s *Service) DistanceBetween(ctx context.Context, a, b string) (km float64, ok bool, err error) {
	ra, err := s.validator.Lookup(ctx, a)
	if err != nil {
		return 0, false, err
	}
	rb, err := s.validator.Lookup(ctx, b)
	if err != nil {
		return 0, false, err
	}
	if ra == nil || rb == nil {
		return 0, false, nil
	}
	km, ok = spatial.Distance(*ra, *rb)
	return km, ok, nil
}

func (s *Service) requireBrowser() error {
	if s.browser == nil {
		return fmt.Errorf("%w: directory does not support browsing", corpus.ErrUnavailable)
	}
	return nil
}

// Search lists postcodes starting with prefix.
func (s *Service) Search(ctx context.Context, prefix string, limit int) ([]corpus.Record, error) {
	if err := s.requireBrowser(); err != nil {
		return nil, err
	}
	return s.browser.Search(ctx, prefix, limit)
}

// ByOutcode lists every postcode in an outcode.
func (s *Service) ByOutcode(ctx context.Context, outcode string) ([]corpus.Record, error) {
	if err := s.requireBrowser(); err != nil {
		return nil, err
	}
	return s.browser.ByOutcode(ctx, outcode)
}

// ByArea lists postcodes in an administrative area.
func (s *Service) ByArea(ctx context.Context, area corpus.AreaType, value string, limit int) ([]corpus.Record, error) {
	if err := s.requireBrowser(); err != nil {
		return nil, err
	}
	return s.browser.ByArea(ctx, area, value, limit)
}

// Info describes the loaded directory and the process serving it.
type Info struct {
	corpus.Stats
	SpatialPoints int       `json:"spatial_points"`
	SpatialReady  bool      `json:"spatial_ready"`
	CachedLookups int       `json:"cached_lookups"`
	StartedAt     time.Time `json:"started_at"`
}

// Info reports directory statistics.
func (s *Service) Info(ctx context.Context) (Info, error) {
	info := Info{
		SpatialReady:  s.spatial != nil,
		CachedLookups: s.validator.Cached(),
		StartedAt:     s.started,
	}
	if s.spatial != nil {
		info.SpatialPoints = s.spatial.Len()
	}
	if err := s.requireBrowser(); err != nil {
		return info, err
	}
	st, err := s.browser.Stats(ctx)
	if err != nil {
		return info, err
	}
	info.Stats = st
	return info, nil
}
