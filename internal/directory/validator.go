// Package directory answers "is this postcode in the directory?" with
// memoisation and coalescing of concurrent identical lookups.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/ukpostcodes/internal/corpus"
)

// Status is the three-valued outcome of a directory check.
type Status int

const (
	NotFound Status = iota
	Found
	Unavailable
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Unavailable:
		return "unavailable"
	default:
		return "not_found"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DefaultCacheSize bounds the memo when no size is configured.
const DefaultCacheSize = 10000

// Validator wraps a corpus with a bounded memo. Only definite answers are
// cached; failures are retried on the next call.
type Validator struct {
	corpus corpus.Corpus
	logger *slog.Logger
	group  singleflight.Group

	limit int64
	size  atomic.Int64
	memo  sync.Map // compact key -> *corpus.Record (nil when absent)
}

// Option configures a Validator.
type Option func(*Validator)

// WithCacheSize caps the number of memoised answers; zero disables the memo.
func WithCacheSize(n int) Option {
	return func(v *Validator) {
		v.limit = int64(n)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// New creates a Validator. A nil corpus yields a validator that reports
// every postcode as Unavailable.
func New(c corpus.Corpus, opts ...Option) *Validator {
	v := &Validator{corpus: c, limit: DefaultCacheSize}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v
}

// Lookup returns the record for a postcode, nil when absent. Errors wrap
// corpus.ErrUnavailable.
func (v *Validator) Lookup(ctx context.Context, postcode string) (*corpus.Record, error) {
	if v.corpus == nil {
		return nil, errors.Join(corpus.ErrUnavailable, errors.New("no directory configured"))
	}

	key := corpus.Key(postcode)
	if cached, ok := v.memo.Load(key); ok {
		return cached.(*corpus.Record), nil
	}

	// The shared lookup outlives any one caller; each caller stops waiting
	// when its own context ends.
	ch := v.group.DoChan(key, func() (any, error) {
		rec, err := v.corpus.Lookup(context.WithoutCancel(ctx), postcode)
		if err != nil {
			return nil, err
		}
		v.remember(key, rec)
		return rec, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.Err = ctx.Err()
	}
	if err := res.Err; err != nil {
		if !errors.Is(err, corpus.ErrUnavailable) {
			err = errors.Join(corpus.ErrUnavailable, err)
		}
		v.logger.Warn("directory lookup failed", "postcode", postcode, "error", err)
		return nil, err
	}
	return res.Val.(*corpus.Record), nil
}

// Check reduces Lookup to a Status.
func (v *Validator) Check(ctx context.Context, postcode string) (Status, *corpus.Record) {
	rec, err := v.Lookup(ctx, postcode)
	switch {
	case err != nil:
		return Unavailable, nil
	case rec == nil:
		return NotFound, nil
	default:
		return Found, rec
	}
}

func (v *Validator) remember(key string, rec *corpus.Record) {
	if v.limit <= 0 {
		return
	}
	if v.size.Load() >= v.limit {
		return
	}
	if _, loaded := v.memo.LoadOrStore(key, rec); !loaded {
		v.size.Add(1)
	}
}

// Cached reports how many answers are memoised.
func (v *Validator) Cached() int {
	return int(v.size.Load())
}
