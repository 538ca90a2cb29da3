// Package recognize extracts postcodes from free text, repairs OCR damage,
// checks each result against the directory and ranks them by confidence.
package recognize

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"github.com/ukpostcodes/internal/corpus"
	"github.com/ukpostcodes/internal/directory"
	"github.com/ukpostcodes/internal/postcode"
)

// Directory is the lookup the recognizer enriches results with.
type Directory interface {
	Check(ctx context.Context, postcode string) (directory.Status, *corpus.Record)
}

// Recognized is a postcode found in text or parsed from a token.
type Recognized struct {
	postcode.Parsed
	Original      string                  `json:"original"`
	Distance      int                     `json:"fix_distance"`
	Substitutions []postcode.Substitution `json:"substitutions,omitempty"`
	Status        directory.Status        `json:"directory_status"`
	InDirectory   bool                    `json:"is_in_ons_postcode_directory"`
	Record        *corpus.Record          `json:"record,omitempty"`
	Offset        int                     `json:"offset"`
}

// Score is the confidence of this result; see Score.
func (r Recognized) Score() int {
	return Score(r.InDirectory, r.Distance)
}

// Recognizer ties the matcher, repairer and directory together.
type Recognizer struct {
	dir      Directory
	repairer *postcode.Repairer
	fixing   *Matcher
	strict   *Matcher
	logger   *slog.Logger
}

// Option configures a Recognizer.
type Option func(*Recognizer)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recognizer) {
		r.logger = logger
	}
}

// WithRepairer replaces the default repairer, e.g. to attach an observer.
func WithRepairer(rep *postcode.Repairer) Option {
	return func(r *Recognizer) {
		r.repairer = rep
	}
}

// New creates a Recognizer. dir may be nil, in which case every result is
// reported with status Unavailable.
func New(dir Directory, opts ...Option) *Recognizer {
	r := &Recognizer{dir: dir}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.repairer == nil {
		r.repairer = postcode.NewRepairer()
	}
	r.fixing = NewMatcher(r.repairer, true)
	r.strict = NewMatcher(r.repairer, false)
	return r
}

// Recognize lazily yields the postcodes found in text, repairing confusable
// characters. In Exhaustive mode a span may yield several results.
func (r *Recognizer) Recognize(ctx context.Context, text string, mode postcode.Mode) iter.Seq[Recognized] {
	return r.recognize(ctx, r.fixing, text, mode)
}

// RecognizeStrict is Recognize without repair: only spans that are already
// valid postcodes are reported.
func (r *Recognizer) RecognizeStrict(ctx context.Context, text string) iter.Seq[Recognized] {
	return r.recognize(ctx, r.strict, text, postcode.Single)
}

func (r *Recognizer) recognize(ctx context.Context, m *Matcher, text string, mode postcode.Mode) iter.Seq[Recognized] {
	return func(yield func(Recognized) bool) {
		for match := range m.Matches(text, mode) {
			for _, c := range match.Candidates {
				if ctx.Err() != nil {
					return
				}
				if !yield(r.enrich(ctx, c, match.Span.Offset)) {
					return
				}
			}
		}
	}
}

// ParseText collects Recognize in text order.
func (r *Recognizer) ParseText(ctx context.Context, text string, mode postcode.Mode) []Recognized {
	found := slices.Collect(r.Recognize(ctx, text, mode))
	r.logger.Debug("postcodes found in text", "count", len(found), "mode", mode.String())
	return found
}

// ParseTextStrict collects RecognizeStrict in text order.
func (r *Recognizer) ParseTextStrict(ctx context.Context, text string) []Recognized {
	found := slices.Collect(r.RecognizeStrict(ctx, text))
	r.logger.Debug("postcodes found in text", "count", len(found), "mode", "strict")
	return found
}

// ParseOne parses a single token. With attemptFix the best single repair is
// used; without it the token must already be valid. Errors are
// postcode.ErrInvalidFormat or postcode.ErrNoViableCorrection.
func (r *Recognizer) ParseOne(ctx context.Context, token string, attemptFix bool) (Recognized, error) {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(token)), "NPT") {
		r.logger.Info("found NPT Newport postcode, discontinued in 1984", "token", token)
	}

	if !attemptFix {
		parsed, err := postcode.Decompose(token)
		if err != nil {
			return Recognized{}, err
		}
		c := postcode.Candidate{Original: token, Postcode: parsed.Postcode, Shape: parsed.Shape}
		return r.enrich(ctx, c, -1), nil
	}

	cands, err := r.repairer.Repair(token, postcode.Single)
	if err != nil {
		r.logger.Debug("unable to parse postcode", "token", token, "error", err)
		return Recognized{}, err
	}
	return r.enrich(ctx, cands[0], -1), nil
}

func (r *Recognizer) enrich(ctx context.Context, c postcode.Candidate, offset int) Recognized {
	rec := Recognized{
		Parsed:        c.Parsed(),
		Original:      c.Original,
		Distance:      c.Distance,
		Substitutions: c.Substitutions,
		Status:        directory.Unavailable,
		Offset:        offset,
	}
	if r.dir != nil {
		rec.Status, rec.Record = r.dir.Check(ctx, c.Postcode)
	}
	rec.InDirectory = rec.Status == directory.Found
	return rec
}
