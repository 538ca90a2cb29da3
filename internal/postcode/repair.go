package postcode

import (
	"fmt"
	"slices"
	"strings"
)

// Mode selects how many repairs Repair returns.
type Mode int

const (
	// Single returns the one best repair.
	Single Mode = iota
	// Exhaustive returns every distinct valid repair, best first.
	Exhaustive
)

func (m Mode) String() string {
	if m == Exhaustive {
		return "exhaustive"
	}
	return "single"
}

// ParseMode accepts "single" or "exhaustive" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "":
		return Single, nil
	case "exhaustive", "all":
		return Exhaustive, nil
	}
	return Single, fmt.Errorf("unknown repair mode %q", s)
}

// Substitution records one character replaced during repair. Position
// indexes the token with whitespace removed.
type Substitution struct {
	Position int    `json:"position"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// Candidate is a valid postcode produced from a token, possibly after
// substituting confusable characters.
type Candidate struct {
	Original      string         `json:"original"`
	Postcode      string         `json:"postcode"`
	Distance      int            `json:"fix_distance"`
	Shape         Shape          `json:"shape"`
	Substitutions []Substitution `json:"substitutions,omitempty"`
}

// Repaired reports whether any character was substituted.
func (c Candidate) Repaired() bool {
	return c.Distance < 0
}

// Parsed decomposes the candidate's postcode.
func (c Candidate) Parsed() Parsed {
	return decompose(strings.ReplaceAll(c.Postcode, " ", ""), c.Shape)
}

// Observer is called once for every candidate Repair returns that needed at
// least one substitution.
type Observer func(Candidate)

// Repairer turns near-miss tokens into valid postcodes.
type Repairer struct {
	observer Observer
}

// RepairerOption configures a Repairer.
type RepairerOption func(*Repairer)

// WithObserver registers a hook notified of every applied repair.
func WithObserver(o Observer) RepairerOption {
	return func(r *Repairer) {
		r.observer = o
	}
}

// NewRepairer creates a Repairer.
func NewRepairer(opts ...RepairerOption) *Repairer {
	r := &Repairer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRepairer = NewRepairer()

// Repair is shorthand for NewRepairer().Repair.
func Repair(token string, mode Mode) ([]Candidate, error) {
	return defaultRepairer.Repair(token, mode)
}

// Repair normalises token and returns the valid postcodes reachable by
// replacing confusable characters, cheapest first. A token that is already
// valid comes back unchanged with distance zero and no search is run.
//
// ErrInvalidFormat is returned when the token cannot be normalised and
// ErrNoViableCorrection when no substitution path yields a valid postcode.
func (r *Repairer) Repair(token string, mode Mode) ([]Candidate, error) {
	compact, err := Compact(token)
	if err != nil {
		return nil, err
	}

	if shape, ok := classifyCompact(compact); ok {
		return []Candidate{{Original: token, Postcode: format(compact), Shape: shape}}, nil
	}

	found := search(compact, mode)
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoViableCorrection, token)
	}

	for i := range found {
		found[i].Original = token
		if r.observer != nil {
			r.observer(found[i])
		}
	}
	return found, nil
}

// searcher enumerates substitution paths position by position, carrying the
// set of shapes still compatible with the prefix chosen so far. A branch dies
// as soon as that set is empty.
type searcher struct {
	mode  Mode
	buf   []byte
	best  int
	found map[string]Candidate
}

func search(compact string, mode Mode) []Candidate {
	var alive []Shape
	for _, s := range Shapes {
		if s.compactLen() == len(compact) {
			alive = append(alive, s)
		}
	}

	s := &searcher{
		mode:  mode,
		buf:   []byte(compact),
		best:  len(compact) + 1,
		found: make(map[string]Candidate),
	}
	s.walk(0, alive, nil)

	out := make([]Candidate, 0, len(s.found))
	for _, c := range s.found {
		out = append(out, c)
	}
	slices.SortFunc(out, compareCandidates)

	if mode == Single && len(out) > 1 {
		out = out[:1]
	}
	return out
}

func (s *searcher) walk(pos int, alive []Shape, subs []Substitution) {
	if len(alive) == 0 {
		return
	}
	if s.mode == Single && len(subs) > s.best {
		return
	}

	if pos == len(s.buf) {
		s.record(subs)
		return
	}

	ch := s.buf[pos]
	have := classOf(ch)
	if keep := filterShapes(alive, pos, have); len(keep) > 0 {
		s.walk(pos+1, keep, subs)
	}

	var want byte = classLetter
	if have == classLetter {
		want = classDigit
	}
	need := filterShapes(alive, pos, want)
	if len(need) == 0 {
		return
	}
	for _, alt := range confusables(ch, want) {
		s.buf[pos] = alt
		s.walk(pos+1, need, append(subs, Substitution{Position: pos, From: string(ch), To: string(alt)}))
		s.buf[pos] = ch
	}
}

func (s *searcher) record(subs []Substitution) {
	compact := string(s.buf)
	shape, ok := classifyCompact(compact)
	if !ok {
		return
	}

	c := Candidate{
		Postcode:      format(compact),
		Distance:      -len(subs),
		Shape:         shape,
		Substitutions: slices.Clone(subs),
	}
	if prev, seen := s.found[c.Postcode]; seen && prev.Distance >= c.Distance {
		return
	}
	s.found[c.Postcode] = c
	if len(subs) < s.best {
		s.best = len(subs)
	}
}

func filterShapes(alive []Shape, pos int, class byte) []Shape {
	var out []Shape
	for _, s := range alive {
		if s.expectedAt(pos) == class {
			out = append(out, s)
		}
	}
	return out
}

// compareCandidates orders by fewest substitutions, then shape declaration
// order, then lexicographically.
func compareCandidates(a, b Candidate) int {
	if a.Distance != b.Distance {
		return b.Distance - a.Distance
	}
	if a.Shape != b.Shape {
		return int(a.Shape) - int(b.Shape)
	}
	return strings.Compare(a.Postcode, b.Postcode)
}

// Fixable reports whether the last three non-space characters of token look
// like an incode once confusables are allowed for, and the compact length
// can belong to some shape. It is a cheap filter run before Repair.
func Fixable(token string) bool {
	compact, err := Compact(token)
	if err != nil {
		return false
	}
	n := len(compact)
	return fixable(compact[n-3], classDigit) &&
		fixable(compact[n-2], classLetter) &&
		fixable(compact[n-1], classLetter)
}
