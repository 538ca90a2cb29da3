package recognize

import (
	"iter"

	"github.com/ukpostcodes/internal/postcode"
)

// Span is a stretch of source text that may hold a postcode.
type Span struct {
	Text   string
	Offset int // byte offset into the source text
}

// Match is a span with the candidates recovered from it.
type Match struct {
	Span       Span
	Candidates []postcode.Candidate
}

// Matcher finds postcode-shaped spans in free text.
type Matcher struct {
	repairer *postcode.Repairer
	fix      bool
}

// NewMatcher returns a matcher. With fix false only spans that are already
// valid postcodes are reported.
func NewMatcher(repairer *postcode.Repairer, fix bool) *Matcher {
	if repairer == nil {
		repairer = postcode.NewRepairer()
	}
	return &Matcher{repairer: repairer, fix: fix}
}

// Matches scans text lazily. Each alphanumeric word is tried joined with the
// next word first (postcodes are usually written with a space) and then on
// its own. A word consumed by a joined match is not tried again. Spans that
// yield no candidates are skipped. The sequence can be ranged over any
// number of times.
func (m *Matcher) Matches(text string, mode postcode.Mode) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		words := newWordScanner(text)
		cur, ok := words.next()
		for ok {
			nxt, more := words.next()

			if more && onlySpace(text[cur.end:nxt.start]) {
				span := Span{Text: text[cur.start:nxt.end], Offset: cur.start}
				if cands := m.try(span.Text, mode); len(cands) > 0 {
					if !yield(Match{Span: span, Candidates: cands}) {
						return
					}
					cur, ok = words.next()
					continue
				}
			}

			span := Span{Text: text[cur.start:cur.end], Offset: cur.start}
			if cands := m.try(span.Text, mode); len(cands) > 0 {
				if !yield(Match{Span: span, Candidates: cands}) {
					return
				}
			}
			cur, ok = nxt, more
		}
	}
}

func (m *Matcher) try(token string, mode postcode.Mode) []postcode.Candidate {
	if m.fix && !postcode.Fixable(token) {
		return nil
	}
	if !m.fix && !postcode.IsValid(token) {
		return nil
	}
	cands, err := m.repairer.Repair(token, mode)
	if err != nil {
		return nil
	}
	return cands
}

type word struct {
	start, end int
}

// wordScanner yields maximal runs of ASCII letters and digits.
type wordScanner struct {
	text string
	pos  int
}

func newWordScanner(text string) *wordScanner {
	return &wordScanner{text: text}
}

func (s *wordScanner) next() (word, bool) {
	for s.pos < len(s.text) && !isAlnum(s.text[s.pos]) {
		s.pos++
	}
	if s.pos >= len(s.text) {
		return word{}, false
	}
	w := word{start: s.pos}
	for s.pos < len(s.text) && isAlnum(s.text[s.pos]) {
		s.pos++
	}
	w.end = s.pos
	return w, true
}

func isAlnum(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func onlySpace(gap string) bool {
	if gap == "" {
		return false
	}
	for i := 0; i < len(gap); i++ {
		switch gap[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
