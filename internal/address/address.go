// Package address pulls the postcode out of a full address line.
package address

import (
	"context"
	"strings"

	"github.com/ukpostcodes/internal/recognize"
)

// Component is one labelled part of a parsed address, e.g. "road" or
// "postcode".
type Component struct {
	Label string
	Value string
}

// Parser splits an address into labelled components.
type Parser interface {
	Parse(address string) []Component
}

// OneParser is the part of the postcode service address extraction needs.
type OneParser interface {
	ParseOne(ctx context.Context, token string, attemptFix bool) (recognize.Recognized, error)
}

// Extractor finds and repairs the postcode in an address line.
type Extractor struct {
	parser Parser
	one    OneParser
}

// NewExtractor creates an Extractor. parser may be nil, in which case only
// the trailing-tokens fallback is used.
func NewExtractor(parser Parser, one OneParser) *Extractor {
	return &Extractor{parser: parser, one: one}
}

// PostcodeFrom returns the candidate postcode text from an address: the
// parser's postcode label when it finds one, otherwise the last two
// whitespace separated tokens.
func (e *Extractor) PostcodeFrom(line string) string {
	if e.parser != nil {
		for _, c := range e.parser.Parse(line) {
			if c.Label == "postcode" && strings.TrimSpace(c.Value) != "" {
				return strings.ToUpper(strings.TrimSpace(c.Value))
			}
		}
	}
	return trailingTokens(line)
}

// Extract parses the postcode from an address line with repair enabled.
func (e *Extractor) Extract(ctx context.Context, line string) (recognize.Recognized, error) {
	return e.one.ParseOne(ctx, e.PostcodeFrom(line), true)
}

func trailingTokens(line string) string {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == ';'
	})
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(fields[0])
	}
	last := fields[len(fields)-1]
	// a compact postcode stands alone
	if n := len(last); n >= 5 && n <= 7 {
		return strings.ToUpper(last)
	}
	return strings.ToUpper(fields[len(fields)-2] + " " + last)
}
