// Package postcode implements the structural grammar of UK postcodes and the
// repair of characters that OCR commonly confuses.
//
// A postcode is an outcode (area, district and an optional sub-district
// letter) followed by a three character incode (sector digit and two unit
// letters). Six outcode shapes are recognised:
//
//	A9 9AA   A99 9AA   A9A 9AA   AA9 9AA   AA99 9AA   AA9A 9AA
//
// where A is a letter and 9 a digit. Everything in this package is pure and
// safe for concurrent use.
package postcode

import (
	"fmt"
	"strings"
	"unicode"
)

// Shape identifies one of the six postcode layouts.
type Shape int

// Declaration order is significant: it breaks ties between equally cheap
// repairs.
const (
	ShapeA9 Shape = iota
	ShapeA99
	ShapeA9A
	ShapeAA9
	ShapeAA99
	ShapeAA9A
)

// Shapes lists every shape in declaration order.
var Shapes = []Shape{ShapeA9, ShapeA99, ShapeA9A, ShapeAA9, ShapeAA99, ShapeAA9A}

var outcodeTemplates = [...]string{"A9", "A99", "A9A", "AA9", "AA99", "AA9A"}

const (
	incodeTemplate = "9AA"
	incodeLen      = len(incodeTemplate)

	classLetter = 'A'
	classDigit  = '9'

	minCompactLen = 2 + incodeLen
	maxCompactLen = 4 + incodeLen
)

// Template returns the outcode template, e.g. "AA9A".
func (s Shape) Template() string {
	if s < 0 || int(s) >= len(outcodeTemplates) {
		return ""
	}
	return outcodeTemplates[s]
}

// String renders the full template, e.g. "AA9A 9AA".
func (s Shape) String() string {
	return s.Template() + " " + incodeTemplate
}

// MarshalText lets shapes appear as their template in JSON.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// HasSubDistrict reports whether the outcode ends in a letter.
func (s Shape) HasSubDistrict() bool {
	t := s.Template()
	return t != "" && t[len(t)-1] == classLetter
}

// expectedAt returns the character class the shape wants at position i of
// the compact (space free) postcode.
func (s Shape) expectedAt(i int) byte {
	t := s.Template()
	if i < len(t) {
		return t[i]
	}
	return incodeTemplate[i-len(t)]
}

func (s Shape) compactLen() int {
	return len(s.Template()) + incodeLen
}

func (s Shape) areaLen() int {
	t := s.Template()
	n := 0
	for n < len(t) && t[n] == classLetter {
		n++
	}
	return n
}

// Parsed is the structural decomposition of a valid postcode.
type Parsed struct {
	Postcode    string  `json:"postcode"`
	Outcode     string  `json:"outcode"`
	Incode      string  `json:"incode"`
	Area        string  `json:"area"`
	District    string  `json:"district"`
	SubDistrict *string `json:"sub_district"`
	Sector      string  `json:"sector"`
	Unit        string  `json:"unit"`
	Shape       Shape   `json:"shape"`
}

// String reassembles the postcode from its outcode and incode.
func (p Parsed) String() string {
	return p.Outcode + " " + p.Incode
}

// Compact upper-cases the token and strips all whitespace. It fails with
// ErrInvalidFormat when the token holds anything other than letters, digits
// and whitespace, or when its length cannot belong to any shape.
func Compact(token string) (string, error) {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		switch {
		case unicode.IsSpace(r):
			continue
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidFormat, token, r)
		}
	}

	compact := b.String()
	if len(compact) < minCompactLen || len(compact) > maxCompactLen {
		return "", fmt.Errorf("%w: %q has %d characters, want %d-%d",
			ErrInvalidFormat, token, len(compact), minCompactLen, maxCompactLen)
	}
	return compact, nil
}

// format inserts the single space before the incode.
func format(compact string) string {
	split := len(compact) - incodeLen
	return compact[:split] + " " + compact[split:]
}

// Normalise returns the token upper-cased with exactly one space before the
// last three characters. It does not check the letter/digit layout.
func Normalise(token string) (string, error) {
	compact, err := Compact(token)
	if err != nil {
		return "", err
	}
	return format(compact), nil
}

// Classify normalises the token and reports which shape it matches.
func Classify(token string) (Shape, bool) {
	compact, err := Compact(token)
	if err != nil {
		return 0, false
	}
	return classifyCompact(compact)
}

// IsValid reports whether the token normalises to one of the six shapes.
func IsValid(token string) bool {
	_, ok := Classify(token)
	return ok
}

func classifyCompact(compact string) (Shape, bool) {
	for _, s := range Shapes {
		if s.compactLen() != len(compact) {
			continue
		}
		if fits(compact, s) {
			return s, true
		}
	}
	return 0, false
}

func fits(compact string, s Shape) bool {
	for i := 0; i < len(compact); i++ {
		if classOf(compact[i]) != s.expectedAt(i) {
			return false
		}
	}
	return true
}

func classOf(ch byte) byte {
	if ch >= '0' && ch <= '9' {
		return classDigit
	}
	return classLetter
}

// Decompose splits a postcode into its structural parts. The token is
// normalised first; ErrInvalidFormat is returned when it matches no shape.
func Decompose(token string) (Parsed, error) {
	compact, err := Compact(token)
	if err != nil {
		return Parsed{}, err
	}
	shape, ok := classifyCompact(compact)
	if !ok {
		return Parsed{}, fmt.Errorf("%w: %q matches no postcode shape", ErrInvalidFormat, token)
	}
	return decompose(compact, shape), nil
}

func decompose(compact string, shape Shape) Parsed {
	split := len(compact) - incodeLen
	outcode, incode := compact[:split], compact[split:]

	p := Parsed{
		Postcode: outcode + " " + incode,
		Outcode:  outcode,
		Incode:   incode,
		Area:     outcode[:shape.areaLen()],
		District: outcode,
		Sector:   outcode + " " + incode[:1],
		Unit:     incode[1:],
		Shape:    shape,
	}
	if shape.HasSubDistrict() {
		p.District = outcode[:len(outcode)-1]
		sub := outcode
		p.SubDistrict = &sub
	}
	return p
}
