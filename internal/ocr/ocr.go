// Package ocr feeds text recognised from scanned images into postcode
// recognition. OCR output is where confusable characters come from, so
// recognition runs in exhaustive mode unless told otherwise.
package ocr

import (
	"context"
	"errors"
	"fmt"

	"github.com/ukpostcodes/internal/postcode"
	"github.com/ukpostcodes/internal/recognize"
)

// Extractor turns an encoded image into plain text.
type Extractor interface {
	Text(ctx context.Context, image []byte) (string, error)
}

// TextParser is the part of the postcode service OCR needs.
type TextParser interface {
	ParseText(ctx context.Context, text string, mode postcode.Mode) []recognize.Recognized
}

// ErrEmptyImage is returned for zero-length input.
var ErrEmptyImage = errors.New("empty image")

// Scanner pairs an extractor with a parser.
type Scanner struct {
	extractor Extractor
	parser    TextParser
	mode      postcode.Mode
}

// NewScanner creates a Scanner that repairs in exhaustive mode.
func NewScanner(extractor Extractor, parser TextParser) *Scanner {
	return &Scanner{extractor: extractor, parser: parser, mode: postcode.Exhaustive}
}

// WithMode returns a copy of the scanner using mode.
func (s *Scanner) WithMode(mode postcode.Mode) *Scanner {
	cp := *s
	cp.mode = mode
	return &cp
}

// Scan returns the recognised text along with the postcodes found in it,
// ranked best first.
func (s *Scanner) Scan(ctx context.Context, image []byte) (string, []recognize.Recognized, error) {
	if len(image) == 0 {
		return "", nil, ErrEmptyImage
	}
	text, err := s.extractor.Text(ctx, image)
	if err != nil {
		return "", nil, fmt.Errorf("ocr: %w", err)
	}
	found := s.parser.ParseText(ctx, text, s.mode)
	recognize.Rank(found)
	return text, found, nil
}
