package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukpostcodes/internal/corpus/corpustest"
	"github.com/ukpostcodes/internal/directory"
	"github.com/ukpostcodes/internal/postcode"
	"github.com/ukpostcodes/internal/recognize"
)

type fixedText struct {
	text string
	err  error
}

func (f fixedText) Text(context.Context, []byte) (string, error) {
	return f.text, f.err
}

func newParser() TextParser {
	return recognize.New(directory.New(corpustest.Memory()))
}

func TestScanRanksOCRText(t *testing.T) {
	s := NewScanner(fixedText{text: "Her Majesty\nBuckingham Palace\nLondon SWlA lAA\n"}, newParser())

	text, found, err := s.Scan(context.Background(), []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Contains(t, text, "Buckingham")
	require.NotEmpty(t, found)
	assert.Equal(t, "SW1A 1AA", found[0].Postcode)
	assert.True(t, found[0].InDirectory)
	assert.Equal(t, -2, found[0].Distance)
}

func TestScanSingleMode(t *testing.T) {
	s := NewScanner(fixedText{text: "OOO 4SS"}, newParser()).WithMode(postcode.Single)
	_, found, err := s.Scan(context.Background(), []byte("img"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "O0O 4SS", found[0].Postcode)
}

func TestScanErrors(t *testing.T) {
	s := NewScanner(fixedText{err: errors.New("tesseract missing")}, newParser())

	_, _, err := s.Scan(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, _, err = s.Scan(context.Background(), []byte("img"))
	assert.ErrorContains(t, err, "tesseract missing")
}
