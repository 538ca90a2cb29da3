// Package tesseract implements ocr.Extractor with the Tesseract engine.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Whitelist limits recognition to characters that appear in addresses.
const Whitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 ,.-/()'&"

// Engine extracts text with a fresh gosseract client per image.
type Engine struct {
	clientFactory func() *gosseract.Client
	languages     []string
	whitelist     string
}

// New constructs an engine for the given languages, "eng" when none.
func New(languages ...string) *Engine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Engine{clientFactory: gosseract.NewClient, languages: languages, whitelist: Whitelist}
}

// Text performs OCR on one encoded image.
func (e *Engine) Text(ctx context.Context, image []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if e.whitelist != "" {
		if err := c.SetWhitelist(e.whitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
