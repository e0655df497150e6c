// Package ocr turns receipt images into text with Tesseract.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"finlens/internal/log"
)

var ErrEmptyImage = errors.New("empty image")

// Tesseract recognizes text in images. A gosseract client is not safe for
// concurrent use, so each call gets its own.
type Tesseract struct {
	languages []string
	logger    *log.Logger
}

// NewTesseract creates a recognizer for the given languages, "eng" if none.
func NewTesseract(languages []string, logger *log.Logger) *Tesseract {
	var langs []string
	for _, l := range languages {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Tesseract{languages: langs, logger: logger.WithComponent(log.ComponentOCR)}
}

// Recognize returns the text found in img.
func (t *Tesseract) Recognize(ctx context.Context, img []byte) (string, error) {
	if len(img) == 0 {
		return "", ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}

	t.logger.DebugContext(ctx, "Image recognized",
		"bytes", len(img),
		"chars", len(text),
		"languages", strings.Join(t.languages, "+"))
	return text, nil
}
