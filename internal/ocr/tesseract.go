package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is the Tesseract language used when none is given.
const DefaultLanguage = "eng"

// Tesseract recognizes text in in-memory images with the Tesseract engine.
//
// A new engine client is created for every call, so a single Tesseract value
// can be shared by concurrent goroutines.
type Tesseract struct {
	// TessdataPrefix overrides the directory holding *.traineddata files.
	// Empty uses the engine's compiled-in default (or TESSDATA_PREFIX).
	TessdataPrefix string

	// PageSegMode selects Tesseract's page segmentation mode. Zero keeps the
	// engine default (fully automatic segmentation).
	PageSegMode gosseract.PageSegMode
}

// NewTesseract returns a recognizer using the default tessdata location.
func NewTesseract() *Tesseract {
	return &Tesseract{}
}

// Recognize performs OCR on img and returns the recognized text with leading
// and trailing whitespace removed.
//
// Parameters:
//   - ctx: Checked before the engine starts; a running recognition is not
//     interrupted.
//   - img: The region to read. It is encoded to PNG and handed to Tesseract
//     in memory, no temporary file is written.
//   - language: Tesseract language code (e.g., "eng"). Empty means
//     DefaultLanguage. The language data must be installed.
//
// Returns:
//   - string: The trimmed text; empty when the region holds no readable text.
//   - error: Non-nil if encoding, engine setup, or recognition fails.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if language == "" {
		language = DefaultLanguage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode region: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}

	if t.PageSegMode != 0 {
		if err := client.SetPageSegMode(t.PageSegMode); err != nil {
			return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
}

// GetInfo reports the linked Tesseract version.
func GetInfo() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	return Info{
		Available: version != "",
		Version:   version,
		Backend:   "gosseract",
	}
}
