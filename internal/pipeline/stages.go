package pipeline

import (
	"errors"
	"fmt"
	"image"
	"math"

	tagerrors "github.com/ironsheep/pricetag-ocr/internal/errors"
	"github.com/ironsheep/pricetag-ocr/internal/region"
)

// DefaultDeskewThreshold is the tilt, in degrees, up to which an image is
// left unrotated.
const DefaultDeskewThreshold = 1.0

// Deskew counter-rotates img by angle when |angle| exceeds threshold and
// reports whether it did. Otherwise img itself is returned and t is not used.
func Deskew(t Transformer, img image.Image, angle, threshold float64) (image.Image, bool) {
	if math.Abs(angle) <= threshold {
		return img, false
	}
	return t.Rotate(img, -angle), true
}

// Normalize resizes img to the canonical frame, ignoring its aspect ratio.
func Normalize(t Transformer, img image.Image, frame region.Frame) (image.Image, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("invalid canonical frame %dx%d", frame.Width, frame.Height)
	}

	out := t.Resize(img, frame.Width, frame.Height)
	if out == nil {
		return nil, errors.New("resize produced no image")
	}
	if dims := t.Metadata(out); dims.Width != frame.Width || dims.Height != frame.Height {
		return nil, fmt.Errorf("resize produced %dx%d, want %dx%d", dims.Width, dims.Height, frame.Width, frame.Height)
	}
	return out, nil
}

// Prepare extracts a candidate's pixels from the normalized image. Price
// regions are additionally converted to grayscale and binarized at
// priceThreshold; label regions are returned as extracted.
//
// Any extraction failure is reported as an OUT_OF_BOUNDS error.
func Prepare(t Transformer, img image.Image, c region.Candidate, priceThreshold uint8) (image.Image, error) {
	out, err := t.Extract(img, c.Rect.Image())
	if err != nil {
		if errors.Is(err, tagerrors.ErrBounds) {
			return nil, err
		}
		return nil, &tagerrors.ProcessingError{
			Code:    tagerrors.ErrorOutOfBounds,
			Message: fmt.Sprintf("cannot extract %s %s", c.ID(), c.Rect),
			Cause:   err,
		}
	}

	if c.Kind == region.Price {
		out = t.Threshold(t.Grayscale(out), priceThreshold)
	}
	return out, nil
}
