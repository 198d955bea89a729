package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	tagerrors "github.com/ironsheep/pricetag-ocr/internal/errors"
)

// Extract copies the pixels inside r into a new image whose origin is (0,0).
//
// The rectangle is expressed relative to the top-left corner of img, so an
// image with a non-zero bounds origin is handled the same as one starting at
// (0,0). The rectangle is never clamped: a region that is empty or extends past
// the image edges yields an OUT_OF_BOUNDS *errors.ProcessingError.
func Extract(img image.Image, r image.Rectangle) (image.Image, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if r.Min.X < 0 || r.Min.Y < 0 || r.Max.X > w || r.Max.Y > h {
		return nil, tagerrors.NewBoundsError(fmt.Sprintf(
			"extract region (%d,%d)-(%d,%d) outside image bounds (0,0)-(%d,%d)",
			r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, w, h))
	}
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return nil, tagerrors.NewBoundsError(fmt.Sprintf(
			"invalid extract region (%d,%d)-(%d,%d): empty area", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y))
	}

	return imaging.Crop(img, r.Add(bounds.Min)), nil
}
