package pipeline

import (
	"context"
	"image"

	"github.com/ironsheep/pricetag-ocr/internal/imaging"
)

// Transformer is the image transform capability the pipeline runs on.
// Implementations must not modify their input images.
type Transformer interface {
	Decode(path string) (image.Image, error)
	Resize(img image.Image, width, height int) image.Image
	// Rotate turns img by degrees, clockwise for positive values.
	Rotate(img image.Image, degrees float64) image.Image
	Extract(img image.Image, r image.Rectangle) (image.Image, error)
	Grayscale(img image.Image) image.Image
	Threshold(img image.Image, level uint8) image.Image
	Save(img image.Image, path string) error
	Metadata(img image.Image) imaging.Dimensions
}

// Recognizer is the text recognition capability. Calls for different images
// must be safe to run concurrently.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, language string) (string, error)
}

var _ Transformer = imaging.Engine{}
