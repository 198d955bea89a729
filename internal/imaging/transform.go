package imaging

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
)

// Resize scales img to exactly width x height using a Lanczos filter.
//
// The aspect ratio is not preserved; non-uniform scaling is intended. Width and
// height must be positive.
func Resize(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// Rotate returns a copy of img rotated by degrees, clockwise for positive
// values. The output canvas grows to hold the whole rotated image; uncovered
// corners are transparent black.
func Rotate(img image.Image, degrees float64) image.Image {
	return transform.Rotate(img, degrees, &transform.RotationOptions{ResizeBounds: true})
}

// Grayscale converts img to a single-channel intensity image. The result is
// always an *image.Gray with its origin at (0,0).
func Grayscale(img image.Image) image.Image {
	rgba := effect.Grayscale(img)

	bounds := rgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), rgba, bounds.Min, draw.Src)
	return gray
}

// Threshold binarizes img: pixels whose intensity is at least level become
// white (255), all others black (0). The result is single-channel.
func Threshold(img image.Image, level uint8) image.Image {
	return segment.Threshold(img, level)
}

// Save writes img to path. The format is chosen from the file extension
// (png, jpg, jpeg, gif, tif, tiff, bmp). Missing parent directories are created.
func Save(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// Engine exposes the package functions as a value satisfying the pipeline's
// image transform capability.
type Engine struct{}

func (Engine) Decode(path string) (image.Image, error) { return Decode(path) }

func (Engine) Resize(img image.Image, width, height int) image.Image {
	return Resize(img, width, height)
}

func (Engine) Rotate(img image.Image, degrees float64) image.Image { return Rotate(img, degrees) }

func (Engine) Extract(img image.Image, r image.Rectangle) (image.Image, error) {
	return Extract(img, r)
}

func (Engine) Grayscale(img image.Image) image.Image { return Grayscale(img) }

func (Engine) Threshold(img image.Image, level uint8) image.Image { return Threshold(img, level) }

func (Engine) Save(img image.Image, path string) error { return Save(img, path) }

func (Engine) Metadata(img image.Image) Dimensions { return Metadata(img) }
