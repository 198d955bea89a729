package imaging

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	tagerrors "github.com/ironsheep/pricetag-ocr/internal/errors"
)

// Decode reads and decodes the image at path.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF, WebP and HEIC/HEIF. JPEG and
// TIFF images carrying an EXIF orientation tag are rotated upright so that the
// pixel grid matches what the camera operator saw.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: A DECODE_FAILED *errors.ProcessingError if the file cannot be opened
//     or is not a supported image.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tagerrors.NewDecodeError(path, fmt.Errorf("failed to open image: %w", err))
	}
	defer f.Close()

	img, err := DecodeReader(f)
	if err != nil {
		return nil, tagerrors.NewDecodeError(path, err)
	}
	return img, nil
}

// DecodeReader decodes an image from r. See Decode for the supported formats.
func DecodeReader(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)

	// HEIC has no registered decoder, sniff the ftyp box first
	header, _ := br.Peek(12)
	if isHEICFormat(header) {
		img, err := heic.Decode(br)
		if err != nil {
			return nil, fmt.Errorf("failed to decode HEIC image: %w", err)
		}
		return img, nil
	}

	img, err := imaging.Decode(br, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// isHEICFormat checks the ISO BMFF ftyp box for a HEIC/HEIF brand.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || !bytes.Equal(data[4:8], []byte("ftyp")) {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// Dimensions contains the width and height of an image.
type Dimensions struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// Metadata returns the dimensions of an already decoded image.
func Metadata(img image.Image) Dimensions {
	bounds := img.Bounds()
	return Dimensions{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
}
