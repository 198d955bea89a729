package region

import (
	"fmt"
	"image"
	"math"

	tagerrors "github.com/ironsheep/pricetag-ocr/internal/errors"
)

// Frame is the canonical coordinate space all regions are defined against.
type Frame struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is a rectangle in canonical frame pixels.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Image returns the rectangle as a half-open image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

func (r Rect) String() string {
	return fmt.Sprintf("{left:%d top:%d width:%d height:%d}", r.Left, r.Top, r.Width, r.Height)
}

// Validate checks that r has a positive size and lies entirely inside f.
// A violation is an OUT_OF_BOUNDS error.
func (r Rect) Validate(f Frame) error {
	switch {
	case r.Width <= 0 || r.Height <= 0:
		return tagerrors.NewBoundsError(fmt.Sprintf("region %s has no area", r))
	case r.Left < 0 || r.Top < 0:
		return tagerrors.NewBoundsError(fmt.Sprintf("region %s starts before the frame origin", r))
	case r.Left+r.Width > f.Width:
		return tagerrors.NewBoundsError(fmt.Sprintf("region %s: left+width %d > frame width %d", r, r.Left+r.Width, f.Width))
	case r.Top+r.Height > f.Height:
		return tagerrors.NewBoundsError(fmt.Sprintf("region %s: top+height %d > frame height %d", r, r.Top+r.Height, f.Height))
	}
	return nil
}

// Kind distinguishes the two regions of a price tag.
type Kind int

const (
	Label Kind = iota
	Price
)

func (k Kind) String() string {
	switch k {
	case Label:
		return "label"
	case Price:
		return "price"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Candidate is a proposed region awaiting extraction and recognition.
type Candidate struct {
	Kind      Kind `json:"kind"`
	Rect      Rect `json:"rect"`
	TopOffset int  `json:"top_offset"`
}

// ID identifies the candidate within one run: "label@<top>" or "price".
func (c Candidate) ID() string {
	if c.Kind == Label {
		return fmt.Sprintf("label@%d", c.TopOffset)
	}
	return c.Kind.String()
}

// scaledHeight returns round(frameHeight * fraction), rounding halves away
// from zero.
func scaledHeight(frameHeight int, fraction float64) int {
	return int(math.Round(float64(frameHeight) * fraction))
}
