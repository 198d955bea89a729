package region

import (
	"fmt"
	"sort"
	"strings"
)

// RegionSpec describes one region relative to the frame.
type RegionSpec struct {
	// Left is the left edge in frame pixels.
	Left int `json:"left"`

	// Top is the top edge in frame pixels. Ignored for labels, whose top comes
	// from the profile's LabelOffsets.
	Top int `json:"top"`

	// Width in frame pixels; 0 means the full frame width.
	Width int `json:"width"`

	// HeightFraction is the region height as a fraction of the frame height.
	HeightFraction float64 `json:"height_fraction"`
}

// Rect resolves the region against a frame with the given top edge.
func (s RegionSpec) Rect(f Frame, top int) Rect {
	width := s.Width
	if width == 0 {
		width = f.Width
	}
	return Rect{
		Left:   s.Left,
		Top:    top,
		Width:  width,
		Height: scaledHeight(f.Height, s.HeightFraction),
	}
}

// Profile is a named region geometry for one price-tag layout.
type Profile struct {
	Name string `json:"name"`

	// LabelOffsets are the label top edges to scan, in scan order.
	LabelOffsets []int      `json:"label_offsets"`
	Label        RegionSpec `json:"label"`
	Price        RegionSpec `json:"price"`

	// PriceThreshold is the luminance level (0-255) the price region is
	// binarized at.
	PriceThreshold uint8 `json:"price_threshold"`

	// Language is the recognition language profile, e.g. "eng".
	Language string `json:"language"`

	// Deskew enables tilt correction before normalization.
	Deskew bool `json:"deskew"`
}

// DefaultFrame is the canonical frame both built-in profiles are calibrated for.
var DefaultFrame = Frame{Width: 418, Height: 208}

// OffsetRange returns count consecutive offsets starting at start.
func OffsetRange(start, count int) []int {
	if count <= 0 {
		return nil
	}
	offsets := make([]int, count)
	for i := range offsets {
		offsets[i] = start + i
	}
	return offsets
}

// ScanProfile scans fifteen label positions (tops 110..124) on a deskewed
// image and reads the price from a full-width band below the top edge.
func ScanProfile() Profile {
	return Profile{
		Name:           "scan",
		LabelOffsets:   OffsetRange(110, 15),
		Label:          RegionSpec{Left: 0, Width: 0, HeightFraction: 0.2},
		Price:          RegionSpec{Left: 0, Top: 55, Width: 0, HeightFraction: 0.3},
		PriceThreshold: 150,
		Language:       "eng",
		Deskew:         true,
	}
}

// FixedProfile reads a single label band near the top of the tag and the price
// from the lower right, without tilt correction.
func FixedProfile() Profile {
	return Profile{
		Name:           "fixed",
		LabelOffsets:   []int{10},
		Label:          RegionSpec{Left: 0, Width: 0, HeightFraction: 0.3},
		Price:          RegionSpec{Left: 190, Top: 80, Width: 200, HeightFraction: 0.5},
		PriceThreshold: 150,
		Language:       "eng",
		Deskew:         false,
	}
}

var profiles = map[string]func() Profile{
	"scan":  ScanProfile,
	"fixed": FixedProfile,
}

// LookupProfile returns a fresh copy of the named built-in profile.
func LookupProfile(name string) (Profile, error) {
	fn, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(ProfileNames(), ", "))
	}
	return fn(), nil
}

// ProfileNames lists the built-in profiles in alphabetical order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
