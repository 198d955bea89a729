package tilt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os/exec"
	"strconv"
	"strings"

	tagerrors "github.com/ironsheep/pricetag-ocr/internal/errors"
	"github.com/ironsheep/pricetag-ocr/internal/imaging"
)

// Estimator reports the skew of the image stored at path in degrees.
// Positive angles mean the content is rotated clockwise.
type Estimator interface {
	Estimate(ctx context.Context, path string) (float64, error)
}

// HoughEstimator estimates tilt from straight edges in the image.
type HoughEstimator struct {
	// LowThreshold and HighThreshold are the Canny hysteresis thresholds on the
	// 0-255 intensity scale.
	LowThreshold  float64
	HighThreshold float64

	// VoteThreshold is the number of edge pixels a line needs to be counted.
	VoteThreshold int

	// ReferenceAngle is the line angle (degrees, Hough normal convention)
	// that corresponds to an upright tag.
	ReferenceAngle float64
}

// NewHoughEstimator returns an estimator with the thresholds the tag layout
// was calibrated with.
func NewHoughEstimator() *HoughEstimator {
	return &HoughEstimator{
		LowThreshold:   50,
		HighThreshold:  150,
		VoteThreshold:  200,
		ReferenceAngle: 84.7,
	}
}

// Estimate decodes the image at path and returns its tilt.
func (h *HoughEstimator) Estimate(ctx context.Context, path string) (float64, error) {
	img, err := imaging.Decode(path)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, tagerrors.NewTiltEstimationError("estimation cancelled", err)
	}
	return h.EstimateImage(img), nil
}

// EstimateImage returns the tilt of an already decoded image. An image without
// any line above the vote threshold is reported as upright (0).
func (h *HoughEstimator) EstimateImage(img image.Image) float64 {
	edges := cannyEdges(luma(img), h.LowThreshold, h.HighThreshold)

	angles := houghLineAngles(edges, h.VoteThreshold)
	if len(angles) == 0 {
		return 0
	}
	return median(angles) - h.ReferenceAngle
}

// CommandEstimator runs an external program with the image path appended to
// Args and parses its standard output as the tilt angle.
type CommandEstimator struct {
	Command string
	Args    []string
}

// NewCommandEstimator returns an estimator running "python3 <script>".
func NewCommandEstimator(script string) *CommandEstimator {
	return &CommandEstimator{
		Command: "python3",
		Args:    []string{script},
	}
}

// Estimate runs the command and parses the angle it prints.
func (c *CommandEstimator) Estimate(ctx context.Context, path string) (float64, error) {
	args := append(append([]string{}, c.Args...), path)
	cmd := exec.CommandContext(ctx, c.Command, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return 0, tagerrors.NewTiltEstimationError(fmt.Sprintf("tilt command %q failed", c.Command), err)
	}

	return ParseAngle(string(out))
}

// ParseAngle converts estimator output into degrees. Surrounding whitespace is
// ignored; anything that is not a finite number is an error.
func ParseAngle(output string) (float64, error) {
	s := strings.TrimSpace(output)

	angle, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, tagerrors.NewTiltEstimationError(fmt.Sprintf("non-numeric tilt output %q", s), err)
	}
	if err := CheckAngle(angle); err != nil {
		return 0, err
	}
	return angle, nil
}

// CheckAngle rejects NaN and infinite angles.
func CheckAngle(angle float64) error {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return tagerrors.NewTiltEstimationError(fmt.Sprintf("tilt angle %v is not a finite number", angle), nil)
	}
	return nil
}
