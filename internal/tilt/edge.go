package tilt

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// grid is a row-major intensity raster on the 0-255 scale.
type grid struct {
	width, height int
	pix           []float32
}

func newGrid(width, height int) *grid {
	return &grid{width: width, height: height, pix: make([]float32, width*height)}
}

func (g *grid) at(x, y int) float32 {
	return g.pix[y*g.width+x]
}

func (g *grid) set(x, y int, v float32) {
	g.pix[y*g.width+x] = v
}

// luma converts img into BT.601 luma (0.299 R + 0.587 G + 0.114 B on the
// gamma-encoded channels), rounded to whole intensity levels. This is the
// grayscale OpenCV loads, which the Canny thresholds are calibrated against.
// Fully transparent pixels count as black.
func luma(img image.Image) *grid {
	bounds := img.Bounds()
	g := newGrid(bounds.Dx(), bounds.Dy())

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c, ok := colorful.MakeColor(img.At(x+bounds.Min.X, y+bounds.Min.Y))
			if !ok {
				continue
			}
			v := clampFloat(0.299*c.R+0.587*c.G+0.114*c.B, 0, 1) * 255
			g.set(x, y, float32(math.Round(v)))
		}
	}
	return g
}

// Gradient direction sectors used by non-maximum suppression.
const (
	sectorHorizontal uint8 = iota
	sectorDiagonal
	sectorVertical
	sectorAntiDiagonal
)

// cannyEdges marks edge pixels in a grayscale grid.
//
// The steps follow the classic Canny detector:
//
//  1. Gradient computation: 3x3 Sobel operators, magnitude = |Gx| + |Gy|,
//     direction quantised to 0, 45, 90 and 135 degrees
//  2. Non-maximum suppression along the gradient direction
//  3. Hysteresis: pixels at or above high are strong edges; pixels at or above
//     low are kept only when connected (8-neighbourhood, transitively) to a
//     strong edge
//
// Border pixels are never edges. gray is consumed: its buffer holds the
// suppressed magnitudes on return.
func cannyEdges(gray *grid, low, high float64) [][]bool {
	width, height := gray.width, gray.height
	edges := make([][]bool, height)
	for y := range edges {
		edges[y] = make([]bool, width)
	}
	if width < 3 || height < 3 {
		return edges
	}

	magnitude := newGrid(width, height)
	sector := make([]uint8, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx := float64(gray.at(x+1, y-1) + 2*gray.at(x+1, y) + gray.at(x+1, y+1) -
				gray.at(x-1, y-1) - 2*gray.at(x-1, y) - gray.at(x-1, y+1))
			gy := float64(gray.at(x-1, y+1) + 2*gray.at(x, y+1) + gray.at(x+1, y+1) -
				gray.at(x-1, y-1) - 2*gray.at(x, y-1) - gray.at(x+1, y-1))
			magnitude.set(x, y, float32(math.Abs(gx)+math.Abs(gy)))
			sector[y*width+x] = quantize(math.Atan2(gy, gx))
		}
	}

	// Non-maximum suppression, written over the intensities
	suppressed := gray
	for i := range suppressed.pix {
		suppressed.pix[i] = 0
	}
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			mag := magnitude.at(x, y)
			if float64(mag) < low {
				continue
			}

			var n1, n2 float32
			switch sector[y*width+x] {
			case sectorHorizontal:
				n1, n2 = magnitude.at(x-1, y), magnitude.at(x+1, y)
			case sectorDiagonal:
				n1, n2 = magnitude.at(x-1, y-1), magnitude.at(x+1, y+1)
			case sectorVertical:
				n1, n2 = magnitude.at(x, y-1), magnitude.at(x, y+1)
			default:
				n1, n2 = magnitude.at(x+1, y-1), magnitude.at(x-1, y+1)
			}

			if mag > n1 && mag >= n2 {
				suppressed.set(x, y, mag)
			}
		}
	}

	// Hysteresis: grow from strong edges through weak ones
	stack := make([]image.Point, 0, 1024)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			if float64(suppressed.at(x, y)) >= high && !edges[y][x] {
				edges[y][x] = true
				stack = append(stack, image.Pt(x, y))
			}
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						nx, ny := p.X+kx, p.Y+ky
						if nx <= 0 || ny <= 0 || nx >= width-1 || ny >= height-1 {
							continue
						}
						if !edges[ny][nx] && float64(suppressed.at(nx, ny)) >= low {
							edges[ny][nx] = true
							stack = append(stack, image.Pt(nx, ny))
						}
					}
				}
			}
		}
	}

	return edges
}

// quantize maps a gradient angle in radians to its suppression sector.
func quantize(angle float64) uint8 {
	switch {
	case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
		return sectorHorizontal
	case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
		return sectorDiagonal
	case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
		return sectorVertical
	}
	return sectorAntiDiagonal
}

func clampFloat(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
