package tilt

import (
	"math"
	"sort"
)

// houghLineAngles runs a standard Hough line transform over an edge map and
// returns the normal angle, in whole degrees [0, 180), of every detected line.
//
// Lines are parameterised as rho = x*cos(theta) + y*sin(theta) with a 1 pixel
// rho step and a 1 degree theta step. A cell is reported when its vote count
// exceeds threshold and it is a local maximum against its four neighbours in
// the accumulator; ties are resolved towards the lower rho/theta neighbour.
// Results are ordered by vote count, highest first.
func houghLineAngles(edges [][]bool, threshold int) []float64 {
	height := len(edges)
	if height == 0 {
		return nil
	}
	width := len(edges[0])

	const numAngles = 180
	numRho := 2*(width+height) + 1
	rhoOffset := (numRho - 1) / 2

	cosTable := make([]float64, numAngles)
	sinTable := make([]float64, numAngles)
	for theta := 0; theta < numAngles; theta++ {
		angle := float64(theta) * math.Pi / 180.0
		cosTable[theta] = math.Cos(angle)
		sinTable[theta] = math.Sin(angle)
	}

	// Accumulator padded by one cell on every side so neighbour checks need no
	// bounds tests
	stride := numRho + 2
	accumulator := make([]int, (numAngles+2)*stride)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !edges[y][x] {
				continue
			}
			for theta := 0; theta < numAngles; theta++ {
				rho := int(math.Round(float64(x)*cosTable[theta]+float64(y)*sinTable[theta])) + rhoOffset
				accumulator[(theta+1)*stride+rho+1]++
			}
		}
	}

	type peak struct {
		theta int
		votes int
	}
	peaks := make([]peak, 0)

	for theta := 0; theta < numAngles; theta++ {
		for rho := 0; rho < numRho; rho++ {
			base := (theta+1)*stride + rho + 1
			v := accumulator[base]
			if v > threshold &&
				v > accumulator[base-1] && v >= accumulator[base+1] &&
				v > accumulator[base-stride] && v >= accumulator[base+stride] {
				peaks = append(peaks, peak{theta: theta, votes: v})
			}
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})

	angles := make([]float64, len(peaks))
	for i, p := range peaks {
		angles[i] = float64(p.theta)
	}
	return angles
}

// median returns the middle value of values, averaging the two middle values
// for even lengths. values must not be empty; it is not modified.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
