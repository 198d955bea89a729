// Package tilt estimates how far a photographed price tag is rotated.
//
// An Estimator maps an image file to a signed angle in degrees, positive for a
// clockwise skew. Two implementations are provided:
//
//   - HoughEstimator runs entirely in Go: it builds a Canny edge map, votes in
//     a Hough line accumulator and reports the median dominant line angle
//     relative to a reference angle.
//   - CommandEstimator shells out to an external program (by default the
//     detect_tilt.py script) and parses the number it prints.
//
// # Error Handling
//
// An estimator never falls back to zero on failure. Output that is not a
// finite number, a failing command, or an unreadable image all produce an
// error; ParseAngle and the estimators return TILT_ESTIMATION_FAILED errors
// except for images that cannot be decoded, which keep their DECODE_FAILED
// classification.
package tilt
