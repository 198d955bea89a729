// Package imaging provides the image transform operations used by the price-tag
// pipeline.
//
// The package wraps disintegration/imaging and anthonynsimon/bild behind a small
// set of stateless functions: Decode, Resize, Rotate, Extract, Grayscale,
// Threshold, Save and Metadata. Every transform returns a new image and never
// modifies its input, so a caller can hold on to an earlier stage's image
// while producing the next one. Engine bundles the functions into a value that
// satisfies the pipeline's transform capability.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Rectangles are half-open:
// Min is inclusive, Max is exclusive. Extract interprets a rectangle relative
// to the image's own top-left corner, whatever its bounds origin.
//
// # Rotation
//
// Rotate takes degrees with positive values turning the image clockwise. The
// canvas grows to fit the rotated content; uncovered corners are transparent.
//
// # Supported Formats
//
// Decode reads PNG, JPEG, GIF, BMP, TIFF and WebP through the standard image
// registry, plus HEIC/HEIF (as produced by most phone cameras) through
// gen2brain/heic. EXIF orientation is applied to JPEG and TIFF input.
//
// # Error Handling
//
//   - Decode returns a DECODE_FAILED error for unreadable or unsupported files
//   - Extract returns an OUT_OF_BOUNDS error for rectangles that are empty or
//     leave the image; rectangles are never clamped
//   - Save returns wrapped I/O or encoding errors
package imaging
