// Package ocr reads text from price-tag regions with the Tesseract engine.
//
// The package wraps the Tesseract OCR engine (via gosseract/v2). Images are
// passed to the engine in memory as PNG data.
//
// # Prerequisites
//
// Tesseract and its development headers must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// A custom data directory can be set with Tesseract.TessdataPrefix.
//
// # Error Handling
//
// Recognize returns errors for unsupported language codes, engine
// initialization failures and images the engine cannot read. An image without
// any text is not an error: the result is an empty string.
package ocr
