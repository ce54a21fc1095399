// Package classify maps cropped symbol images to labels.
//
// A Classifier is the pipeline's only external collaborator. Two backends are
// available and selected by name through New:
//
//   - "tesseract": the Tesseract OCR engine (via gosseract/v2) in
//     single-character mode, restricted to the symbol vocabulary
//   - "random": a stub that draws labels from the vocabulary, for running the
//     pipeline where no recognizer is installed
//
// # Prerequisites
//
// The Tesseract backend needs a cgo build and an installed engine:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// When the engine or its language data is missing, New returns an error
// wrapping ErrUnavailable.
//
// # Vocabulary
//
// Labels come from a closed set: digits 0-9, the operators + - × ÷ =,
// parentheses, the functions sin cos tan log √ ∫, the variables a b c x y and
// the constant π. Recognizer output outside that set is reported as Unknown.
package classify
