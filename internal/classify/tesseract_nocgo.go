//go:build !(cgo && linux)

package classify

import "fmt"

func newTesseract(Options) (Classifier, error) {
	return nil, fmt.Errorf("%w: tesseract requires a cgo build on linux", ErrUnavailable)
}
