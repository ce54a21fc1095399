package classify

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"
)

var (
	// ErrUnavailable is returned when a classifier backend cannot be loaded,
	// for example when Tesseract or its language data is not installed.
	ErrUnavailable = errors.New("classifier backend unavailable")

	// ErrUnknownClassifier is returned by New for an unrecognized name.
	ErrUnknownClassifier = errors.New("unknown classifier")
)

// Classifier names accepted by New.
const (
	NameRandom    = "random"
	NameTesseract = "tesseract"
)

// Names lists the classifier names accepted by New.
var Names = []string{NameRandom, NameTesseract}

// Classifier maps a cropped symbol image to a label from Vocabulary.
type Classifier interface {
	// Classify returns the label for img. Implementations return Unknown
	// rather than an error when the crop is readable but not recognized.
	Classify(ctx context.Context, img image.Image) (string, error)

	// Close releases any resources held by the classifier.
	Close() error
}

// Prediction is a label together with the classifier's confidence in it,
// from 0 to 1.
type Prediction struct {
	Label      string
	Confidence float64
}

// Scorer is implemented by classifiers that can report a confidence with each
// label.
type Scorer interface {
	ClassifyWithConfidence(ctx context.Context, img image.Image) (Prediction, error)
}

// Predict classifies img with c. Classifiers that do not implement Scorer are
// reported with full confidence.
func Predict(ctx context.Context, c Classifier, img image.Image) (Prediction, error) {
	if s, ok := c.(Scorer); ok {
		return s.ClassifyWithConfidence(ctx, img)
	}
	label, err := c.Classify(ctx, img)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Label: label, Confidence: 1}, nil
}

// Options selects and configures a classifier.
type Options struct {
	// Name is one of Names.
	Name string

	// Seed seeds the random classifier. Zero picks a time-based seed.
	Seed int64

	// Language is the Tesseract language code. Defaults to "eng".
	Language string

	// TessdataPrefix overrides the directory Tesseract loads language data from.
	TessdataPrefix string

	// Logger receives the classifier's own diagnostics. Pass a scoped logger
	// to keep backend chatter out of the pipeline's output.
	Logger zerolog.Logger
}

// New constructs the classifier named by opts.Name.
//
// The backend is loaded eagerly so a missing model surfaces here rather than
// on the first crop. Load failures wrap ErrUnavailable.
func New(opts Options) (Classifier, error) {
	switch opts.Name {
	case NameRandom:
		return NewRandom(opts.Seed), nil
	case NameTesseract:
		if opts.Language == "" {
			opts.Language = "eng"
		}
		return newTesseract(opts)
	}
	return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownClassifier, opts.Name, Names)
}
