package pipeline

import (
	"errors"
	"fmt"

	"github.com/ironsheep/symbol-segmenter/internal/classify"
	"github.com/ironsheep/symbol-segmenter/internal/imaging"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	// KindMissingArgument means no input image was given.
	KindMissingArgument Kind = "MissingArgument"

	// KindInputNotFound means the input path does not exist.
	KindInputNotFound Kind = "InputNotFound"

	// KindImageLoad means the input exists but could not be decoded.
	KindImageLoad Kind = "ImageLoadError"

	// KindClassifierLoad means the classifier backend could not be loaded.
	KindClassifierLoad Kind = "ClassifierLoadError"

	// KindUnexpected covers every other failure.
	KindUnexpected Kind = "UnexpectedError"
)

// Error is a classified pipeline failure. Msg is the human-readable message
// reported to the user; Err, when set, is the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Errors that are neither *Error nor a known leaf
// sentinel are KindUnexpected.
func KindOf(err error) Kind {
	var pe *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &pe):
		return pe.Kind
	case errors.Is(err, imaging.ErrNotFound):
		return KindInputNotFound
	case errors.Is(err, imaging.ErrDecode):
		return KindImageLoad
	case errors.Is(err, classify.ErrUnavailable), errors.Is(err, classify.ErrUnknownClassifier):
		return KindClassifierLoad
	}
	return KindUnexpected
}

// Classify converts any error into an *Error with a user-facing message. An
// *Error is returned unchanged.
func Classify(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	kind := KindOf(err)
	var msg string
	switch kind {
	case KindInputNotFound:
		msg = fmt.Sprintf("Image path does not exist: %s", trimSentinel(err, imaging.ErrNotFound))
	case KindImageLoad:
		msg = fmt.Sprintf("Failed to process image: %v", err)
	case KindClassifierLoad:
		msg = fmt.Sprintf("Failed to load model: %v", err)
	default:
		msg = fmt.Sprintf("Unexpected error: %v", err)
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// MissingArgument returns the error reported when no image path is given.
func MissingArgument() *Error {
	return &Error{Kind: KindMissingArgument, Msg: "No image path provided"}
}

// trimSentinel strips the "<sentinel>: " prefix that imaging adds in front of
// the path, leaving just the path.
func trimSentinel(err, sentinel error) string {
	s := err.Error()
	prefix := sentinel.Error() + ": "
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}
