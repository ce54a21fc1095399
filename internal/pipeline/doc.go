// Package pipeline wires the segmentation stages together and assembles the
// prediction set for an image.
//
// The stages run in a fixed order:
//
//	Binarize -> ExtractRegions -> Filter -> SortLeftToRight -> CropWithMargin -> Classify
//
// Surviving crops are numbered 1..N in reading order with no gaps. Failures
// are reported as *Error values carrying a Kind, so callers can map them to
// user-facing messages without inspecting error strings.
package pipeline
