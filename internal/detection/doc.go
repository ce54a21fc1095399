// Package detection finds symbol regions in a binarized ink mask.
//
// It implements the geometric half of the segmentation pipeline:
//
//   - ExtractRegions: connected-component labelling that reports only the
//     outermost components, so the loop of a "0" and anything drawn inside it
//     never become regions of their own
//   - Filter: drops specks and implausibly thin or wide artifacts
//   - SortLeftToRight: recovers reading order for a single-line expression
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Region.Rect uses inclusive top-left and exclusive bottom-right
//
// # Limitations
//
// Ordering is purely by left edge. Multi-line input, exponents and stacked
// fractions are not laid out, and symbols made of several disconnected strokes
// (such as "=" or "÷") are reported as several regions.
package detection
