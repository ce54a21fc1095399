// Package imaging loads symbol images and turns them into ink masks and crops.
//
// It covers the pixel-level half of the segmentation pipeline: decoding input
// files, the Binarizer (grayscale conversion, smoothing, thresholding and
// morphological closing), the Cropper, and small helpers used by the diagnostic
// surfaces (PNG encoding, mask dumps and region annotation).
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For rectangles, Min is inclusive and Max is exclusive
//
// Images returned by this package always have bounds starting at (0,0), even
// when the input is a sub-image with an offset origin.
//
// # Masks
//
// A mask is an *image.Gray in which ink pixels are 255 and background pixels
// are 0, regardless of whether the source had dark ink on light paper or light
// ink on a dark board.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function is
// stateless and never modifies its input image.
//
// # Error Handling
//
// Load and DecodeBase64 wrap ErrNotFound or ErrDecode so callers can tell a
// missing input from an unreadable one with errors.Is.
package imaging
