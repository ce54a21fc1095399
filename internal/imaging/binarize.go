package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// BinarizeOptions bundles every stage of the Binarizer.
type BinarizeOptions struct {
	Gray      GrayMode
	Smooth    SmoothOptions
	Threshold ThresholdOptions

	// ClosingRadius, when positive, runs a morphological closing (dilate then
	// erode) over the mask to bridge hairline gaps inside strokes.
	ClosingRadius int
}

// DefaultBinarizeOptions returns the edge-preserving adaptive configuration:
// bilateral smoothing, local-mean thresholding and a 1px closing.
func DefaultBinarizeOptions() BinarizeOptions {
	return BinarizeOptions{
		Gray: GrayLuma,
		Smooth: SmoothOptions{
			Method:     SmoothBilateral,
			Radius:     4,
			SigmaColor: 75,
			SigmaSpace: 75,
		},
		Threshold: ThresholdOptions{
			Method:    ThresholdAdaptive,
			Polarity:  PolarityAuto,
			Level:     127,
			BlockSize: 15,
			Offset:    10,
		},
		ClosingRadius: 1,
	}
}

// SimpleBinarizeOptions returns the plain configuration: no smoothing, a global
// Otsu cutoff and no morphology.
func SimpleBinarizeOptions() BinarizeOptions {
	opts := DefaultBinarizeOptions()
	opts.Smooth = SmoothOptions{Method: SmoothNone}
	opts.Threshold.Method = ThresholdOtsu
	opts.ClosingRadius = 0
	return opts
}

// Binarize converts img into an ink mask: ink pixels are 255 and background
// pixels are 0. The returned mask has bounds starting at (0,0) and the same
// size as img.
//
// # Stages
//
//  1. Flatten transparency onto white and reduce to one channel (opts.Gray)
//  2. Smooth noise (opts.Smooth)
//  3. Threshold with polarity resolution (opts.Threshold)
//  4. Optionally close small gaps (opts.ClosingRadius)
func Binarize(img image.Image, opts BinarizeOptions) *image.Gray {
	gray := ToGray(img, opts.Gray)
	smoothed := Smooth(gray, opts.Smooth)
	mask := Threshold(smoothed, opts.Threshold)
	if opts.ClosingRadius > 0 {
		mask = Close(mask, opts.ClosingRadius)
	}
	return mask
}

// Close performs a morphological closing on a binary mask using a square
// structuring element of side 2*radius+1.
func Close(mask *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		return cloneGray(mask)
	}
	dilated := effect.Dilate(mask, float64(radius))
	closed := effect.Erode(dilated, float64(radius))
	return grayFromRGBA(closed)
}
