package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/segment"
)

// Thresholding selects how the ink/background cutoff is chosen.
type Thresholding string

const (
	// ThresholdFixed uses one configured level for the whole image. It exists to
	// reproduce the simple pipeline variant and for synthetic inputs.
	ThresholdFixed Thresholding = "fixed"

	// ThresholdOtsu picks the global level that maximises the between-class
	// variance of the intensity histogram.
	ThresholdOtsu Thresholding = "otsu"

	// ThresholdAdaptive compares each pixel against the mean of its local window,
	// which copes with uneven lighting across a photographed page.
	ThresholdAdaptive Thresholding = "adaptive"
)

// ParseThresholding validates a thresholding strategy name. The empty string
// selects ThresholdAdaptive.
func ParseThresholding(s string) (Thresholding, error) {
	switch Thresholding(s) {
	case "", ThresholdAdaptive:
		return ThresholdAdaptive, nil
	case ThresholdFixed, ThresholdOtsu:
		return Thresholding(s), nil
	}
	return "", fmt.Errorf("unknown thresholding %q (want fixed, otsu or adaptive)", s)
}

// Polarity describes which intensity class holds the ink.
type Polarity string

const (
	// PolarityAuto treats the more populous Otsu class as background.
	PolarityAuto Polarity = "auto"

	// PolarityDark means dark ink on light paper.
	PolarityDark Polarity = "dark"

	// PolarityLight means light ink on a dark board.
	PolarityLight Polarity = "light"
)

// ParsePolarity validates a polarity name. The empty string selects PolarityAuto.
func ParsePolarity(s string) (Polarity, error) {
	switch Polarity(s) {
	case "", PolarityAuto:
		return PolarityAuto, nil
	case PolarityDark, PolarityLight:
		return Polarity(s), nil
	}
	return "", fmt.Errorf("unknown polarity %q (want auto, dark or light)", s)
}

// Histogram returns the 256-bin intensity histogram of gray.
func Histogram(gray *image.Gray) []int {
	return histogram.NewRGBAHistogram(gray).R.Bins
}

// OtsuLevel returns the intensity t that best separates the histogram into the
// classes [0, t] and (t, 255].
//
// The level maximises the between-class variance
//
//	σ²(t) = ω0(t) · ω1(t) · (μ0(t) - μ1(t))²
//
// Only strictly larger variances replace the current best, so a uniform image
// (where every split has zero variance) returns 0.
func OtsuLevel(hist []int) uint8 {
	total := 0
	var sumAll float64
	for i, n := range hist {
		total += n
		sumAll += float64(i) * float64(n)
	}
	if total == 0 {
		return 0
	}

	var (
		best     uint8
		bestVar  float64
		weight0  int
		sum0     float64
		fraction = 1 / float64(total)
	)
	for t := 0; t < len(hist)-1; t++ {
		weight0 += hist[t]
		if weight0 == 0 {
			continue
		}
		weight1 := total - weight0
		if weight1 == 0 {
			break
		}
		sum0 += float64(t) * float64(hist[t])

		mean0 := sum0 / float64(weight0)
		mean1 := (sumAll - sum0) / float64(weight1)
		w0 := float64(weight0) * fraction
		w1 := float64(weight1) * fraction
		between := w0 * w1 * (mean0 - mean1) * (mean0 - mean1)

		if between > bestVar {
			bestVar = between
			best = uint8(t)
		}
	}
	return best
}

// ResolvePolarity turns PolarityAuto into a concrete polarity for gray.
//
// The image is split at its Otsu level and the larger class is assumed to be
// the background: if more than half of the pixels fall in the dark class, the
// ink must be light.
func ResolvePolarity(gray *image.Gray, p Polarity) Polarity {
	if p == PolarityDark || p == PolarityLight {
		return p
	}

	hist := Histogram(gray)
	level := OtsuLevel(hist)
	total, dark := 0, 0
	for i, n := range hist {
		total += n
		if i <= int(level) {
			dark += n
		}
	}
	if total > 0 && dark*2 > total {
		return PolarityLight
	}
	return PolarityDark
}

// ThresholdOptions configures Threshold.
type ThresholdOptions struct {
	// Method is the cutoff strategy.
	Method Thresholding

	// Polarity selects the ink class. PolarityAuto is resolved per image.
	Polarity Polarity

	// Level is the cutoff for ThresholdFixed (0-255). Dark ink is any pixel
	// strictly below Level; light ink is any pixel at or above it.
	Level uint8

	// BlockSize is the odd side length of the ThresholdAdaptive window.
	BlockSize int

	// Offset is subtracted from (dark ink) or added to (light ink) the local
	// mean before comparison. Positive values suppress paper texture.
	Offset float64
}

// Threshold binarizes gray into a mask where ink pixels are 255 and background
// pixels are 0, whatever the polarity of the source.
func Threshold(gray *image.Gray, opts ThresholdOptions) *image.Gray {
	polarity := ResolvePolarity(gray, opts.Polarity)

	switch opts.Method {
	case ThresholdFixed:
		return thresholdFixed(gray, opts.Level, polarity)
	case ThresholdOtsu:
		return thresholdOtsu(gray, polarity)
	default:
		return thresholdAdaptive(gray, opts.BlockSize, opts.Offset, polarity)
	}
}

func thresholdFixed(gray *image.Gray, level uint8, polarity Polarity) *image.Gray {
	// segment.Threshold sets pixels >= level to white, which is already the
	// light-ink mask. Dark ink needs the complement.
	mask := segment.Threshold(gray, level)
	if polarity == PolarityDark {
		invertInPlace(mask)
	}
	return mask
}

func thresholdOtsu(gray *image.Gray, polarity Polarity) *image.Gray {
	level := OtsuLevel(Histogram(gray))
	bounds := gray.Bounds()
	mask := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			v := gray.Pix[y*gray.Stride+x]
			ink := v <= level
			if polarity == PolarityLight {
				ink = v > level
			}
			if ink {
				mask.Pix[y*mask.Stride+x] = 255
			}
		}
	}
	return mask
}

// thresholdAdaptive marks a pixel as dark ink when it is below the mean of its
// blockSize window minus offset (light ink: above the mean plus offset).
// Flat areas therefore never produce ink, even with a zero offset.
// Window means come from a summed-area table; windows are clipped at the image
// border and averaged over the pixels that remain.
func thresholdAdaptive(gray *image.Gray, blockSize int, offset float64, polarity Polarity) *image.Gray {
	if blockSize < 3 {
		blockSize = 3
	}
	if blockSize%2 == 0 {
		blockSize++
	}
	half := blockSize / 2

	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	mask := image.NewGray(image.Rect(0, 0, width, height))

	// integral[(y+1)*(width+1)+(x+1)] = sum of gray[0..y][0..x]
	stride := width + 1
	integral := make([]int64, (height+1)*stride)
	for y := 0; y < height; y++ {
		var rowSum int64
		for x := 0; x < width; x++ {
			rowSum += int64(gray.Pix[y*gray.Stride+x])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + rowSum
		}
	}

	for y := 0; y < height; y++ {
		y0 := clamp(y-half, 0, height-1)
		y1 := clamp(y+half, 0, height-1) + 1
		for x := 0; x < width; x++ {
			x0 := clamp(x-half, 0, width-1)
			x1 := clamp(x+half, 0, width-1) + 1

			sum := integral[y1*stride+x1] - integral[y0*stride+x1] - integral[y1*stride+x0] + integral[y0*stride+x0]
			mean := float64(sum) / float64((x1-x0)*(y1-y0))
			v := float64(gray.Pix[y*gray.Stride+x])

			var ink bool
			if polarity == PolarityLight {
				ink = v > mean+offset
			} else {
				ink = v < mean-offset
			}
			if ink {
				mask.Pix[y*mask.Stride+x] = 255
			}
		}
	}
	return mask
}

func invertInPlace(mask *image.Gray) {
	for i := range mask.Pix {
		mask.Pix[i] = 255 - mask.Pix[i]
	}
}

// InkFraction returns the share of mask pixels that are ink (non-zero).
func InkFraction(mask *image.Gray) float64 {
	bounds := mask.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}
	ink := 0
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			if mask.Pix[y*mask.Stride+x] != 0 {
				ink++
			}
		}
	}
	return float64(ink) / float64(total)
}
