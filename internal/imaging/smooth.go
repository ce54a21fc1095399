package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// Smoothing selects the noise filter applied before thresholding.
type Smoothing string

const (
	// SmoothNone leaves the grayscale image untouched.
	SmoothNone Smoothing = "none"

	// SmoothGaussian applies an isotropic Gaussian blur. Cheap, but softens
	// stroke edges together with the noise.
	SmoothGaussian Smoothing = "gaussian"

	// SmoothMedian replaces each pixel with the median of its neighbourhood,
	// which removes salt-and-pepper specks while keeping straight edges.
	SmoothMedian Smoothing = "median"

	// SmoothBilateral averages only neighbours of similar intensity, so flat
	// paper is smoothed while ink edges stay sharp.
	SmoothBilateral Smoothing = "bilateral"
)

// ParseSmoothing validates a smoothing strategy name. The empty string selects SmoothNone.
func ParseSmoothing(s string) (Smoothing, error) {
	switch Smoothing(s) {
	case "", SmoothNone:
		return SmoothNone, nil
	case SmoothGaussian, SmoothMedian, SmoothBilateral:
		return Smoothing(s), nil
	}
	return "", fmt.Errorf("unknown smoothing %q (want none, gaussian, median or bilateral)", s)
}

// SmoothOptions configures Smooth.
type SmoothOptions struct {
	// Method is the filter to apply.
	Method Smoothing

	// Radius is the neighbourhood radius in pixels for gaussian, median and
	// bilateral filtering. A window of 2*Radius+1 pixels is examined.
	Radius int

	// SigmaColor is the intensity standard deviation of the bilateral range
	// kernel. Larger values let more dissimilar pixels blend.
	SigmaColor float64

	// SigmaSpace is the spatial standard deviation of the bilateral domain kernel.
	SigmaSpace float64
}

// Smooth returns a filtered copy of gray. The input is never modified.
func Smooth(gray *image.Gray, opts SmoothOptions) *image.Gray {
	if opts.Radius <= 0 {
		return cloneGray(gray)
	}

	switch opts.Method {
	case SmoothGaussian:
		return grayFromRGBA(blur.Gaussian(gray, float64(opts.Radius)))
	case SmoothMedian:
		return grayFromRGBA(effect.Median(gray, float64(opts.Radius)))
	case SmoothBilateral:
		return bilateral(gray, opts.Radius, opts.SigmaColor, opts.SigmaSpace)
	default:
		return cloneGray(gray)
	}
}

// bilateral applies an edge-preserving bilateral filter.
//
// Each output pixel is the weighted mean of its (2r+1)x(2r+1) neighbourhood,
// where the weight is the product of a spatial Gaussian on the pixel distance
// and a range Gaussian on the intensity difference:
//
//	w(p, q) = exp(-|p-q|² / 2σs²) · exp(-(I(p)-I(q))² / 2σc²)
//
// Border pixels use clamped (replicated) edge values. Both kernels are tabulated
// once, the range kernel over all 256 possible intensity differences.
func bilateral(gray *image.Gray, radius int, sigmaColor, sigmaSpace float64) *image.Gray {
	if sigmaColor <= 0 {
		sigmaColor = 75
	}
	if sigmaSpace <= 0 {
		sigmaSpace = float64(radius)
	}

	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))

	size := 2*radius + 1
	spatial := make([]float64, size*size)
	for ky := -radius; ky <= radius; ky++ {
		for kx := -radius; kx <= radius; kx++ {
			d2 := float64(kx*kx + ky*ky)
			if d2 > float64(radius*radius) {
				continue // circular window
			}
			spatial[(ky+radius)*size+kx+radius] = math.Exp(-d2 / (2 * sigmaSpace * sigmaSpace))
		}
	}

	var rangeLUT [256]float64
	for i := range rangeLUT {
		d := float64(i)
		rangeLUT[i] = math.Exp(-d * d / (2 * sigmaColor * sigmaColor))
	}

	at := func(x, y int) uint8 {
		return gray.Pix[clamp(y, 0, height-1)*gray.Stride+clamp(x, 0, width-1)]
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			center := at(x, y)
			var sum, norm float64
			for ky := -radius; ky <= radius; ky++ {
				for kx := -radius; kx <= radius; kx++ {
					ws := spatial[(ky+radius)*size+kx+radius]
					if ws == 0 {
						continue
					}
					v := at(x+kx, y+ky)
					diff := int(v) - int(center)
					if diff < 0 {
						diff = -diff
					}
					w := ws * rangeLUT[diff]
					sum += w * float64(v)
					norm += w
				}
			}
			dst.Pix[y*dst.Stride+x] = uint8(math.Round(sum / norm))
		}
	}

	return dst
}

// cloneGray returns a copy of gray whose bounds start at (0,0).
func cloneGray(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()]
		copy(dst.Pix[y*dst.Stride:], row)
	}
	return dst
}
