package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// GrayMode selects how colour pixels are reduced to a single intensity channel.
type GrayMode string

const (
	// GrayLuma weights R, G and B with the ITU-R BT.601 coefficients
	// (0.299, 0.587, 0.114), matching common image codecs.
	GrayLuma GrayMode = "luma"

	// GrayLightness uses the CIE L* component, which tracks perceived brightness
	// more closely for saturated ink colours such as blue or red pens.
	GrayLightness GrayMode = "lightness"
)

// ParseGrayMode validates a grayscale mode name. The empty string selects GrayLuma.
func ParseGrayMode(s string) (GrayMode, error) {
	switch GrayMode(s) {
	case "", GrayLuma:
		return GrayLuma, nil
	case GrayLightness:
		return GrayLightness, nil
	}
	return "", fmt.Errorf("unknown grayscale mode %q (want luma or lightness)", s)
}

// Flatten composites img over an opaque white background and returns a copy whose
// bounds start at (0,0).
//
// Canvas exports usually store strokes on a transparent background; flattening
// makes the transparent area read as paper instead of black.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, imaging.Clone(img), image.Pt(0, 0), 1.0)
}

// ToGray converts img into an 8-bit grayscale image with bounds starting at (0,0).
// Transparent areas are treated as white paper.
func ToGray(img image.Image, mode GrayMode) *image.Gray {
	flat := Flatten(img)
	bounds := flat.Bounds()
	gray := image.NewGray(bounds)

	switch mode {
	case GrayLightness:
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				c, ok := colorful.MakeColor(flat.NRGBAAt(x, y))
				if !ok {
					gray.Pix[y*gray.Stride+x] = 255
					continue
				}
				l, _, _ := c.Lab()
				gray.Pix[y*gray.Stride+x] = uint8(math.Round(clampFloat(l, 0, 1) * 255))
			}
		}
	default:
		rgba := effect.GrayscaleWithWeights(flat, 0.299, 0.587, 0.114)
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				gray.Pix[y*gray.Stride+x] = rgba.Pix[y*rgba.Stride+x*4]
			}
		}
	}

	return gray
}

// grayFromRGBA copies the red channel of an RGBA image produced by a bild filter
// back into a grayscale image. Bild filters keep R=G=B for grayscale inputs.
func grayFromRGBA(src *image.RGBA) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			dst.Pix[y*dst.Stride+x] = src.Pix[y*src.Stride+x*4]
		}
	}
	return dst
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in windowed filters.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
