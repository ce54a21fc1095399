package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropOptions configures CropWithMargin.
type CropOptions struct {
	// Margin is the number of pixels added on every side of the region.
	Margin int

	// MinSize is the smallest acceptable width and height of the clamped crop.
	MinSize int
}

// DefaultCropOptions returns a 4px margin and a 5px minimum crop size.
func DefaultCropOptions() CropOptions {
	return CropOptions{Margin: 4, MinSize: 5}
}

// CropWithMargin cuts rect, expanded by opts.Margin on every side, out of img.
//
// rect is given in 0-based image coordinates (the coordinates of the mask the
// region was found in). The expanded rectangle is clamped to the image, so crops
// near the border are simply smaller. The clamped rectangle is returned in the
// same 0-based coordinates.
//
// ok is false when the clamped crop is narrower or shorter than opts.MinSize;
// the caller should skip the region.
func CropWithMargin(img image.Image, rect image.Rectangle, opts CropOptions) (crop *image.NRGBA, clamped image.Rectangle, ok bool) {
	bounds := img.Bounds()
	full := image.Rect(0, 0, bounds.Dx(), bounds.Dy())

	clamped = image.Rect(
		rect.Min.X-opts.Margin, rect.Min.Y-opts.Margin,
		rect.Max.X+opts.Margin, rect.Max.Y+opts.Margin,
	).Intersect(full)

	if clamped.Empty() || clamped.Dx() < opts.MinSize || clamped.Dy() < opts.MinSize {
		return nil, clamped, false
	}

	crop = imaging.Crop(img, clamped.Add(bounds.Min))
	return crop, clamped, true
}

// CropResult is a crop encoded for transport.
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeCrop encodes img as a base64 PNG CropResult.
func EncodeCrop(img image.Image) (*CropResult, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &CropResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// SaveMask writes a binarized mask to path. The format is taken from the file
// extension (PNG is recommended; JPEG blurs the hard edges).
func SaveMask(mask *image.Gray, path string) error {
	if err := imaging.Save(mask, path); err != nil {
		return fmt.Errorf("failed to save mask: %w", err)
	}
	return nil
}
