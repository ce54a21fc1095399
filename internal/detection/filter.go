package detection

import "fmt"

// ShapeFilter selects which geometric tests Filter applies.
type ShapeFilter string

const (
	// ShapeSizeOnly discards only regions that are too small.
	ShapeSizeOnly ShapeFilter = "size_only"

	// ShapeSizeAndAspect also discards regions whose width/height ratio falls
	// outside the accepted band.
	ShapeSizeAndAspect ShapeFilter = "size_and_aspect"
)

// ParseShapeFilter validates a shape filter name. The empty string selects
// ShapeSizeAndAspect.
func ParseShapeFilter(s string) (ShapeFilter, error) {
	switch ShapeFilter(s) {
	case "", ShapeSizeAndAspect:
		return ShapeSizeAndAspect, nil
	case ShapeSizeOnly:
		return ShapeSizeOnly, nil
	}
	return "", fmt.Errorf("unknown shape filter %q (want size_only or size_and_aspect)", s)
}

// FilterOptions configures Filter.
type FilterOptions struct {
	Shape ShapeFilter

	// MinSize is exclusive: a region is discarded when its width or height is
	// less than or equal to MinSize.
	MinSize int

	// MinAspect and MaxAspect bound the accepted width/height ratio (inclusive).
	MinAspect float64
	MaxAspect float64
}

// DefaultFilterOptions returns the size-and-aspect filter with a 3px minimum
// and an aspect band of 0.1 to 6.0.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		Shape:     ShapeSizeAndAspect,
		MinSize:   3,
		MinAspect: 0.1,
		MaxAspect: 6.0,
	}
}

// Reject reports why r would be discarded under opts, or "" if it is kept.
func (opts FilterOptions) Reject(r Region) string {
	if r.Width <= opts.MinSize || r.Height <= opts.MinSize {
		return fmt.Sprintf("smaller than %dpx", opts.MinSize+1)
	}
	if opts.Shape == ShapeSizeAndAspect {
		aspect := r.AspectRatio()
		if aspect < opts.MinAspect || aspect > opts.MaxAspect {
			return fmt.Sprintf("aspect ratio %.2f outside [%.2f, %.2f]", aspect, opts.MinAspect, opts.MaxAspect)
		}
	}
	return ""
}

// Filter returns the regions that pass opts, in their original order.
// The input slice is not modified.
func Filter(regions []Region, opts FilterOptions) []Region {
	kept := make([]Region, 0, len(regions))
	for _, r := range regions {
		if opts.Reject(r) == "" {
			kept = append(kept, r)
		}
	}
	return kept
}
