package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Box is a rectangle to outline on an annotated image, optionally tagged with
// a numeric label.
type Box struct {
	Rect  image.Rectangle
	Label string
}

// Annotate draws an outline around each box on a copy of img and writes the
// box label just above its top-left corner. Box coordinates are 0-based.
//
// The box colour is given as "#RRGGBB" or "#RRGGBBAA"; an empty or invalid
// string falls back to opaque red.
func Annotate(img image.Image, boxes []Box, colorHex string) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	boxColor, err := parseHexColor(colorHex)
	if err != nil {
		boxColor = color.RGBA{255, 0, 0, 255}
	}

	labelColor := color.RGBA{255, 255, 255, 255}
	for _, b := range boxes {
		drawRect(result, b.Rect, boxColor)
		if b.Label != "" {
			drawLabel(result, b.Rect.Min.X, b.Rect.Min.Y-8, b.Label, labelColor, boxColor)
		}
	}
	return result
}

// drawRect outlines r (max exclusive) with a 1px line, clipped to img.
func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	if r.Empty() {
		return
	}
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	for x := x0; x <= x1; x++ {
		setClipped(img, x, y0, c)
		setClipped(img, x, y1, c)
	}
	for y := y0; y <= y1; y++ {
		setClipped(img, x0, y, c)
		setClipped(img, x1, y, c)
	}
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// parseHexColor parses "#RRGGBB", "#RGB" or "#RRGGBBAA"; the leading '#' is
// optional. The result is alpha-premultiplied.
func parseHexColor(hex string) (color.RGBA, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if hex == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}

	alpha := uint8(255)
	if len(hex) == 8 {
		a, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha in %q: %w", hex, err)
		}
		alpha = uint8(a)
		hex = hex[:6]
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBAModel.Convert(color.NRGBA{R: r, G: g, B: b, A: alpha}).(color.RGBA), nil
}

// drawLabel draws a small digit label with a solid background at (x, y).
// Only digits are rendered; other characters leave a blank cell.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	// 3x5 pixel font
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	const charWidth = 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight-1; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
