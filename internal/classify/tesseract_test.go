//go:build cgo && linux

package classify

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// createGlyphImage renders text with basicfont, scaled up by scale.
func createGlyphImage(text string, scale int) *image.RGBA {
	small := image.NewRGBA(image.Rect(0, 0, len(text)*7+8, 21))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(4), Y: fixed.I(15)},
	}
	d.DrawString(text)

	b := small.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			img.Set(x, y, small.At(x/scale, y/scale))
		}
	}
	return img
}

func TestPrepareGlyph(t *testing.T) {
	out := prepareGlyph(createGlyphImage("7", 2))
	b := out.Bounds()
	if b.Dy() != glyphHeight+2*glyphPadding {
		t.Errorf("height: got %d, want %d", b.Dy(), glyphHeight+2*glyphPadding)
	}
	if r, g, bl, _ := out.At(0, 0).RGBA(); r>>8 != 255 || g>>8 != 255 || bl>>8 != 255 {
		t.Error("padding should be white")
	}
}

func TestTesseractClassifier(t *testing.T) {
	c, err := New(Options{Name: NameTesseract, Logger: zerolog.Nop()})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			t.Skip("Tesseract not available")
		}
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	label, err := c.Classify(context.Background(), createGlyphImage("7", 4))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if label != Unknown && !IsLabel(label) {
		t.Errorf("label %q is neither a vocabulary label nor Unknown", label)
	}
	t.Logf("recognized %q", label)
}

func TestTesseractClassifier_Confidence(t *testing.T) {
	c, err := New(Options{Name: NameTesseract, Logger: zerolog.Nop()})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			t.Skip("Tesseract not available")
		}
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	tests := []struct {
		name string
		img  image.Image
	}{
		{"glyph", createGlyphImage("7", 4)},
		{"blank", createGlyphImage("", 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Predict(context.Background(), c, tt.img)
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}
			if p.Confidence < 0 || p.Confidence > 1 {
				t.Errorf("confidence %v outside 0-1", p.Confidence)
			}
			if p.Label != Unknown && !IsLabel(p.Label) {
				t.Errorf("label %q is neither a vocabulary label nor Unknown", p.Label)
			}
			t.Logf("recognized %q at %.2f", p.Label, p.Confidence)
		})
	}
}

func TestTesseractClassifier_MissingTessdata(t *testing.T) {
	_, err := New(Options{Name: NameTesseract, TessdataPrefix: t.TempDir(), Logger: zerolog.Nop()})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("New error = %v, want ErrUnavailable", err)
	}
}
