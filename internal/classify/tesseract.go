//go:build cgo && linux

package classify

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"
)

// tesseractWhitelist restricts recognition to characters that map onto the
// vocabulary directly or through an alias.
const tesseractWhitelist = "0123456789+-=()×÷√π∫*/abcxyOolI|"

// glyphHeight is the height crops are scaled to before recognition. Tesseract
// reads characters best when they are roughly 30-60px tall.
const glyphHeight = 48

// glyphPadding is the white border added around each scaled crop.
const glyphPadding = 16

// TesseractClassifier recognizes one symbol per crop with the Tesseract OCR
// engine in single-character mode.
//
// A single engine instance is shared; calls to Classify are serialized, so the
// classifier is safe for concurrent use but does not run in parallel.
type TesseractClassifier struct {
	mu     sync.Mutex
	client *gosseract.Client
	log    zerolog.Logger
}

func newTesseract(opts Options) (Classifier, error) {
	client := gosseract.NewClient()

	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: failed to set tessdata path: %v", ErrUnavailable, err)
		}
	}
	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to set language: %v", ErrUnavailable, err)
	}
	if err := client.DisableOutput(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to silence engine output: %v", ErrUnavailable, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to set page segmentation mode: %v", ErrUnavailable, err)
	}
	if err := client.SetWhitelist(tesseractWhitelist); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to set whitelist: %v", ErrUnavailable, err)
	}

	c := &TesseractClassifier{client: client, log: opts.Logger}

	// The engine initializes lazily; run it once on a blank glyph so missing
	// language data is reported now.
	if _, err := c.recognize(imaging.New(glyphHeight, glyphHeight, color.White)); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.log.Debug().
		Str("version", client.Version()).
		Str("language", opts.Language).
		Msg("tesseract classifier ready")
	return c, nil
}

// Classify recognizes the symbol in img. Unrecognized output yields Unknown.
func (c *TesseractClassifier) Classify(ctx context.Context, img image.Image) (string, error) {
	p, err := c.ClassifyWithConfidence(ctx, img)
	if err != nil {
		return "", err
	}
	return p.Label, nil
}

// ClassifyWithConfidence recognizes the symbol in img and reports Tesseract's
// symbol-level confidence scaled to 0-1. When the engine finds several
// symbols in the crop the most confident one wins.
func (c *TesseractClassifier) ClassifyWithConfidence(ctx context.Context, img image.Image) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	boxes, err := c.recognizeSymbols(prepareGlyph(img))
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to recognize symbol: %w", err)
	}

	best := -1
	for i, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		if best < 0 || b.Confidence > boxes[best].Confidence {
			best = i
		}
	}
	if best < 0 {
		c.log.Debug().Msg("no symbol recognized")
		return Prediction{Label: Unknown}, nil
	}

	raw := boxes[best].Word
	p := Prediction{
		Label:      Normalize(raw),
		Confidence: math.Max(0, math.Min(1, boxes[best].Confidence/100)),
	}
	c.log.Debug().Str("raw", raw).Str("label", p.Label).Float64("confidence", p.Confidence).Msg("symbol recognized")
	return p, nil
}

func (c *TesseractClassifier) recognize(img image.Image) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.setImage(img); err != nil {
		return "", err
	}
	return c.client.Text()
}

func (c *TesseractClassifier) recognizeSymbols(img image.Image) ([]gosseract.BoundingBox, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.setImage(img); err != nil {
		return nil, err
	}
	return c.client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
}

// setImage hands img to the engine. The caller holds c.mu.
func (c *TesseractClassifier) setImage(img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode crop: %w", err)
	}
	if err := c.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to set image: %w", err)
	}
	return nil
}

// Close releases the Tesseract engine.
func (c *TesseractClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client.Close()
}

// prepareGlyph flattens img onto white, scales it to glyphHeight and pads it
// with a white border.
func prepareGlyph(img image.Image) image.Image {
	b := img.Bounds()
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), imaging.Clone(img), image.Pt(0, 0), 1.0)
	scaled := imaging.Resize(flat, 0, glyphHeight, imaging.Lanczos)

	sb := scaled.Bounds()
	canvas := imaging.New(sb.Dx()+2*glyphPadding, sb.Dy()+2*glyphPadding, color.White)
	return imaging.PasteCenter(canvas, scaled)
}
