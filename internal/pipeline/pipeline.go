package pipeline

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/symbol-segmenter/internal/classify"
	"github.com/ironsheep/symbol-segmenter/internal/detection"
	"github.com/ironsheep/symbol-segmenter/internal/expr"
	"github.com/ironsheep/symbol-segmenter/internal/imaging"
	"github.com/ironsheep/symbol-segmenter/internal/logging"
)

// Options configures every stage of the pipeline.
type Options struct {
	Binarize     imaging.BinarizeOptions
	Connectivity detection.Connectivity
	Filter       detection.FilterOptions
	Crop         imaging.CropOptions

	// Evaluate adds "expression" and "result" to the output.
	Evaluate bool

	// MinConfidence drops predictions the classifier is less sure of. Zero
	// keeps every prediction.
	MinConfidence float64
}

// DefaultOptions returns the adaptive preset.
func DefaultOptions() Options {
	return Options{
		Binarize:     imaging.DefaultBinarizeOptions(),
		Connectivity: detection.Connect8,
		Filter:       detection.DefaultFilterOptions(),
		Crop:         imaging.DefaultCropOptions(),
	}
}

// CroppedSymbol is a region that survived every stage, cut from the original
// image.
type CroppedSymbol struct {
	// Index is the 1-based reading-order position.
	Index  int
	Region detection.Region
	// Rect is the margin-expanded rectangle after clamping to the image.
	Rect  image.Rectangle
	Image image.Image
}

// Segmentation holds the output of every stage up to cropping.
type Segmentation struct {
	Mask     *image.Gray
	Raw      []detection.Region
	Filtered []detection.Region
	Ordered  []detection.Region
	Symbols  []CroppedSymbol
}

// Pipeline runs segmentation and classification for one image at a time. It
// keeps no per-run state; concurrent use is safe when the classifier is.
type Pipeline struct {
	classifier classify.Classifier
	opts       Options
	log        zerolog.Logger
}

// New returns a pipeline that labels crops with c. c may be nil when only
// Segment is used.
func New(c classify.Classifier, opts Options, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		classifier: c,
		opts:       opts,
		log:        logging.Component(log, "pipeline"),
	}
}

// Options returns the options the pipeline was built with.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Segment binarizes img, extracts and filters regions, orders them and crops
// each one from img. Crops below the minimum size are skipped and never
// consume an index.
func (p *Pipeline) Segment(img image.Image) *Segmentation {
	seg := &Segmentation{}
	seg.Mask = imaging.Binarize(img, p.opts.Binarize)
	seg.Raw = detection.ExtractRegions(seg.Mask, p.opts.Connectivity)
	seg.Filtered = detection.Filter(seg.Raw, p.opts.Filter)
	seg.Ordered = detection.SortLeftToRight(seg.Filtered)

	if p.log.GetLevel() <= zerolog.DebugLevel {
		for _, r := range seg.Raw {
			if reason := p.opts.Filter.Reject(r); reason != "" {
				p.log.Debug().
					Int("x", r.X).Int("y", r.Y).
					Int("width", r.Width).Int("height", r.Height).
					Str("reason", reason).
					Msg("region rejected")
			}
		}
	}

	for _, r := range seg.Ordered {
		crop, rect, ok := imaging.CropWithMargin(img, r.Rect(), p.opts.Crop)
		if !ok {
			p.log.Debug().
				Int("x", r.X).Int("y", r.Y).
				Stringer("rect", rect).
				Msg("crop below minimum size, skipped")
			continue
		}
		seg.Symbols = append(seg.Symbols, CroppedSymbol{
			Index:  len(seg.Symbols) + 1,
			Region: r,
			Rect:   rect,
			Image:  crop,
		})
	}

	p.log.Info().
		Int("raw", len(seg.Raw)).
		Int("filtered", len(seg.Filtered)).
		Int("symbols", len(seg.Symbols)).
		Msg("segmented")
	return seg
}

// Process segments img and classifies every symbol in reading order.
func (p *Pipeline) Process(ctx context.Context, img image.Image) (*Result, error) {
	if p.classifier == nil {
		return nil, &Error{Kind: KindClassifierLoad, Msg: "Failed to load model: no classifier configured"}
	}

	seg := p.Segment(img)
	res := &Result{evaluate: p.opts.Evaluate}
	for _, s := range seg.Symbols {
		pred, err := classify.Predict(ctx, p.classifier, s.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to classify symbol %d: %w", s.Index, err)
		}
		if pred.Confidence < p.opts.MinConfidence {
			p.log.Debug().
				Int("symbol", s.Index).
				Str("label", pred.Label).
				Float64("confidence", pred.Confidence).
				Msg("prediction below minimum confidence, dropped")
			continue
		}
		res.Symbols = append(res.Symbols, SymbolPrediction{
			Index:      len(res.Symbols) + 1,
			Label:      pred.Label,
			Confidence: pred.Confidence,
			Bounds:     s.Region.Rect(),
		})
	}

	if p.opts.Evaluate && !res.Empty() {
		res.Expression = joinLabels(res.Symbols)
		res.Value = expr.EvaluateString(res.Expression)
		p.log.Debug().Str("expression", res.Expression).Str("result", res.Value).Msg("evaluated")
	}
	return res, nil
}

// ProcessFile loads path and runs Process on it. Every error is an *Error.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Result, error) {
	if path == "" {
		return nil, MissingArgument()
	}
	img, err := imaging.Load(path)
	if err != nil {
		return nil, Classify(err)
	}
	res, err := p.Process(ctx, img)
	if err != nil {
		return nil, Classify(err)
	}
	return res, nil
}

func joinLabels(symbols []SymbolPrediction) string {
	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(s.Label)
	}
	return b.String()
}
