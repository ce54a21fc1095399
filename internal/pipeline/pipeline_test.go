package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ironsheep/symbol-segmenter/internal/classify"
)

// constClassifier labels every crop with the same label.
type constClassifier struct {
	label string
	err   error
	calls int
}

func (c *constClassifier) Classify(_ context.Context, _ image.Image) (string, error) {
	c.calls++
	return c.label, c.err
}

func (c *constClassifier) Close() error { return nil }

// shapeClassifier tells the strokes drawn by createExpressionImage apart by
// the proportions of the crop.
type shapeClassifier struct{}

func (shapeClassifier) Classify(_ context.Context, img image.Image) (string, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch {
	case w*2 < h:
		return "1", nil
	case w-h <= 2 && h-w <= 2:
		return "+", nil
	}
	return "2", nil
}

func (shapeClassifier) Close() error { return nil }

func createWhiteImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.Set(x, y, color.Black)
		}
	}
}

// createSevenImage draws a "7" with 5px strokes centred on a white 100x100.
func createSevenImage() *image.RGBA {
	img := createWhiteImage(100, 100)
	fillRect(img, 35, 30, 66, 35)
	// diagonal from the right end of the bar down to (45, 70)
	for i := 0; i <= 40; i++ {
		x := 61 - i/2
		y := 30 + i
		fillRect(img, x, y, x+5, y+1)
	}
	return img
}

// createExpressionImage draws "1 + 2". The "2" sits higher than the others so
// it is discovered first when scanning rows.
func createExpressionImage() *image.RGBA {
	img := createWhiteImage(110, 80)

	fillRect(img, 10, 30, 15, 71)

	fillRect(img, 40, 48, 61, 53)
	fillRect(img, 48, 40, 53, 61)

	fillRect(img, 75, 10, 96, 15)
	fillRect(img, 91, 10, 96, 33)
	fillRect(img, 75, 28, 96, 33)
	fillRect(img, 75, 28, 80, 51)
	fillRect(img, 75, 46, 96, 51)
	return img
}

func writePNG(t *testing.T, img image.Image, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func marshal(t *testing.T, res *Result) string {
	t.Helper()
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return string(data)
}

func TestProcess_SingleSymbol(t *testing.T) {
	c := &constClassifier{label: "7"}
	p := New(c, DefaultOptions(), zerolog.Nop())

	res, err := p.Process(context.Background(), createSevenImage())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got := marshal(t, res); got != `{"symbol_1":"7"}` {
		t.Errorf("got %s, want {\"symbol_1\":\"7\"}", got)
	}
	if c.calls != 1 {
		t.Errorf("classifier calls: got %d, want 1", c.calls)
	}
}

func TestProcess_BlankImage(t *testing.T) {
	for _, evaluate := range []bool{false, true} {
		t.Run(fmt.Sprintf("evaluate=%v", evaluate), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Evaluate = evaluate
			c := &constClassifier{label: "7"}
			p := New(c, opts, zerolog.Nop())

			res, err := p.Process(context.Background(), createWhiteImage(100, 100))
			if err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			if !res.Empty() {
				t.Fatalf("expected no symbols, got %v", res.Labels())
			}
			if got := marshal(t, res); got != `{"message":"No symbols detected"}` {
				t.Errorf("got %s", got)
			}
			if c.calls != 0 {
				t.Errorf("classifier called %d times on a blank image", c.calls)
			}
		})
	}
}

func TestProcess_LeftToRight(t *testing.T) {
	opts := DefaultOptions()
	opts.Evaluate = true
	p := New(shapeClassifier{}, opts, zerolog.Nop())
	img := createExpressionImage()

	seg := p.Segment(img)
	if len(seg.Raw) != 3 {
		t.Fatalf("raw regions: got %d, want 3", len(seg.Raw))
	}
	if seg.Raw[0].X < 70 {
		t.Fatalf("expected the 2 to be extracted first, got region at x=%d", seg.Raw[0].X)
	}

	res, err := p.Process(context.Background(), img)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	want := `{"symbol_1":"1","symbol_2":"+","symbol_3":"2","expression":"1+2","result":"3"}`
	if got := marshal(t, res); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
	for i := 1; i < len(res.Symbols); i++ {
		if res.Symbols[i].Bounds.Min.X <= res.Symbols[i-1].Bounds.Min.X {
			t.Errorf("symbol %d is not right of symbol %d", i+1, i)
		}
		if res.Symbols[i].Index != i+1 {
			t.Errorf("index: got %d, want %d", res.Symbols[i].Index, i+1)
		}
	}
}

// scoredShapeClassifier labels like shapeClassifier and is unsure of "+".
type scoredShapeClassifier struct{ shapeClassifier }

func (c scoredShapeClassifier) ClassifyWithConfidence(ctx context.Context, img image.Image) (classify.Prediction, error) {
	label, err := c.Classify(ctx, img)
	if err != nil {
		return classify.Prediction{}, err
	}
	if label == "+" {
		return classify.Prediction{Label: label, Confidence: 0.3}, nil
	}
	return classify.Prediction{Label: label, Confidence: 0.9}, nil
}

func TestProcess_MinConfidence(t *testing.T) {
	tests := []struct {
		name     string
		min      float64
		want     string
		wantMean float64
	}{
		{"disabled", 0, `{"symbol_1":"1","symbol_2":"+","symbol_3":"2"}`, 0.7},
		{"drops unsure", 0.7, `{"symbol_1":"1","symbol_2":"2"}`, 0.9},
		{"drops everything", 0.95, `{"message":"No symbols detected"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MinConfidence = tt.min
			p := New(scoredShapeClassifier{}, opts, zerolog.Nop())

			res, err := p.Process(context.Background(), createExpressionImage())
			if err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			if got := marshal(t, res); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
			if got := res.MeanConfidence(); math.Abs(got-tt.wantMean) > 1e-9 {
				t.Errorf("mean confidence: got %v, want %v", got, tt.wantMean)
			}
			for i, s := range res.Symbols {
				if s.Index != i+1 {
					t.Errorf("index: got %d, want %d", s.Index, i+1)
				}
			}
		})
	}
}

func TestProcess_Deterministic(t *testing.T) {
	img := createExpressionImage()
	first := ""
	for i := 0; i < 3; i++ {
		c, err := classify.New(classify.Options{Name: classify.NameRandom, Seed: 42})
		if err != nil {
			t.Fatalf("classify.New failed: %v", err)
		}
		res, err := New(c, DefaultOptions(), zerolog.Nop()).Process(context.Background(), img)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		got := marshal(t, res)
		if i == 0 {
			first = got
			continue
		}
		if got != first {
			t.Errorf("run %d: got %s, want %s", i, got, first)
		}
	}
}

func TestSegment_AspectFilter(t *testing.T) {
	img := createWhiteImage(120, 60)
	fillRect(img, 10, 20, 80, 25) // 70x5 rule, aspect 14
	fillRect(img, 90, 15, 100, 35)

	p := New(nil, DefaultOptions(), zerolog.Nop())
	seg := p.Segment(img)
	if len(seg.Raw) != 2 {
		t.Fatalf("raw regions: got %d, want 2", len(seg.Raw))
	}
	if len(seg.Filtered) != 1 || len(seg.Symbols) != 1 {
		t.Fatalf("filtered %d, symbols %d, want 1 and 1", len(seg.Filtered), len(seg.Symbols))
	}
	if seg.Symbols[0].Region.X < 85 {
		t.Errorf("wrong region survived: %+v", seg.Symbols[0].Region)
	}

	opts := DefaultOptions()
	opts.Filter.MaxAspect = 20
	seg = New(nil, opts, zerolog.Nop()).Segment(img)
	if len(seg.Symbols) != 2 {
		t.Errorf("with max aspect 20: got %d symbols, want 2", len(seg.Symbols))
	}
}

func TestSegment_SkippedCropKeepsIndicesContiguous(t *testing.T) {
	img := createWhiteImage(100, 60)
	fillRect(img, 2, 2, 6, 6) // 4x4 speck, too small to crop with no margin
	fillRect(img, 30, 20, 35, 45)
	fillRect(img, 60, 20, 65, 45)

	opts := DefaultOptions()
	opts.Crop.Margin = 0
	p := New(nil, opts, zerolog.Nop())

	seg := p.Segment(img)
	if len(seg.Ordered) != 3 {
		t.Fatalf("ordered regions: got %d, want 3", len(seg.Ordered))
	}
	if len(seg.Symbols) != 2 {
		t.Fatalf("symbols: got %d, want 2", len(seg.Symbols))
	}
	for i, s := range seg.Symbols {
		if s.Index != i+1 {
			t.Errorf("symbol %d has index %d", i, s.Index)
		}
	}
	if seg.Symbols[0].Region.X != 30 {
		t.Errorf("first symbol at x=%d, want 30", seg.Symbols[0].Region.X)
	}
}

func TestSegment_AllCropsSkipped(t *testing.T) {
	opts := DefaultOptions()
	opts.Crop.MinSize = 1000
	c := &constClassifier{label: "7"}

	res, err := New(c, opts, zerolog.Nop()).Process(context.Background(), createSevenImage())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !res.Empty() {
		t.Errorf("expected the sentinel, got %v", res.Labels())
	}
}

func TestProcess_ClassifierError(t *testing.T) {
	c := &constClassifier{err: errors.New("boom")}
	_, err := New(c, DefaultOptions(), zerolog.Nop()).Process(context.Background(), createSevenImage())
	if err == nil {
		t.Fatal("expected an error")
	}
	if KindOf(err) != KindUnexpected {
		t.Errorf("kind: got %s, want %s", KindOf(err), KindUnexpected)
	}

	_, err = New(nil, DefaultOptions(), zerolog.Nop()).Process(context.Background(), createSevenImage())
	if KindOf(err) != KindClassifierLoad {
		t.Errorf("nil classifier: got %s, want %s", KindOf(err), KindClassifierLoad)
	}
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.png")
	good := writePNG(t, createSevenImage(), "seven.png")
	throughFile := filepath.Join(garbage, "seven.png")

	tests := []struct {
		name    string
		path    string
		kind    Kind
		message string
	}{
		{"no path", "", KindMissingArgument, "No image path provided"},
		{"missing", missing, KindInputNotFound, "Image path does not exist: " + missing},
		{"parent is a file", throughFile, KindInputNotFound, "Image path does not exist: " + throughFile},
		{"garbage", garbage, KindImageLoad, "Failed to process image"},
		{"good", good, "", ""},
	}

	p := New(&constClassifier{label: "7"}, DefaultOptions(), zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.ProcessFile(context.Background(), tt.path)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("ProcessFile failed: %v", err)
				}
				if len(res.Symbols) != 1 {
					t.Errorf("symbols: got %d, want 1", len(res.Symbols))
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("error is %T, want *Error", err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("kind: got %s, want %s", pe.Kind, tt.kind)
			}
			if !strings.HasPrefix(pe.Msg, tt.message) {
				t.Errorf("message %q does not start with %q", pe.Msg, tt.message)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{MissingArgument(), KindMissingArgument},
		{fmt.Errorf("wrapped: %w", classify.ErrUnavailable), KindClassifierLoad},
		{classify.ErrUnknownClassifier, KindClassifierLoad},
		{errors.New("something else"), KindUnexpected},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}

	pe := Classify(classify.ErrUnavailable)
	if !strings.HasPrefix(pe.Msg, "Failed to load model: ") {
		t.Errorf("message: got %q", pe.Msg)
	}
	if !errors.Is(pe, classify.ErrUnavailable) {
		t.Error("Classify lost the cause")
	}
}

func TestResult_KeyOrder(t *testing.T) {
	res := &Result{}
	for i := 1; i <= 11; i++ {
		res.Symbols = append(res.Symbols, SymbolPrediction{Index: i, Label: fmt.Sprint(i % 10)})
	}
	got := marshal(t, res)

	last := -1
	for i := 1; i <= 11; i++ {
		pos := strings.Index(got, fmt.Sprintf(`"symbol_%d"`, i))
		if pos < 0 {
			t.Fatalf("symbol_%d missing from %s", i, got)
		}
		if pos <= last {
			t.Errorf("symbol_%d is out of order in %s", i, got)
		}
		last = pos
	}

	var decoded map[string]string
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["symbol_10"] != "0" {
		t.Errorf("symbol_10: got %q", decoded["symbol_10"])
	}
}

func TestResult_EvaluationError(t *testing.T) {
	res := &Result{
		Symbols: []SymbolPrediction{
			{Index: 1, Label: "1"},
			{Index: 2, Label: "÷"},
			{Index: 3, Label: "0"},
		},
		Expression: "1÷0",
		Value:      "Error: division by zero",
		evaluate:   true,
	}
	want := `{"symbol_1":"1","symbol_2":"÷","symbol_3":"0","expression":"1÷0","result":"Error: division by zero"}`
	if got := marshal(t, res); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestProcessBatch(t *testing.T) {
	good := writePNG(t, createSevenImage(), "seven.png")
	blank := writePNG(t, createWhiteImage(40, 40), "blank.png")
	missing := filepath.Join(t.TempDir(), "missing.png")

	p := New(&constClassifier{label: "7"}, DefaultOptions(), zerolog.Nop())
	items, err := p.ProcessBatch(context.Background(), []string{good, missing, blank}, 1)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items: got %d, want 3", len(items))
	}
	if items[0].Failed() || items[0].Path != good {
		t.Errorf("item 0: %+v", items[0])
	}
	if !items[1].Failed() || items[1].Kind() != KindInputNotFound {
		t.Errorf("item 1: %+v", items[1])
	}
	if items[2].Failed() || !items[2].Result.Empty() {
		t.Errorf("item 2: %+v", items[2])
	}

	var buf bytes.Buffer
	if err := WriteBatch(&buf, items); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines: got %d, want 3", len(lines))
	}
	if !strings.Contains(lines[0], `"result":{"symbol_1":"7"}`) {
		t.Errorf("line 0: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"error":"Image path does not exist: `) {
		t.Errorf("line 1: %s", lines[1])
	}
	if !strings.Contains(lines[2], `"message":"No symbols detected"`) {
		t.Errorf("line 2: %s", lines[2])
	}
}

func TestProcessBatch_Cancelled(t *testing.T) {
	good := writePNG(t, createSevenImage(), "seven.png")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(&constClassifier{label: "7"}, DefaultOptions(), zerolog.Nop())
	_, err := p.ProcessBatch(ctx, []string{good, good}, 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
