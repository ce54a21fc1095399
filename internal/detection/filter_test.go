package detection

import "testing"

func TestParseShapeFilter(t *testing.T) {
	if s, err := ParseShapeFilter(""); err != nil || s != ShapeSizeAndAspect {
		t.Errorf("ParseShapeFilter(\"\") = %q, %v; want size_and_aspect", s, err)
	}
	if s, err := ParseShapeFilter("size_only"); err != nil || s != ShapeSizeOnly {
		t.Errorf("ParseShapeFilter(size_only) = %q, %v", s, err)
	}
	if _, err := ParseShapeFilter("round"); err == nil {
		t.Error("ParseShapeFilter should reject unknown filters")
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		region Region
		opts   FilterOptions
		keep   bool
	}{
		{"plain digit", Region{Width: 12, Height: 30}, DefaultFilterOptions(), true},
		{"width at minimum", Region{Width: 3, Height: 30}, DefaultFilterOptions(), false},
		{"height at minimum", Region{Width: 20, Height: 3}, DefaultFilterOptions(), false},
		{"just above minimum", Region{Width: 4, Height: 4}, DefaultFilterOptions(), true},
		{"narrow one", Region{Width: 4, Height: 40}, DefaultFilterOptions(), true},
		{"too thin", Region{Width: 4, Height: 41}, DefaultFilterOptions(), false},
		{"aspect at upper bound", Region{Width: 30, Height: 5}, DefaultFilterOptions(), true},
		{"too wide", Region{Width: 31, Height: 5}, DefaultFilterOptions(), false},
		{"too wide but size only", Region{Width: 31, Height: 5}, FilterOptions{Shape: ShapeSizeOnly, MinSize: 3}, true},
		{"custom min size", Region{Width: 8, Height: 8}, FilterOptions{Shape: ShapeSizeOnly, MinSize: 8}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := Filter([]Region{tt.region}, tt.opts)
			if got := len(kept) == 1; got != tt.keep {
				t.Errorf("kept: got %v, want %v (reason %q)", got, tt.keep, tt.opts.Reject(tt.region))
			}
		})
	}
}

func TestFilter_PreservesOrderAndInput(t *testing.T) {
	in := []Region{
		{X: 50, Width: 10, Height: 20, Seq: 0},
		{X: 10, Width: 2, Height: 2, Seq: 1},
		{X: 30, Width: 10, Height: 20, Seq: 2},
	}
	out := Filter(in, DefaultFilterOptions())

	if len(out) != 2 || out[0].Seq != 0 || out[1].Seq != 2 {
		t.Errorf("unexpected result: %+v", out)
	}
	if len(in) != 3 || in[1].Seq != 1 {
		t.Error("Filter modified its input")
	}
}

func TestFilterOptions_Reject(t *testing.T) {
	opts := DefaultFilterOptions()
	if reason := opts.Reject(Region{Width: 2, Height: 20}); reason == "" {
		t.Error("expected a size rejection")
	}
	if reason := opts.Reject(Region{Width: 100, Height: 10}); reason == "" {
		t.Error("expected an aspect rejection")
	}
	if reason := opts.Reject(Region{Width: 10, Height: 10}); reason != "" {
		t.Errorf("unexpected rejection: %s", reason)
	}
}
