package detection

import (
	"image"
	"image/color"
	"testing"
)

// createMask builds a mask from rows of '#' (ink) and '.' (background).
func createMask(rows ...string) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, len(rows[0]), len(rows)))
	for y, row := range rows {
		for x, ch := range row {
			if ch == '#' {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return mask
}

// fillMask paints r as ink.
func fillMask(mask *image.Gray, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
}

func TestParseConnectivity(t *testing.T) {
	tests := []struct {
		in      int
		want    Connectivity
		wantErr bool
	}{
		{0, Connect8, false},
		{8, Connect8, false},
		{4, Connect4, false},
		{6, 0, true},
	}
	for _, tt := range tests {
		got, err := ParseConnectivity(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseConnectivity(%d) = %v, %v; want %v (err %v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestExtractRegions_Empty(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 50, 50))
	if regions := ExtractRegions(mask, Connect8); len(regions) != 0 {
		t.Errorf("blank mask produced %d regions", len(regions))
	}
	if regions := ExtractRegions(image.NewGray(image.Rectangle{}), Connect8); len(regions) != 0 {
		t.Errorf("zero-size mask produced %d regions", len(regions))
	}
}

func TestExtractRegions_SingleBlock(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 100, 100))
	fillMask(mask, image.Rect(40, 30, 52, 70))

	regions := ExtractRegions(mask, Connect8)
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(regions))
	}
	r := regions[0]
	if r.Rect() != image.Rect(40, 30, 52, 70) {
		t.Errorf("Rect: got %v, want (40,30)-(52,70)", r.Rect())
	}
	if r.Pixels != 12*40 {
		t.Errorf("Pixels: got %d, want %d", r.Pixels, 12*40)
	}
	if r.Width != 12 || r.Height != 40 {
		t.Errorf("size: got %dx%d, want 12x40", r.Width, r.Height)
	}
}

func TestExtractRegions_Connectivity(t *testing.T) {
	mask := createMask(
		"......",
		".#....",
		"..#...",
		"...#..",
		"......",
	)

	if got := len(ExtractRegions(mask, Connect8)); got != 1 {
		t.Errorf("8-connected: got %d regions, want 1", got)
	}
	if got := len(ExtractRegions(mask, Connect4)); got != 3 {
		t.Errorf("4-connected: got %d regions, want 3", got)
	}
}

func TestExtractRegions_HolesAreNotRegions(t *testing.T) {
	// A ring ("0") with a speck inside its loop, and a separate bar.
	mask := createMask(
		"...............",
		".#####.........",
		".#...#.....#...",
		".#.#.#.....#...",
		".#...#.....#...",
		".#####.....#...",
		"...............",
	)

	regions := ExtractRegions(mask, Connect8)
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2 (ring and bar): %+v", len(regions), regions)
	}
	if regions[0].Rect() != image.Rect(1, 1, 6, 6) {
		t.Errorf("ring: got %v", regions[0].Rect())
	}
	if regions[1].Rect() != image.Rect(11, 2, 12, 6) {
		t.Errorf("bar: got %v", regions[1].Rect())
	}
}

func TestExtractRegions_NestedRings(t *testing.T) {
	mask := createMask(
		".........",
		".#######.",
		".#.....#.",
		".#.###.#.",
		".#.#.#.#.",
		".#.###.#.",
		".#.....#.",
		".#######.",
		".........",
	)

	regions := ExtractRegions(mask, Connect8)
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want only the outer ring", len(regions))
	}
	if regions[0].Rect() != image.Rect(1, 1, 8, 8) {
		t.Errorf("outer ring: got %v", regions[0].Rect())
	}
}

func TestExtractRegions_OpenShapeIsNotAHole(t *testing.T) {
	// A "C" does not enclose the speck next to it.
	mask := createMask(
		"........",
		".#####..",
		".#......",
		".#..#...",
		".#......",
		".#####..",
		"........",
	)

	if got := len(ExtractRegions(mask, Connect8)); got != 2 {
		t.Errorf("got %d regions, want 2", got)
	}
}

func TestExtractRegions_DiagonalGapLeaksUnder4Connectivity(t *testing.T) {
	// With 4-connected ink the diagonal corners do not close the ring, so the
	// background is 8-connected and the centre speck is outside.
	mask := createMask(
		".......",
		"..###..",
		".#...#.",
		".#.#.#.",
		".#...#.",
		"..###..",
		".......",
	)

	if got := len(ExtractRegions(mask, Connect8)); got != 1 {
		t.Errorf("8-connected: got %d regions, want 1", got)
	}
	if got := len(ExtractRegions(mask, Connect4)); got < 2 {
		t.Errorf("4-connected: got %d regions, want the speck reported too", got)
	}
}

func TestExtractRegions_TouchingBorder(t *testing.T) {
	mask := createMask(
		"##....",
		"##....",
		"......",
		"....##",
	)

	regions := ExtractRegions(mask, Connect8)
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(regions))
	}
}

func TestExtractRegions_DiscoveryOrder(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 60, 40))
	fillMask(mask, image.Rect(40, 5, 50, 15))  // found first (top row)
	fillMask(mask, image.Rect(10, 20, 20, 30)) // found second

	regions := ExtractRegions(mask, Connect8)
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(regions))
	}
	if regions[0].X != 40 || regions[0].Seq != 0 {
		t.Errorf("first region: got %+v", regions[0])
	}
	if regions[1].X != 10 || regions[1].Seq != 1 {
		t.Errorf("second region: got %+v", regions[1])
	}
}

func TestExtractRegions_OffsetMask(t *testing.T) {
	full := image.NewGray(image.Rect(0, 0, 40, 40))
	fillMask(full, image.Rect(25, 25, 30, 35))
	sub := full.SubImage(image.Rect(20, 20, 40, 40)).(*image.Gray)

	regions := ExtractRegions(sub, Connect8)
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(regions))
	}
	if regions[0].Rect() != image.Rect(5, 5, 10, 15) {
		t.Errorf("Rect: got %v, want 0-based (5,5)-(10,15)", regions[0].Rect())
	}
}

func TestRegion_AspectRatio(t *testing.T) {
	tests := []struct {
		r    Region
		want float64
	}{
		{Region{Width: 10, Height: 20}, 0.5},
		{Region{Width: 30, Height: 5}, 6},
		{Region{Width: 4, Height: 0}, 0},
	}
	for _, tt := range tests {
		if got := tt.r.AspectRatio(); got != tt.want {
			t.Errorf("AspectRatio(%dx%d): got %v, want %v", tt.r.Width, tt.r.Height, got, tt.want)
		}
	}
}
