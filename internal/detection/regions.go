package detection

import (
	"fmt"
	"image"
)

// Connectivity is the pixel adjacency used to group ink pixels into regions.
type Connectivity int

const (
	// Connect4 joins pixels that share an edge.
	Connect4 Connectivity = 4

	// Connect8 also joins diagonal neighbours, so a stroke drawn at 45° stays
	// in one piece.
	Connect8 Connectivity = 8
)

// ParseConnectivity validates a connectivity value. Zero selects Connect8.
func ParseConnectivity(n int) (Connectivity, error) {
	switch n {
	case 0, 8:
		return Connect8, nil
	case 4:
		return Connect4, nil
	}
	return 0, fmt.Errorf("unknown connectivity %d (want 4 or 8)", n)
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Region is one connected ink component of a mask.
//
// The bounding box is given in the mask's 0-based pixel coordinates:
// (X, Y) is the top-left pixel and Width/Height are the extent, so the
// component occupies columns X..X+Width-1.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	// Pixels is the number of ink pixels in the component.
	Pixels int `json:"pixels"`

	// Seq is the position of the region in extraction order (row-major
	// discovery of its first pixel). Ordering uses it to break ties.
	Seq int `json:"seq"`
}

// Rect returns the region's bounding box as an image.Rectangle (Max exclusive).
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// AspectRatio returns Width / Height. A zero-height region reports 0.
func (r Region) AspectRatio() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// ExtractRegions returns the outermost connected ink components of mask.
//
// Any non-zero mask pixel is ink. Components are grouped with the given
// connectivity and the background with the complementary one (8 with 4, 4 with
// 8), which keeps holes and their borders consistent.
//
// Only external components are reported: a component lying inside the hole of
// another component (a speck inside the loop of a "0", or an inner ring) is
// dropped, just like the hole itself.
//
// # Algorithm
//
//  1. Label every ink component with an iterative flood fill, recording its
//     bounding box and pixel count
//  2. Flood the background from every border pixel to mark what is "outside"
//  3. Keep a component if it touches the border or any of its pixels has an
//     outside pixel as a 4-neighbour
//
// The result is in discovery order (row-major by first pixel); callers must
// not rely on it for reading order.
func ExtractRegions(mask *image.Gray, conn Connectivity) []Region {
	bounds := mask.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	ink := func(x, y int) bool {
		return mask.Pix[y*mask.Stride+x] != 0
	}

	fgNeighbours, bgNeighbours := neighbours8, neighbours4
	if conn == Connect4 {
		fgNeighbours, bgNeighbours = neighbours4, neighbours8
	}

	// labels[i] is 0 for background, otherwise the 1-based component id.
	labels := make([]int32, width*height)
	regions := make([]Region, 0)
	touchesBorder := make([]bool, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !ink(x, y) || labels[y*width+x] != 0 {
				continue
			}
			id := int32(len(regions) + 1)
			region, border := floodFill(ink, labels, id, x, y, width, height, fgNeighbours)
			region.Seq = len(regions)
			regions = append(regions, region)
			touchesBorder = append(touchesBorder, border)
		}
	}
	if len(regions) == 0 {
		return regions
	}

	outside := markOutside(ink, width, height, bgNeighbours)

	external := make([]bool, len(regions))
	copy(external, touchesBorder)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			id := labels[y*width+x]
			if id == 0 || external[id-1] {
				continue
			}
			for _, d := range neighbours4 {
				nx, ny := x+d.X, y+d.Y
				if nx >= 0 && nx < width && ny >= 0 && ny < height && outside[ny*width+nx] {
					external[id-1] = true
					break
				}
			}
		}
	}

	result := make([]Region, 0, len(regions))
	for i, r := range regions {
		if external[i] {
			result = append(result, r)
		}
	}
	return result
}

var (
	neighbours4 = []Point{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	neighbours8 = []Point{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
)

// floodFill labels the component containing (startX, startY) with id.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow on large
// components. It reports the component's bounding box and pixel count and
// whether any of its pixels lies on the mask border.
func floodFill(ink func(x, y int) bool, labels []int32, id int32, startX, startY, width, height int, dirs []Point) (Region, bool) {
	minX, minY := startX, startY
	maxX, maxY := startX, startY
	pixels := 0
	border := false

	labels[startY*width+startX] = id
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		pixels++
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		if p.X == 0 || p.Y == 0 || p.X == width-1 || p.Y == height-1 {
			border = true
		}

		for _, d := range dirs {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || nx >= width || ny < 0 || ny >= height {
				continue
			}
			if labels[ny*width+nx] != 0 || !ink(nx, ny) {
				continue
			}
			labels[ny*width+nx] = id
			stack = append(stack, Point{X: nx, Y: ny})
		}
	}

	return Region{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
		Pixels: pixels,
	}, border
}

// markOutside floods the background from every border pixel and returns the
// set of background pixels connected to the image edge.
func markOutside(ink func(x, y int) bool, width, height int, dirs []Point) []bool {
	outside := make([]bool, width*height)
	stack := make([]Point, 0)

	seed := func(x, y int) {
		if !ink(x, y) && !outside[y*width+x] {
			outside[y*width+x] = true
			stack = append(stack, Point{X: x, Y: y})
		}
	}
	for x := 0; x < width; x++ {
		seed(x, 0)
		seed(x, height-1)
	}
	for y := 0; y < height; y++ {
		seed(0, y)
		seed(width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range dirs {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || nx >= width || ny < 0 || ny >= height {
				continue
			}
			if outside[ny*width+nx] || ink(nx, ny) {
				continue
			}
			outside[ny*width+nx] = true
			stack = append(stack, Point{X: nx, Y: ny})
		}
	}
	return outside
}
