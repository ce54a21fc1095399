package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

var (
	// ErrNotFound is returned when the image path does not exist.
	ErrNotFound = errors.New("image path does not exist")

	// ErrDecode is returned when the file exists but is not a decodable image.
	ErrDecode = errors.New("image could not be decoded")
)

// Load opens and decodes the image at path.
//
// The file is checked for existence before any decoding so callers can tell a
// missing input (ErrNotFound) from a corrupt one (ErrDecode). EXIF orientation
// is applied for JPEG inputs, so the returned pixels are in display orientation.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP.
func Load(path string) (image.Image, error) {
	// Any path that cannot be resolved counts as missing, including one
	// that runs through a regular file (ENOTDIR) or an unreadable directory.
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDecode, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// DecodeBase64 decodes an image sent inline, either as raw base64 or as a
// data URL such as "data:image/png;base64,iVBORw0...".
func DecodeBase64(data string) (image.Image, error) {
	if strings.HasPrefix(data, "data:") {
		comma := strings.IndexByte(data, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data URL", ErrDecode)
		}
		data = data[comma+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrDecode, err)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path. It is used
// by the long-running server where the same drawing is often segmented with several
// parameter sets in a row. One-shot CLI runs call Load directly.
//
// ImageCache is safe for concurrent use by multiple goroutines.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Errors are the same as for the package-level Load and are never cached.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Evict removes a specific image from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImageInfo describes the geometry and channel layout of a decoded image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Channels is 1 for grayscale images, 3 for colour images without alpha and
	// 4 for colour with alpha.
	Channels int `json:"channels"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`
}

// Describe reports the dimensions and channel depth of img.
//
// Channel counts are derived from the Go image type:
//   - *image.Gray, *image.Gray16 -> 1
//   - *image.YCbCr, *image.CMYK, *image.Paletted -> 3
//   - *image.RGBA, *image.NRGBA and their 16-bit variants -> 4
func Describe(img image.Image) ImageInfo {
	bounds := img.Bounds()
	info := ImageInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Channels:   3,
		ColorDepth: "8-bit",
	}

	switch img.(type) {
	case *image.Gray:
		info.Channels = 1
	case *image.Gray16:
		info.Channels = 1
		info.ColorDepth = "16-bit"
	case *image.RGBA, *image.NRGBA:
		info.Channels = 4
	case *image.RGBA64, *image.NRGBA64:
		info.Channels = 4
		info.ColorDepth = "16-bit"
	}

	return info
}
