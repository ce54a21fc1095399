package classify

import (
	"context"
	"image"
	"math/rand"
	"sync"
	"time"
)

// RandomClassifier is a stand-in classifier that draws labels uniformly from
// Vocabulary, ignoring the image. It lets the pipeline run end to end where no
// recognizer is installed.
//
// RandomClassifier is safe for concurrent use. With a fixed seed the label
// sequence is reproducible for a single caller.
type RandomClassifier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a RandomClassifier seeded with seed, or with the current
// time when seed is zero.
func NewRandom(seed int64) *RandomClassifier {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomClassifier{rng: rand.New(rand.NewSource(seed))}
}

// Classify returns a random vocabulary label.
func (c *RandomClassifier) Classify(ctx context.Context, _ image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Vocabulary[c.rng.Intn(len(Vocabulary))], nil
}

// Close is a no-op.
func (c *RandomClassifier) Close() error { return nil }
