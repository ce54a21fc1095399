package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one image of a batch.
type BatchItem struct {
	Path   string  `json:"path"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`

	kind Kind
}

// Failed reports whether the image could not be processed.
func (b BatchItem) Failed() bool {
	return b.Error != ""
}

// Kind returns the error kind of a failed item.
func (b BatchItem) Kind() Kind {
	return b.kind
}

// ProcessBatch runs ProcessFile over paths with at most workers images in
// flight. workers <= 0 uses GOMAXPROCS.
//
// Items come back in the order of paths. A failing image is recorded in its
// item and does not stop the rest; only cancellation of ctx does, in which
// case the returned error is ctx's.
func (p *Pipeline) ProcessBatch(ctx context.Context, paths []string, workers int) ([]BatchItem, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	items := make([]BatchItem, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		items[i].Path = path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.ProcessFile(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				pe := Classify(err)
				items[i].Error = pe.Msg
				items[i].kind = pe.Kind
				p.log.Warn().Str("path", path).Str("kind", string(pe.Kind)).Err(err).Msg("image failed")
				return nil
			}
			items[i].Result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return items, err
	}
	return items, nil
}

// WriteBatch writes one JSON object per line for each item.
func WriteBatch(w io.Writer, items []BatchItem) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}
