package ocr

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/freshtrack/expiry-cli/internal/model"
)

// Multi fans an image out to several engines concurrently and merges their
// fragment sets. A failing engine is non-fatal as long as another one
// produced text; the disambiguator sorts out disagreements downstream.
type Multi struct {
	engines []Extractor
}

// NewMulti creates a Multi over the given engines.
func NewMulti(engines ...Extractor) *Multi {
	return &Multi{engines: engines}
}

// ExtractFragments queries every engine and returns the union of their
// fragments. It fails only when all engines fail.
func (m *Multi) ExtractFragments(ctx context.Context, imagePath string) ([]model.Fragment, error) {
	var (
		mu        sync.Mutex
		fragments []model.Fragment
		failures  []error
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, engine := range m.engines {
		engine := engine
		g.Go(func() error {
			frags, err := engine.ExtractFragments(ctx, imagePath)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return nil // collected, not fatal
			}
			fragments = append(fragments, frags...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(fragments) == 0 && len(failures) > 0 {
		return nil, eris.Wrapf(failures[0], "ocr: all %d engines failed", len(failures))
	}
	for _, err := range failures {
		zap.L().Warn("ocr engine failed, continuing with remaining engines",
			zap.String("image", imagePath),
			zap.Error(err),
		)
	}

	return fragments, nil
}
