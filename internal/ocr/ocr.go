// Package ocr extracts text fragments from packaging photos. The
// recognition engine is polymorphic over the Extractor capability; engines
// differ only in how the text was produced and what confidence they attach.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/freshtrack/expiry-cli/internal/config"
	"github.com/freshtrack/expiry-cli/internal/model"
)

// Extractor extracts text fragments from an image file.
type Extractor interface {
	ExtractFragments(ctx context.Context, imagePath string) ([]model.Fragment, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "tesseract", "":
		return NewTesseract(cfg.TesseractPath, cfg.Lang), nil
	case "remote":
		if cfg.Endpoint == "" {
			return nil, eris.New("ocr: remote provider requires endpoint")
		}
		return NewRemote(cfg.Endpoint, cfg.APIKey, cfg.MinConfidence), nil
	case "multi":
		if cfg.Endpoint == "" {
			return nil, eris.New("ocr: multi provider requires endpoint")
		}
		return NewMulti(
			NewTesseract(cfg.TesseractPath, cfg.Lang),
			NewRemote(cfg.Endpoint, cfg.APIKey, cfg.MinConfidence),
		), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
