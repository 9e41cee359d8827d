package recognize

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/freshtrack/expiry-cli/internal/expiry"
	"github.com/freshtrack/expiry-cli/internal/model"
	"github.com/freshtrack/expiry-cli/internal/pattern"
)

// Sentinel outcomes of a recognition pass. Both are transient: the calling
// loop is expected to try again with the next frame or prompt for manual
// entry, never to treat them as fatal.
var (
	// ErrNoText means the OCR layer produced an empty fragment set.
	ErrNoText = eris.New("recognize: no text fragments")

	// ErrNoDate means patterns matched nothing usable for deriving an
	// expiry date.
	ErrNoDate = eris.New("recognize: no date candidate found")
)

// Result is the outcome of one recognition pass. The shelf-life and
// explicit-expiry fields carry what was actually recognized so callers can
// recompute with their own fallbacks (e.g. a catalog shelf life); Expiry is
// the engine's own derivation with the built-in default.
type Result struct {
	Production      model.Date         `json:"production_date,omitzero"`
	ExplicitExpiry  model.Date         `json:"explicit_expiry,omitzero"`
	ShelfLifeMonths int                `json:"shelf_life_months,omitempty"`
	ShelfLifeDays   int                `json:"shelf_life_days,omitempty"`
	Expiry          model.ExpiryResult `json:"expiry"`
	Confidence      float64            `json:"confidence"`
	Engine          string             `json:"engine,omitempty"`
	Candidates      int                `json:"candidates"`
}

// Recognizer runs extract, resolve, and expiry derivation over fragment
// sets. It holds only the immutable library and a clock, so one instance
// may be shared by any number of goroutines.
type Recognizer struct {
	lib *pattern.Library
	now func() model.Date
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithNow fixes the reference date, for tests and replays.
func WithNow(now model.Date) Option {
	return func(r *Recognizer) {
		r.now = func() model.Date { return now }
	}
}

// New creates a Recognizer. A nil library means the builtin one.
func New(lib *pattern.Library, opts ...Option) *Recognizer {
	if lib == nil {
		lib = pattern.Builtin()
	}
	r := &Recognizer{lib: lib, now: model.Today}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recognize runs one full pass over a fragment set. It returns ErrNoText
// for an empty set and ErrNoDate when no candidate can anchor an expiry
// date (a shelf life alone cannot).
func (r *Recognizer) Recognize(fragments []model.Fragment) (*Result, error) {
	if len(fragments) == 0 {
		return nil, ErrNoText
	}

	candidates := Extract(r.lib, fragments)
	if len(candidates) == 0 {
		return nil, ErrNoDate
	}

	res := Resolve(candidates)
	if res.Production == nil && res.Expiry == nil {
		// Only a shelf-life duration was found; there is nothing to anchor
		// it to, so the caller must retry or fall back to manual entry.
		return nil, ErrNoDate
	}

	out := &Result{Candidates: len(candidates)}
	in := expiry.Input{}

	if res.Production != nil {
		out.Production = res.Production.Date
		out.Confidence = res.Production.Confidence
		out.Engine = res.Production.Engine
		in.Production = res.Production.Date
	}
	if res.Expiry != nil {
		out.ExplicitExpiry = res.Expiry.Date
		in.ExplicitExpiry = res.Expiry.Date
		if res.Production == nil {
			out.Confidence = res.Expiry.Confidence
			out.Engine = res.Expiry.Engine
		}
	}
	if res.ShelfLifeMonths != nil {
		out.ShelfLifeMonths = res.ShelfLifeMonths.ShelfLifeMonths
		in.ShelfLifeMonths = res.ShelfLifeMonths.ShelfLifeMonths
	}
	if res.ShelfLifeDays != nil {
		out.ShelfLifeDays = res.ShelfLifeDays.ShelfLifeDays
		in.ShelfLifeDays = res.ShelfLifeDays.ShelfLifeDays
	}

	out.Expiry = expiry.Compute(in, r.now())

	zap.L().Debug("recognition pass complete",
		zap.Int("fragments", len(fragments)),
		zap.Int("candidates", len(candidates)),
		zap.String("production", out.Production.String()),
		zap.String("expiry", out.Expiry.ExpiryDate.String()),
		zap.Float64("confidence", out.Confidence),
	)

	return out, nil
}
