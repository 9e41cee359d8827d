// Package expiry derives expiry dates and remaining-day counts. Every
// function here is pure; callers supply the reference "now" so results are
// reproducible in tests and on periodic refresh.
package expiry

import "github.com/freshtrack/expiry-cli/internal/model"

const (
	// DefaultShelfLifeDays is applied when neither a shelf life nor an
	// explicit expiry date was recognized.
	DefaultShelfLifeDays = 180

	// DaysPerMonth is the fixed 30-day-month approximation used for
	// shelf-life-in-months arithmetic. This deliberately does not do true
	// calendar-month addition; printed shelf lives are nominal durations.
	DaysPerMonth = 30
)

// Input carries everything the recognition pass learned about a product
// unit. Zero values mean "not recognized".
type Input struct {
	Production      model.Date
	ShelfLifeMonths int
	ShelfLifeDays   int
	ExplicitExpiry  model.Date
}

// Compute derives the expiry date and signed remaining-day count.
// Precedence: an explicit expiry date is used as-is; otherwise shelf life in
// days, then months x 30 days, then the 180-day default on top of the
// production date.
func Compute(in Input, now model.Date) model.ExpiryResult {
	var expiry model.Date
	switch {
	case !in.ExplicitExpiry.IsZero():
		expiry = in.ExplicitExpiry
	case in.ShelfLifeDays > 0:
		expiry = in.Production.AddDays(in.ShelfLifeDays)
	case in.ShelfLifeMonths > 0:
		expiry = in.Production.AddDays(in.ShelfLifeMonths * DaysPerMonth)
	default:
		expiry = in.Production.AddDays(DefaultShelfLifeDays)
	}

	return model.ExpiryResult{
		ExpiryDate:    expiry,
		DaysRemaining: DaysRemaining(expiry, now),
	}
}

// DaysRemaining returns the whole-day distance from now to expiry. Negative
// means already expired, zero means it expires today. Anything that shows a
// remaining-days figure must call this, never re-derive its own arithmetic.
func DaysRemaining(expiry, now model.Date) int {
	return int(expiry.Time().Sub(now.Time()).Hours() / 24)
}
