package model

// Role tags what a matched pattern means on the packaging.
type Role string

const (
	RoleProductionDate  Role = "production_date"
	RoleExpiryDate      Role = "expiry_date"
	RoleShelfLifeMonths Role = "shelf_life_months"
	RoleShelfLifeDays   Role = "shelf_life_days"
)

// IsDate reports whether the role carries a calendar date rather than a
// shelf-life duration.
func (r Role) IsDate() bool {
	return r == RoleProductionDate || r == RoleExpiryDate
}

// Candidate is a structured date or shelf-life guess extracted from one
// fragment via one pattern. Candidates live for a single recognition pass
// and are discarded once a winner is chosen.
type Candidate struct {
	Role            Role    `json:"role"`
	Date            Date    `json:"date,omitzero"`
	ShelfLifeMonths int     `json:"shelf_life_months,omitempty"`
	ShelfLifeDays   int     `json:"shelf_life_days,omitempty"`
	SourceText      string  `json:"source_text"`
	Confidence      float64 `json:"confidence"`
	Engine          string  `json:"engine,omitempty"`
	PatternID       string  `json:"pattern_id"`
	PatternIndex    int     `json:"pattern_index"`
}

// ExpiryResult pairs a derived expiry date with its remaining-day count.
// DaysRemaining is always recomputed from ExpiryDate and "now"; the date is
// the source of truth.
type ExpiryResult struct {
	ExpiryDate    Date `json:"expiry_date"`
	DaysRemaining int  `json:"days_remaining"`
}
