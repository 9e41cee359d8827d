package model

import "time"

// Product is a catalog entry keyed by barcode. ShelfLifeDays is the fallback
// shelf life used when the packaging yields a production date but no
// shelf-life or expiry text.
type Product struct {
	Barcode       string    `json:"barcode"`
	Name          string    `json:"name"`
	ShelfLifeDays int       `json:"shelf_life_days"`
	ReturnDays    int       `json:"return_days"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Scan is one persisted recognition outcome for a product unit.
type Scan struct {
	ID             string    `json:"id"`
	Barcode        string    `json:"barcode,omitempty"`
	ProductionDate Date      `json:"production_date,omitzero"`
	ExpiryDate     Date      `json:"expiry_date"`
	DaysRemaining  int       `json:"days_remaining"`
	Confidence     float64   `json:"confidence"`
	Engine         string    `json:"engine,omitempty"`
	ScannedAt      time.Time `json:"scanned_at"`
}
