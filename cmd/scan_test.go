package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshtrack/expiry-cli/internal/model"
	"github.com/freshtrack/expiry-cli/internal/recognize"
)

func date(t *testing.T, y, m, d int) model.Date {
	t.Helper()
	dt, ok := model.NewDate(y, m, d)
	require.True(t, ok)
	return dt
}

func TestBuildScan_CatalogShelfLifeFallback(t *testing.T) {
	// Label gave only a production date; the catalog shelf life replaces
	// the 180-day default.
	result := &recognize.Result{
		Production: date(t, 2024, 1, 15),
		Expiry:     model.ExpiryResult{ExpiryDate: date(t, 2024, 7, 13)},
		Confidence: 0.9,
	}
	product := &model.Product{Barcode: "b-1", ShelfLifeDays: 90}

	scan := buildScan(result, product)
	assert.Equal(t, "b-1", scan.Barcode)
	assert.Equal(t, date(t, 2024, 4, 14), scan.ExpiryDate)
}

func TestBuildScan_LabelDurationWins(t *testing.T) {
	// The label carried its own shelf life; the catalog must not override.
	result := &recognize.Result{
		Production:      date(t, 2024, 1, 15),
		ShelfLifeMonths: 12,
		Expiry:          model.ExpiryResult{ExpiryDate: date(t, 2025, 1, 9), DaysRemaining: 300},
		Confidence:      0.9,
	}
	product := &model.Product{Barcode: "b-1", ShelfLifeDays: 90}

	scan := buildScan(result, product)
	assert.Equal(t, date(t, 2025, 1, 9), scan.ExpiryDate)
	assert.Equal(t, 300, scan.DaysRemaining)
}

func TestBuildScan_ExplicitExpiryWins(t *testing.T) {
	result := &recognize.Result{
		ExplicitExpiry: date(t, 2024, 12, 31),
		Expiry:         model.ExpiryResult{ExpiryDate: date(t, 2024, 12, 31), DaysRemaining: 100},
		Confidence:     0.95,
	}
	product := &model.Product{Barcode: "b-1", ShelfLifeDays: 90}

	scan := buildScan(result, product)
	assert.Equal(t, date(t, 2024, 12, 31), scan.ExpiryDate)
}

func TestBuildScan_NoProduct(t *testing.T) {
	result := &recognize.Result{
		Production: date(t, 2024, 1, 15),
		Expiry:     model.ExpiryResult{ExpiryDate: date(t, 2024, 7, 13), DaysRemaining: 50},
		Confidence: 0.8,
		Engine:     "tesseract",
	}

	scan := buildScan(result, nil)
	assert.Empty(t, scan.Barcode)
	assert.Equal(t, date(t, 2024, 7, 13), scan.ExpiryDate)
	assert.Equal(t, 50, scan.DaysRemaining)
	assert.Equal(t, "tesseract", scan.Engine)
}
