package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/freshtrack/expiry-cli/internal/model"
	"github.com/freshtrack/expiry-cli/internal/store"
)

func TestWriteExpiringReport(t *testing.T) {
	expired, ok := model.NewDate(2024, 5, 28)
	require.True(t, ok)
	soon, ok := model.NewDate(2024, 6, 3)
	require.True(t, ok)
	produced, ok := model.NewDate(2024, 1, 15)
	require.True(t, ok)

	items := []store.ExpiringItem{
		{
			ExpiryDate:    expired,
			DaysRemaining: -4,
			ScannedAt:     time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC),
		},
		{
			Barcode:        "6901234567890",
			Name:           "UHT Milk 1L",
			ProductionDate: produced,
			ExpiryDate:     soon,
			DaysRemaining:  2,
			ScannedAt:      time.Date(2024, 5, 21, 14, 0, 0, 0, time.UTC),
		},
	}

	path := filepath.Join(t.TempDir(), "expiring.xlsx")
	require.NoError(t, WriteExpiringReport(path, items))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Expiring", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "Barcode", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Days Remaining", sheet.Rows[0].Cells[4].String())

	// Expired item has no barcode or production date.
	assert.Equal(t, "", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "", sheet.Rows[1].Cells[2].String())
	assert.Equal(t, "2024-05-28", sheet.Rows[1].Cells[3].String())
	assert.Equal(t, "-4", sheet.Rows[1].Cells[4].String())

	assert.Equal(t, "UHT Milk 1L", sheet.Rows[2].Cells[1].String())
	assert.Equal(t, "2024-01-15", sheet.Rows[2].Cells[2].String())
	assert.Equal(t, "2", sheet.Rows[2].Cells[4].String())
}

func TestWriteExpiringReport_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteExpiringReport(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Len(t, f.Sheets[0].Rows, 1) // header only
}
