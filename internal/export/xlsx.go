// Package export writes expiring-stock reports for sharing outside the CLI.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/freshtrack/expiry-cli/internal/store"
)

var reportHeader = []string{"Barcode", "Product", "Production Date", "Expiry Date", "Days Remaining", "Scanned At"}

// WriteExpiringReport writes the expiring items to an XLSX workbook at path.
// Items are written in the order given; callers pass them sorted by urgency.
func WriteExpiringReport(path string, items []store.ExpiringItem) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Expiring")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range reportHeader {
		header.AddCell().SetString(h)
	}

	for _, item := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(item.Barcode)
		row.AddCell().SetString(item.Name)
		if item.ProductionDate.IsZero() {
			row.AddCell().SetString("")
		} else {
			row.AddCell().SetString(item.ProductionDate.String())
		}
		row.AddCell().SetString(item.ExpiryDate.String())
		row.AddCell().SetString(strconv.Itoa(item.DaysRemaining))
		row.AddCell().SetString(item.ScannedAt.UTC().Format("2006-01-02 15:04:05"))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
