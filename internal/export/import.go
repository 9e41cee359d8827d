package export

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/freshtrack/expiry-cli/internal/model"
)

// ReadProductCatalog reads catalog entries from an XLSX workbook. The first
// sheet must carry a header row followed by one product per row:
// barcode, name, shelf-life days, return-window days. The numeric columns
// may be blank; blank shelf life falls back to the store default.
func ReadProductCatalog(path string) ([]model.Product, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "export: open catalog file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("export: %s has no sheets", path)
	}

	var products []model.Product
	for i, row := range f.Sheets[0].Rows {
		if i == 0 {
			continue // header
		}
		cells := rowStrings(row)
		if len(cells) == 0 || cells[0] == "" {
			continue
		}

		p := model.Product{Barcode: cells[0]}
		if len(cells) > 1 {
			p.Name = cells[1]
		}
		if p.ShelfLifeDays, err = cellInt(cells, 2); err != nil {
			return nil, eris.Wrapf(err, "export: row %d shelf life", i+1)
		}
		if p.ReturnDays, err = cellInt(cells, 3); err != nil {
			return nil, eris.Wrapf(err, "export: row %d return window", i+1)
		}
		products = append(products, p)
	}
	return products, nil
}

func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = strings.TrimSpace(c.String())
	}
	return cells
}

func cellInt(cells []string, idx int) (int, error) {
	if idx >= len(cells) || cells[idx] == "" {
		return 0, nil
	}
	return strconv.Atoi(cells[idx])
}
