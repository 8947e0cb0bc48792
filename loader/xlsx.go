package loader

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"cansig/messaging"
)

// DefaultSheet is the worksheet ParseXLSX reads when loading by extension.
const DefaultSheet = "DBC"

// ParseXLSX reads the catalog table from the named worksheet of a workbook.
// The layout is the same as for ParseCSV.
func ParseXLSX(r io.Reader, sheet string) (*messaging.Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	t, err := newTable(rows[0])
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	b := newBuilder()
	for i, row := range rows[1:] {
		if err := t.add(b, row, i+2); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	return b.cat, nil
}
