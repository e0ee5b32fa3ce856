package docgen

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXLoader reads the first sheet of a workbook. The first row names the
// fields; following rows become records, padded with empty strings when the
// sheet trims trailing cells.
type XLSXLoader struct{}

// Load implements DatasetLoader.
func (XLSXLoader) Load(name string, r io.Reader) (*Dataset, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, NewError(KindParse, fmt.Sprintf("xlsx %s: open workbook", name), err)
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, NewError(KindParse, fmt.Sprintf("xlsx %s: workbook has no sheets", name), nil)
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, NewError(KindParse, fmt.Sprintf("xlsx %s: read sheet %s", name, sheet), err)
	}
	if len(rows) == 0 {
		return nil, NewError(KindParse, fmt.Sprintf("xlsx %s: missing header row", name), nil)
	}

	header := rows[0]
	ds := &Dataset{
		Name:   name,
		Format: FormatXLSX,
		Fields: append([]string(nil), header...),
	}
	for _, row := range rows[1:] {
		var rec Record
		for i, field := range header {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			rec.Set(field, value)
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}
