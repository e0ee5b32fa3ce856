package docgen

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVLoader reads header-plus-rows CSV files. The first row names the
// fields; every following row becomes one record with values taken
// positionally. Rows with a different field count than the header are a
// parse failure.
type CSVLoader struct{}

// Load implements DatasetLoader.
func (CSVLoader) Load(name string, r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, NewError(KindParse, fmt.Sprintf("csv %s: missing header row", name), nil)
	}
	if err != nil {
		return nil, NewError(KindParse, fmt.Sprintf("csv %s: read header", name), err)
	}
	// Files saved on Windows often carry a UTF-8 BOM on the first cell.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	ds := &Dataset{
		Name:   name,
		Format: FormatCSV,
		Fields: append([]string(nil), header...),
	}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, NewError(KindParse, fmt.Sprintf("csv %s: malformed row", name), err)
		}
		var rec Record
		for i, field := range header {
			rec.Set(field, row[i])
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}
