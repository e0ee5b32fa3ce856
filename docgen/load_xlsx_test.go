package docgen

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestXLSXLoader_ReadsFirstSheet(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"product_id", "name", "unit"},
		{"P-1", "Widget", "pcs"},
		{"P-2", "Gadget", "pcs"},
	})

	ds, err := XLSXLoader{}.Load("products.xlsx", bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Format != FormatXLSX {
		t.Fatalf("expected xlsx format, got %s", ds.Format)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(ds.Records))
	}

	v, ok := ds.Records[1].Value("name")
	if !ok || v != "Gadget" {
		t.Fatalf("expected cell value, got %v", v)
	}
}

func TestXLSXLoader_PadsShortRows(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"id", "name", "note"},
		{"1", "alice"},
	})

	ds, err := XLSXLoader{}.Load("short.xlsx", bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	v, ok := ds.Records[0].Value("note")
	if !ok || v != "" {
		t.Fatalf("expected padded empty value, got %v", v)
	}
}

func TestXLSXLoader_MalformedWorkbook(t *testing.T) {
	_, err := XLSXLoader{}.Load("broken.xlsx", bytes.NewReader([]byte("not a zip archive")))
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if kind := KindFromError(err); kind != KindParse {
		t.Fatalf("expected parse kind, got %s", kind)
	}
}
