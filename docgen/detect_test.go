package docgen

import (
	"strings"
	"testing"
)

func recordWith(fields ...string) Record {
	var rec Record
	for _, f := range fields {
		rec.Set(f, "x")
	}
	return rec
}

func TestDetectIdentifierField(t *testing.T) {
	cases := []struct {
		name   string
		fields []string
		want   string
	}{
		{"exact invoice id", []string{"customer", "invoice_id", "total"}, "invoice_id"},
		{"spaced header", []string{"Customer", "Invoice ID", "Total"}, "Invoice ID"},
		{"invoice beats id", []string{"id", "invoice"}, "invoice"},
		{"inv id", []string{"inv-id", "total"}, "inv-id"},
		{"bare id", []string{"name", "id"}, "id"},
		{"invoice number", []string{"customer", "invoice_no"}, "invoice_no"},
		{"nothing", []string{"title", "body"}, ""},
	}

	for _, tc := range cases {
		got := DetectIdentifierField([]Record{recordWith(tc.fields...)})
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestDetectIdentifierField_PrefersFrequentField(t *testing.T) {
	records := []Record{
		recordWith("invoice_number", "total"),
		recordWith("invoice_number", "total"),
		recordWith("invoice_ref_number"),
	}
	if got := DetectIdentifierField(records); got != "invoice_number" {
		t.Fatalf("expected most frequent candidate, got %q", got)
	}
}

func TestDetectTemplates_ByDatasetName(t *testing.T) {
	available := []string{SampleTemplateInvoice, SampleTemplateOrder, SampleTemplateCatalog}

	ds := &Dataset{Name: "march_invoices.csv"}
	got := DetectTemplates(ds, available)
	if len(got) != 1 || got[0] != SampleTemplateInvoice {
		t.Fatalf("expected invoice template, got %v", got)
	}

	ds = &Dataset{Name: "product_list.xlsx"}
	got = DetectTemplates(ds, available)
	if len(got) != 1 || got[0] != SampleTemplateCatalog {
		t.Fatalf("expected catalog template, got %v", got)
	}
}

func TestDetectTemplates_ByRecordShape(t *testing.T) {
	available := []string{SampleTemplateInvoice, SampleTemplateOrder, SampleTemplateCatalog}

	ds, err := CSVLoader{}.Load("data.csv", strings.NewReader(
		"invoice_id,item_name,qty,price\nINV-1,Widget,1,2\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := DetectTemplates(ds, available)
	if len(got) != 1 || got[0] != SampleTemplateInvoice {
		t.Fatalf("expected invoice template from shape, got %v", got)
	}

	orders, err := JSONLoader{}.Load("data.json", strings.NewReader(
		`[{"order_id": "ORD-1", "items": [{"sku": "A"}]}]`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got = DetectTemplates(orders, available)
	if len(got) != 1 || got[0] != SampleTemplateOrder {
		t.Fatalf("expected order template from items list, got %v", got)
	}
}

func TestDetectTemplates_FallsBackToAll(t *testing.T) {
	available := []string{"custom_report.html"}
	ds := &Dataset{Name: "metrics.csv"}

	got := DetectTemplates(ds, available)
	if len(got) != 1 || got[0] != "custom_report.html" {
		t.Fatalf("expected full available set, got %v", got)
	}
}

func TestDocumentTypeFor(t *testing.T) {
	cases := []struct {
		template string
		want     DocumentType
		needsID  bool
	}{
		{"invoice_simple.html", DocTypeInvoice, true},
		{"order_detailed.html", DocTypeOrder, true},
		{"product_catalog.html", DocTypeCatalog, false},
		{"custom_report.html", DocTypeGeneric, false},
	}

	for _, tc := range cases {
		got := DocumentTypeFor(tc.template)
		if got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.template, tc.want, got)
		}
		if got.RequiresIdentifier() != tc.needsID {
			t.Fatalf("%s: expected RequiresIdentifier=%v", tc.template, tc.needsID)
		}
	}
}
