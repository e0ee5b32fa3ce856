package docgen

import (
	"embed"
	"fmt"
	"io/fs"
)

// Bundled sample names, used as invocation defaults and by template
// detection.
const (
	SampleDataset         = "invoices.csv"
	SampleTemplateInvoice = "invoice_simple.html"
	SampleTemplateOrder   = "order_detailed.html"
	SampleTemplateCatalog = "product_catalog.html"
)

//go:embed assets/templates assets/data
var embeddedSamples embed.FS

// SampleTemplatesFS exposes the bundled sample templates.
func SampleTemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedSamples, "assets/templates")
	if err != nil {
		// This should never happen because the directory is embedded at build time.
		panic(fmt.Errorf("docgen: failed to prepare embedded templates: %w", err))
	}
	return sub
}

// SampleDataFS exposes the bundled sample datasets.
func SampleDataFS() fs.FS {
	sub, err := fs.Sub(embeddedSamples, "assets/data")
	if err != nil {
		panic(fmt.Errorf("docgen: failed to prepare embedded sample data: %w", err))
	}
	return sub
}
