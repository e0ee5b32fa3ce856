package docgen

import "strings"

// DocumentType drives identifier requirements and output naming. It is
// derived from the template name, not declared by the caller.
type DocumentType string

const (
	DocTypeInvoice DocumentType = "invoice"
	DocTypeOrder   DocumentType = "order"
	DocTypeCatalog DocumentType = "catalog"
	DocTypeGeneric DocumentType = "generic"
)

// DocumentTypeFor classifies a template name by keyword.
func DocumentTypeFor(templateName string) DocumentType {
	name := strings.ToLower(templateName)
	switch {
	case strings.Contains(name, "catalog") || strings.Contains(name, "product"):
		return DocTypeCatalog
	case strings.Contains(name, "invoice"):
		return DocTypeInvoice
	case strings.Contains(name, "order"):
		return DocTypeOrder
	default:
		return DocTypeGeneric
	}
}

// RequiresIdentifier reports whether documents of this type describe one
// entity per file and therefore need a record identifier. Catalog-style and
// generic documents render the whole dataset instead.
func (t DocumentType) RequiresIdentifier() bool {
	return t == DocTypeInvoice || t == DocTypeOrder
}
