package docgen

import "time"

// GeneratedAtLayout is the human-readable timestamp exposed to templates.
const GeneratedAtLayout = "2006-01-02 15:04:05"

// NewBindingContext assembles the data exposed to a template. Templates see
// the selected records, the first selected record, the whole dataset, the
// dataset field order, the identifier, and source metadata. Built fresh per
// run; the same dataset, selection and clock produce an identical context.
func NewBindingContext(ds *Dataset, sel Selection, ref TemplateRef, now time.Time) BindingContext {
	records := make([]map[string]any, len(sel.Records))
	for i, rec := range sel.Records {
		records[i] = rec.Map()
	}
	all := make([]map[string]any, len(ds.Records))
	for i, rec := range ds.Records {
		all[i] = rec.Map()
	}
	record := map[string]any{}
	if len(records) > 0 {
		record = records[0]
	}

	return BindingContext{
		"records":       records,
		"record":        record,
		"all_records":   all,
		"fields":        append([]string(nil), ds.Fields...),
		"invoice_id":    sel.Identifier,
		"generated_at":  now.Format(GeneratedAtLayout),
		"data_file":     ds.Name,
		"template_file": ref.Name,
	}
}
