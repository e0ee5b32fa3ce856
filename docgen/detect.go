package docgen

import (
	"sort"
	"strings"
)

// DetectIdentifierField picks the dataset field that identifies a
// document's records. Exact invoice-id style names win, then fields whose
// name mentions an invoice number, preferring fields present on more
// records. Returns "" when nothing qualifies. Matching ignores case,
// spaces, hyphens and underscores.
func DetectIdentifierField(records []Record) string {
	var keys []string
	counts := make(map[string]int)
	norms := make(map[string]string)
	for _, rec := range records {
		for _, k := range rec.Fields() {
			if _, ok := norms[k]; !ok {
				keys = append(keys, k)
				norms[k] = normalizeFieldName(k)
			}
			counts[k]++
		}
	}

	for _, cand := range []string{"invoiceid", "invoice", "invid", "id"} {
		for _, k := range keys {
			if norms[k] == cand {
				return k
			}
		}
	}

	var contains []string
	for _, k := range keys {
		n := norms[k]
		if strings.Contains(n, "invoice") && (strings.Contains(n, "id") || strings.HasSuffix(n, "no") || strings.HasSuffix(n, "number")) {
			contains = append(contains, k)
		}
	}
	if len(contains) > 0 {
		sort.SliceStable(contains, func(i, j int) bool {
			if counts[contains[i]] != counts[contains[j]] {
				return counts[contains[i]] > counts[contains[j]]
			}
			return len(contains[i]) < len(contains[j])
		})
		return contains[0]
	}

	return ""
}

func normalizeFieldName(field string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(field))
}

// DetectTemplates proposes templates for a dataset from the available set:
// dataset filename keywords first, then record shape. Falls back to the
// full available set when nothing matches.
func DetectTemplates(ds *Dataset, available []string) []string {
	byName := make(map[string]string, len(available))
	for _, t := range available {
		byName[strings.ToLower(t)] = t
	}

	dsName := strings.ToLower(ds.Name)
	if t, ok := byName[SampleTemplateInvoice]; ok && strings.Contains(dsName, "invoice") {
		return []string{t}
	}
	if t, ok := byName[SampleTemplateOrder]; ok && strings.Contains(dsName, "order") {
		return []string{t}
	}
	if t, ok := byName[SampleTemplateCatalog]; ok && strings.Contains(dsName, "product") {
		return []string{t}
	}

	keys := make(map[string]bool)
	for _, rec := range ds.Records {
		for _, k := range rec.Fields() {
			keys[k] = true
		}
	}

	var candidates []string
	if t, ok := byName[SampleTemplateInvoice]; ok && keys["item_name"] && keys["qty"] && keys["price"] {
		candidates = append(candidates, t)
	}
	if t, ok := byName[SampleTemplateCatalog]; ok && keys["product_id"] && keys["name"] && keys["unit"] {
		candidates = append(candidates, t)
	}
	if t, ok := byName[SampleTemplateOrder]; ok && anyItemsList(ds.Records) {
		candidates = append(candidates, t)
	}
	if len(candidates) > 0 {
		return candidates
	}

	return available
}

func anyItemsList(records []Record) bool {
	for _, rec := range records {
		if v, ok := rec.Value("items"); ok {
			if _, isList := v.([]any); isList {
				return true
			}
		}
	}
	return false
}
