package docgen

import (
	"encoding/json"
	"fmt"
)

// Selection is the outcome of record selection for one run. Records holds
// every row matching the identifier (an invoice's line items share one
// identifier), or the whole dataset for catalog-style documents; Record is
// the first of them.
type Selection struct {
	Field      string
	Identifier string
	Record     Record
	Records    []Record
}

// SelectRecords applies the identifier rules for a document type. With an
// identifier, it returns all records whose identifier field stringifies to
// it (case-sensitive). Without one, catalog-style types pass the whole
// dataset through and identifier-bearing types fail, reporting the
// identifiers the dataset does contain.
func SelectRecords(ds *Dataset, docType DocumentType, identifier, fieldOverride string) (Selection, error) {
	field := fieldOverride
	if field == "" {
		field = DetectIdentifierField(ds.Records)
	}

	if identifier == "" {
		if !docType.RequiresIdentifier() {
			sel := Selection{Field: field, Records: ds.Records}
			if len(ds.Records) > 0 {
				sel.Record = ds.Records[0]
			}
			return sel, nil
		}
		if field == "" {
			return Selection{}, &MissingIdentifierError{}
		}
		return Selection{}, &MissingIdentifierError{Field: field, Available: UniqueIdentifiers(ds.Records, field)}
	}

	if field == "" {
		return Selection{}, &MissingIdentifierError{}
	}

	var matches []Record
	for _, rec := range ds.Records {
		if v, ok := rec.Value(field); ok && stringifyValue(v) == identifier {
			matches = append(matches, rec)
		}
	}
	if len(matches) == 0 {
		return Selection{}, &RecordNotFoundError{
			Field:      field,
			Identifier: identifier,
			Available:  UniqueIdentifiers(ds.Records, field),
		}
	}

	return Selection{Field: field, Identifier: identifier, Record: matches[0], Records: matches}, nil
}

// UniqueIdentifiers returns the distinct non-empty values of field across
// records, stringified, in dataset order.
func UniqueIdentifiers(records []Record, field string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		v, ok := rec.Value(field)
		if !ok || v == nil {
			continue
		}
		s := stringifyValue(v)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// stringifyValue renders a record value for identifier comparison, so a CSV
// text id and a JSON numeric id compare equal.
func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
