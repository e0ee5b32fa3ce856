package docgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// JSONLoader reads a single object (a one-record dataset) or an array of
// objects. Any other top-level shape, an array element that is not an
// object, or trailing data after the top-level value is a parse failure.
// Object key order is preserved on the record; numbers decode as
// json.Number so numeric identifiers keep their source text.
type JSONLoader struct{}

// Load implements DatasetLoader.
func (JSONLoader) Load(name string, r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, NewError(KindParse, fmt.Sprintf("json %s: empty document", name), nil)
	}
	if err != nil {
		return nil, NewError(KindParse, fmt.Sprintf("json %s: malformed document", name), err)
	}

	ds := &Dataset{Name: name, Format: FormatJSON}

	delim, isDelim := tok.(json.Delim)
	switch {
	case isDelim && delim == '{':
		rec, err := decodeJSONRecord(dec)
		if err != nil {
			return nil, NewError(KindParse, fmt.Sprintf("json %s: malformed object", name), err)
		}
		ds.Records = append(ds.Records, rec)

	case isDelim && delim == '[':
		for dec.More() {
			elem, err := dec.Token()
			if err != nil {
				return nil, NewError(KindParse, fmt.Sprintf("json %s: malformed array", name), err)
			}
			elemDelim, ok := elem.(json.Delim)
			if !ok || elemDelim != '{' {
				return nil, NewError(KindParse, fmt.Sprintf("json %s: array elements must be objects", name), nil)
			}
			rec, err := decodeJSONRecord(dec)
			if err != nil {
				return nil, NewError(KindParse, fmt.Sprintf("json %s: malformed object", name), err)
			}
			ds.Records = append(ds.Records, rec)
		}
		if _, err := dec.Token(); err != nil {
			return nil, NewError(KindParse, fmt.Sprintf("json %s: malformed array", name), err)
		}

	default:
		return nil, NewError(KindParse, fmt.Sprintf("json %s: top-level value must be an object or an array of objects", name), nil)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, NewError(KindParse, fmt.Sprintf("json %s: trailing data after top-level value", name), nil)
	}

	ds.Fields = unionFields(ds.Records)
	return ds, nil
}

// decodeJSONRecord consumes one object body (the opening brace already
// read) keeping key order.
func decodeJSONRecord(dec *json.Decoder) (Record, error) {
	var rec Record
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Record{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Record{}, fmt.Errorf("object key %v is not a string", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return Record{}, err
		}
		rec.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func unionFields(records []Record) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		for _, f := range rec.Fields() {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				out = append(out, f)
			}
		}
	}
	return out
}
