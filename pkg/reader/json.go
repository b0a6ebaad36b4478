package reader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/yurifrl/ledgeru/pkg/models"
)

// ReadJSON decodes a JSON export. selector is a JSONPath expression that
// resolves to an array of objects or a single object; "" or "$" means the
// document root. Numbers stay json.Number so amounts never pass through
// float64.
func ReadJSON(data []byte, selector string) ([]Record, error) {
	doc, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}

	node := doc
	if selector != "" && selector != "$" {
		node, err = jsonpath.Get(selector, doc)
		if err != nil {
			return nil, &models.DecodeError{Err: fmt.Errorf("select %s: %w", selector, err)}
		}
	}

	switch v := node.(type) {
	case map[string]any:
		return []Record{FromMap(0, v)}, nil
	case []any:
		records := make([]Record, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, &models.DecodeError{Err: fmt.Errorf("element %d of %s is %T, not an object", i, selector, item)}
			}
			records = append(records, FromMap(i, obj))
		}
		return records, nil
	case nil:
		return nil, nil
	default:
		return nil, &models.DecodeError{Err: fmt.Errorf("%s is %T, not an object or array", selector, node)}
	}
}

// DecodeJSON parses a whole document with json.Number numbers.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, []byte(bom))))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &models.DecodeError{Err: fmt.Errorf("decode json: %w", err)}
	}
	return doc, nil
}
