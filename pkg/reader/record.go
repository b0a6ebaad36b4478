// Package reader turns vendor export files into ordered raw records.
package reader

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// Record is one raw row or object of a vendor export. Field lookups ignore
// case and surrounding whitespace.
type Record struct {
	// Index is the 0-based position of the record in its source file.
	Index int

	names  []string
	values map[string]any
	doc    map[string]any
}

// NewRecord builds a record from parallel name and value slices. Later
// duplicates of a name are ignored.
func NewRecord(index int, names []string, values []any) Record {
	r := Record{
		Index:  index,
		values: make(map[string]any, len(names)),
		doc:    make(map[string]any, len(names)),
	}
	for i, name := range names {
		var v any
		if i < len(values) {
			v = values[i]
		}
		r.set(name, v)
	}
	return r
}

// FromMap builds a record from a decoded JSON object, keeping the object
// for Path lookups.
func FromMap(index int, obj map[string]any) Record {
	r := Record{
		Index:  index,
		values: make(map[string]any, len(obj)),
		doc:    obj,
	}
	for _, name := range slices.Sorted(maps.Keys(obj)) {
		key := normalize(name)
		if _, dup := r.values[key]; dup {
			continue
		}
		r.names = append(r.names, name)
		r.values[key] = obj[name]
	}
	return r
}

func (r *Record) set(name string, v any) {
	name = strings.TrimSpace(strings.TrimPrefix(name, bom))
	key := normalize(name)
	if _, dup := r.values[key]; dup {
		return
	}
	r.names = append(r.names, name)
	r.values[key] = v
	r.doc[name] = v
}

// With returns a copy of r with name set to value.
func (r Record) With(name string, value any) Record {
	out := Record{
		Index:  r.Index,
		names:  append([]string(nil), r.names...),
		values: maps.Clone(r.values),
		doc:    maps.Clone(r.doc),
	}
	if out.values == nil {
		out.values = map[string]any{}
		out.doc = map[string]any{}
	}
	key := normalize(name)
	if _, ok := out.values[key]; !ok {
		out.names = append(out.names, name)
	}
	out.values[key] = value
	out.doc[name] = value
	return out
}

// Names returns the field names in source order.
func (r Record) Names() []string { return append([]string(nil), r.names...) }

func (r Record) Len() int { return len(r.names) }

// Get returns the raw value of a field.
func (r Record) Get(name string) (any, bool) {
	v, ok := r.values[normalize(name)]
	return v, ok
}

// String returns a field as trimmed text. Missing fields yield "".
func (r Record) String(name string) string {
	v, _ := r.Get(name)
	return toString(v)
}

// First returns the first non-blank value among several candidate names.
func (r Record) First(names ...string) string {
	for _, name := range names {
		if s := r.String(name); s != "" {
			return s
		}
	}
	return ""
}

// Has reports whether the field is present and non-blank.
func (r Record) Has(name string) bool { return r.String(name) != "" }

// Records returns a nested list of records stored under name.
func (r Record) Records(name string) []Record {
	v, _ := r.Get(name)
	switch list := v.(type) {
	case []Record:
		return list
	case []any:
		out := make([]Record, 0, len(list))
		for i, item := range list {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, FromMap(i, obj))
			}
		}
		return out
	default:
		return nil
	}
}

// Path evaluates a JSONPath expression against the record.
func (r Record) Path(expr string) (any, error) {
	v, err := jsonpath.Get(expr, r.doc)
	if err != nil {
		return nil, fmt.Errorf("path %s: %w", expr, err)
	}
	return v, nil
}

// PathString evaluates expr and returns the result as text. A missing path
// yields "".
func (r Record) PathString(expr string) string {
	v, err := r.Path(expr)
	if err != nil {
		return ""
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return ""
		}
		v = list[0]
	}
	return toString(v)
}

const bom = "\ufeff"

func normalize(name string) string {
	name = strings.TrimPrefix(name, bom)
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
