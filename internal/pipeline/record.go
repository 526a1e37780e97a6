// Package pipeline implements the tabular query pipeline behind the
// dashboard pages: schema-checked filtering, stable sorting and offset
// pagination over in-memory record snapshots. Every stage is a pure
// function of its inputs; no stage mutates or caches anything.
package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field is a single named scalar within a Record.
type Field struct {
	Name  string
	Value interface{}
}

// Record is one row of a tabular collection. Field order is fixed at
// construction and survives filtering, sorting, caching and CSV export.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord builds a record from fields in declaration order. A duplicate
// field name overwrites the earlier value but keeps its original position.
func NewRecord(fields ...Field) Record {
	r := Record{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if i, ok := r.index[f.Name]; ok {
			r.fields[i].Value = f.Value
			continue
		}
		r.index[f.Name] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return r
}

// Get returns the value of the named field and whether it is present.
func (r Record) Get(name string) (interface{}, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// FieldNames returns the record's field names in declaration order.
func (r Record) FieldNames() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// MarshalJSON encodes the record as a JSON object with keys in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving the key order of the
// document. Numbers decode as float64.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("record: decode field %q: %w", key, err)
		}
		if n, ok := raw.(json.Number); ok {
			f, err := n.Float64()
			if err != nil {
				return fmt.Errorf("record: field %q: %w", key, err)
			}
			raw = f
		}
		fields = append(fields, Field{Name: key, Value: raw})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = NewRecord(fields...)
	return nil
}

// Text returns the textual representation of a field value, used by the
// contains filter, the lexical comparator and the CSV exporter. Missing
// and nil values render empty.
func Text(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Numeric parses a field value as a number. The second return reports
// whether parsing succeeded.
func Numeric(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
