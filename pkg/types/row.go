package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TableKey is the reserved key holding the originating table name.
const TableKey = "_table"

// Field is one column of a Row.
type Field struct {
	Name  string
	Value Value
}

// Row is an insertion-ordered mapping of column name to Value. Setting an
// existing name overwrites the value in place and keeps its position.
type Row struct {
	fields []Field
	index  map[string]int
}

// NewRow returns a row with TableKey set to table.
func NewRow(table string) *Row {
	r := &Row{index: make(map[string]int)}
	r.Set(TableKey, String(table))
	return r
}

func (r *Row) Set(name string, v Value) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = v
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

func (r *Row) Get(name string) (Value, bool) {
	i, ok := r.index[name]
	if !ok {
		return Value{}, false
	}
	return r.fields[i].Value, true
}

// Keys returns the column names in insertion order, TableKey included.
func (r *Row) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Name
	}
	return keys
}

// Fields returns a copy of the row's fields in order.
func (r *Row) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Table returns the originating table name.
func (r *Row) Table() string {
	v, _ := r.Get(TableKey)
	return v.Text()
}

func (r *Row) Len() int {
	return len(r.fields)
}

func (r *Row) MarshalJSON() ([]byte, error) {
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
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object and keeps the key order of the document.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row must be a JSON object")
	}

	r.fields = nil
	r.index = make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected row key %v", tok)
		}
		var v Value
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("failed to decode field %s: %w", name, err)
		}
		r.Set(name, v)
	}
	_, err = dec.Token()
	return err
}
