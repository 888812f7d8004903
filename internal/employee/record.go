package employee

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for date values in indexed documents.
const DateLayout = "2006-01-02"

// Value is a single typed cell. The zero Value is an unset keyword cell.
// Unset cells render as null in documents and fail null validation.
type Value struct {
	Kind Kind
	Set  bool

	Str   string
	Int   int
	Float float64
	Date  time.Time
}

// Unset returns an empty cell of the given kind.
func Unset(k Kind) Value {
	return Value{Kind: k}
}

// StringValue returns a set string cell of the given kind. The kind must
// be KindKeyword or KindText.
func StringValue(k Kind, s string) Value {
	return Value{Kind: k, Set: true, Str: s}
}

// IntValue returns a set integer cell.
func IntValue(n int) Value {
	return Value{Kind: KindInteger, Set: true, Int: n}
}

// FloatValue returns a set float cell.
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Set: true, Float: f}
}

// DateValue returns a set date cell.
func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Set: true, Date: t}
}

// Interface returns the cell as a JSON-marshalable value, or nil when the
// cell is unset. Dates render as DateLayout strings.
func (v Value) Interface() any {
	if !v.Set {
		return nil
	}
	switch v.Kind {
	case KindInteger:
		return v.Int
	case KindFloat:
		return v.Float
	case KindDate:
		return v.Date.Format(DateLayout)
	default:
		return v.Str
	}
}

// String renders the cell for diagnostics. Unset cells render as "<null>".
func (v Value) String() string {
	if !v.Set {
		return "<null>"
	}
	switch v.Kind {
	case KindInteger:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindDate:
		return v.Date.Format(DateLayout)
	default:
		return v.Str
	}
}

// Record is one employee row with typed values aligned to a schema.
// Fields never set default to unset cells of the schema kind.
type Record struct {
	// Line is the 1-based CSV line the row came from, 0 for records
	// built outside the loader.
	Line int

	schema *Schema
	values map[string]Value
}

// NewRecord returns an empty record for the given schema.
func NewRecord(schema *Schema) *Record {
	return &Record{
		schema: schema,
		values: make(map[string]Value, schema.Len()),
	}
}

// Schema returns the schema the record is aligned to.
func (r *Record) Schema() *Schema {
	return r.schema
}

// Set stores a cell. Fields outside the schema are ignored.
func (r *Record) Set(field string, v Value) {
	if !r.schema.Has(field) {
		return
	}
	r.values[field] = v
}

// Get returns the cell for a schema field. Fields never stored return an
// unset cell of the schema kind.
func (r *Record) Get(field string) (Value, bool) {
	f, ok := r.schema.Lookup(field)
	if !ok {
		return Value{}, false
	}
	if v, ok := r.values[field]; ok {
		return v, true
	}
	return Unset(f.Kind), true
}

// ID returns the raw identifier string, or "" when the identifier is
// unset or the schema has no identifier column.
func (r *Record) ID() string {
	v, ok := r.Get(FieldEmployeeID)
	if !ok || !v.Set {
		return ""
	}
	return v.Str
}

// Document renders the record as a flat field-to-value map keyed by
// canonical column names, suitable for indexing. Unset cells render as
// explicit nulls.
func (r *Record) Document() map[string]any {
	doc := make(map[string]any, r.schema.Len())
	for _, f := range r.schema.Fields() {
		v, _ := r.Get(f.Name)
		doc[f.Name] = v.Interface()
	}
	return doc
}

// FirstUnset returns the name of the first unset field in schema order.
func (r *Record) FirstUnset() (string, bool) {
	for _, f := range r.schema.Fields() {
		v, _ := r.Get(f.Name)
		if !v.Set {
			return f.Name, true
		}
	}
	return "", false
}

// UnsetCount returns the number of unset fields.
func (r *Record) UnsetCount() int {
	n := 0
	for _, f := range r.schema.Fields() {
		v, _ := r.Get(f.Name)
		if !v.Set {
			n++
		}
	}
	return n
}
