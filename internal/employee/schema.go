// Package employee defines the fixed employee record schema and the CSV
// loading pipeline: decode, parse, column exclusion, deduplication,
// value cleaning, and null validation.
package employee

import (
	"fmt"

	"github.com/empdex/empdex/internal/errors"
)

// Kind is the value type of a schema field.
type Kind int

const (
	// KindKeyword holds an exact string matched verbatim.
	KindKeyword Kind = iota
	// KindText holds free text matched with analysis.
	KindText
	// KindInteger holds a whole number.
	KindInteger
	// KindFloat holds a decimal number.
	KindFloat
	// KindDate holds a calendar date.
	KindDate
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Canonical column names as they appear in the CSV header and in indexed
// documents. Field names are used verbatim as document keys.
const (
	FieldEmployeeID   = "Employee ID"
	FieldFullName     = "Full Name"
	FieldJobTitle     = "Job Title"
	FieldDepartment   = "Department"
	FieldBusinessUnit = "Business Unit"
	FieldGender       = "Gender"
	FieldEthnicity    = "Ethnicity"
	FieldAge          = "Age"
	FieldHireDate     = "Hire Date"
	FieldAnnualSalary = "Annual Salary"
	FieldBonusPct     = "Bonus %"
	FieldCountry      = "Country"
	FieldCity         = "City"
	FieldExitDate     = "Exit Date"
)

// Field is one column of the employee schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema is an ordered set of fields with unique names. The order matches
// the canonical CSV column order and is preserved in derived schemas.
type Schema struct {
	fields []Field
	byName map[string]int
}

// NewSchema builds a schema from an ordered field list.
func NewSchema(fields []Field) *Schema {
	s := &Schema{
		fields: make([]Field, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)
	for i, f := range s.fields {
		s.byName[f.Name] = i
	}
	return s
}

// Default returns the full fourteen-column employee schema.
func Default() *Schema {
	return NewSchema([]Field{
		{Name: FieldEmployeeID, Kind: KindKeyword},
		{Name: FieldFullName, Kind: KindText},
		{Name: FieldJobTitle, Kind: KindText},
		{Name: FieldDepartment, Kind: KindKeyword},
		{Name: FieldBusinessUnit, Kind: KindKeyword},
		{Name: FieldGender, Kind: KindKeyword},
		{Name: FieldEthnicity, Kind: KindKeyword},
		{Name: FieldAge, Kind: KindInteger},
		{Name: FieldHireDate, Kind: KindDate},
		{Name: FieldAnnualSalary, Kind: KindFloat},
		{Name: FieldBonusPct, Kind: KindFloat},
		{Name: FieldCountry, Kind: KindKeyword},
		{Name: FieldCity, Kind: KindKeyword},
		{Name: FieldExitDate, Kind: KindDate},
	})
}

// Fields returns the fields in schema order. The slice is a copy.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Has reports whether the schema contains a field with the given name.
func (s *Schema) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Lookup returns the field with the given name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Names returns the field names in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Without returns a derived schema with the named column removed. The
// identifier column cannot be removed because deduplication and document
// identity key on it.
func (s *Schema) Without(column string) (*Schema, error) {
	if column == FieldEmployeeID {
		return nil, errors.New(errors.ErrCodeIdentifierExcluded,
			fmt.Sprintf("cannot exclude %q: it is the document identifier", FieldEmployeeID), nil)
	}
	i, ok := s.byName[column]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownColumn,
			fmt.Sprintf("unknown column %q: schema has no such field", column), nil)
	}
	fields := make([]Field, 0, len(s.fields)-1)
	fields = append(fields, s.fields[:i]...)
	fields = append(fields, s.fields[i+1:]...)
	return NewSchema(fields), nil
}
