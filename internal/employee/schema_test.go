package employee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empdex/empdex/internal/errors"
)

func TestDefault_HasFourteenOrderedFields(t *testing.T) {
	// Given: the canonical employee schema
	schema := Default()

	// Then: it has the full column set in file order
	require.Equal(t, 14, schema.Len())
	names := schema.Names()
	assert.Equal(t, FieldEmployeeID, names[0])
	assert.Equal(t, FieldFullName, names[1])
	assert.Equal(t, FieldExitDate, names[13])
}

func TestDefault_FieldKinds(t *testing.T) {
	schema := Default()

	tests := []struct {
		field string
		kind  Kind
	}{
		{FieldEmployeeID, KindKeyword},
		{FieldFullName, KindText},
		{FieldJobTitle, KindText},
		{FieldDepartment, KindKeyword},
		{FieldAge, KindInteger},
		{FieldHireDate, KindDate},
		{FieldAnnualSalary, KindFloat},
		{FieldBonusPct, KindFloat},
		{FieldExitDate, KindDate},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f, ok := schema.Lookup(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.kind, f.Kind)
		})
	}
}

func TestSchema_Without_RemovesColumn(t *testing.T) {
	// Given: the full schema
	schema := Default()

	// When: deriving a schema without Department
	derived, err := schema.Without(FieldDepartment)

	// Then: the column is gone and order is preserved
	require.NoError(t, err)
	assert.Equal(t, 13, derived.Len())
	assert.False(t, derived.Has(FieldDepartment))
	assert.Equal(t, FieldBusinessUnit, derived.Names()[3])

	// And: the source schema is unchanged
	assert.Equal(t, 14, schema.Len())
	assert.True(t, schema.Has(FieldDepartment))
}

func TestSchema_Without_UnknownColumnFails(t *testing.T) {
	_, err := Default().Without("Shoe Size")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownColumn, errors.GetCode(err))
}

func TestSchema_Without_IdentifierRejected(t *testing.T) {
	// When: trying to exclude the identifier column
	_, err := Default().Without(FieldEmployeeID)

	// Then: the derivation fails fatally, deduplication needs the column
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIdentifierExcluded, errors.GetCode(err))
	assert.True(t, errors.IsFatal(err))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "keyword", KindKeyword.String())
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "integer", KindInteger.String())
	assert.Equal(t, "float", KindFloat.String())
	assert.Equal(t, "date", KindDate.String())
}

func TestSchema_Fields_ReturnsCopy(t *testing.T) {
	schema := Default()
	fields := schema.Fields()
	fields[0].Name = "mutated"

	assert.Equal(t, FieldEmployeeID, schema.Names()[0])
}
