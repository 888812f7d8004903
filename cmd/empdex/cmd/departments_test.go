package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empdex/empdex/internal/employee"
)

func seedDepartments(fake *fakeOps) {
	for id, dept := range map[string]string{
		"E02003": "IT",
		"E02004": "IT",
		"E02005": "Sales",
	} {
		fake.seed("employees", id, map[string]any{employee.FieldDepartment: dept})
	}
}

func TestDepartmentsCmd_ListsCountsLargestFirst(t *testing.T) {
	// Given: documents across two departments
	withTempHome(t)
	fake := newFakeOps()
	seedDepartments(fake)
	withFakeOps(t, fake)

	// When: requesting the facet
	output, err := execute(t, "departments")

	// Then: both departments appear, IT first
	require.NoError(t, err)
	assert.Contains(t, output, `Departments in "employees"`)
	itPos := strings.Index(output, "IT")
	salesPos := strings.Index(output, "Sales")
	require.GreaterOrEqual(t, itPos, 0)
	require.GreaterOrEqual(t, salesPos, 0)
	assert.Less(t, itPos, salesPos, "Largest department should be listed first")
}

func TestDepartmentsCmd_JSONOutput(t *testing.T) {
	// Given: documents across two departments
	withTempHome(t)
	fake := newFakeOps()
	seedDepartments(fake)
	withFakeOps(t, fake)

	// When: requesting the facet as JSON
	output, err := execute(t, "departments", "--json")

	// Then: the buckets decode in order
	require.NoError(t, err)
	var result struct {
		Collection  string `json:"collection"`
		Departments []struct {
			Department string `json:"department"`
			Count      int64  `json:"count"`
		} `json:"departments"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, "employees", result.Collection)
	require.Len(t, result.Departments, 2)
	assert.Equal(t, "IT", result.Departments[0].Department)
	assert.Equal(t, int64(2), result.Departments[0].Count)
	assert.Equal(t, "Sales", result.Departments[1].Department)
	assert.Equal(t, int64(1), result.Departments[1].Count)
}

func TestDepartmentsCmd_EmptyCollection(t *testing.T) {
	// Given: nothing seeded
	withTempHome(t)
	withFakeOps(t, newFakeOps())

	// When: requesting the facet
	output, err := execute(t, "departments")

	// Then: the empty case is reported without error
	require.NoError(t, err)
	assert.Contains(t, output, `No departments in "employees"`)
}
