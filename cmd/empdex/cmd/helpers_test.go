package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/empdex/empdex/internal/config"
	"github.com/empdex/empdex/internal/employee"
	"github.com/empdex/empdex/internal/errors"
	"github.com/empdex/empdex/internal/esindex"
)

// fakeOps is an in-memory stand-in for the Elasticsearch gateway.
// Documents live in nested maps keyed by collection and id.
type fakeOps struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	pingVersion string

	pingErr   error
	ensureErr error
	upsertErr error
	deleteErr error
	searchErr error
	countErr  error
	facetErr  error
}

var _ esindex.Operations = (*fakeOps)(nil)

func newFakeOps() *fakeOps {
	return &fakeOps{
		collections: make(map[string]map[string]map[string]any),
		pingVersion: "8.14.3",
	}
}

func (f *fakeOps) Ping(_ context.Context) (string, error) {
	if f.pingErr != nil {
		return "", f.pingErr
	}
	return f.pingVersion, nil
}

func (f *fakeOps) EnsureCollection(_ context.Context, name string) (bool, error) {
	if f.ensureErr != nil {
		return false, f.ensureErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[name]; ok {
		return false, nil
	}
	f.collections[name] = make(map[string]map[string]any)
	return true, nil
}

func (f *fakeOps) Upsert(_ context.Context, collection, id string, doc map[string]any) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[collection]; !ok {
		f.collections[collection] = make(map[string]map[string]any)
	}
	f.collections[collection][id] = doc
	return nil
}

func (f *fakeOps) Delete(_ context.Context, collection, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[collection][id]; !ok {
		return errors.New(errors.ErrCodeDocumentNotFound,
			fmt.Sprintf("document %q not found in %s", id, collection), nil)
	}
	delete(f.collections[collection], id)
	return nil
}

// SearchByField validates the field against the schema like the real
// gateway, then matches on the rendered document value.
func (f *fakeOps) SearchByField(_ context.Context, collection, field, value string, size int) (*esindex.SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if _, ok := employee.Default().Lookup(field); !ok {
		return nil, errors.New(errors.ErrCodeUnknownField,
			fmt.Sprintf("unknown field %q", field), nil)
	}
	if size <= 0 {
		size = 10
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0)
	for id, doc := range f.collections[collection] {
		if v, ok := doc[field]; ok && fmt.Sprintf("%v", v) == value {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	result := &esindex.SearchResult{Total: int64(len(ids))}
	for _, id := range ids {
		if len(result.Hits) >= size {
			break
		}
		result.Hits = append(result.Hits, esindex.Hit{ID: id, Source: f.collections[collection][id]})
	}
	return result, nil
}

func (f *fakeOps) Count(_ context.Context, collection string) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.collections[collection])), nil
}

func (f *fakeOps) DepartmentFacet(_ context.Context, collection string) ([]esindex.FacetBucket, error) {
	if f.facetErr != nil {
		return nil, f.facetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[string]int64)
	for _, doc := range f.collections[collection] {
		if v, ok := doc[employee.FieldDepartment]; ok && v != nil {
			counts[fmt.Sprintf("%v", v)]++
		}
	}

	buckets := make([]esindex.FacetBucket, 0, len(counts))
	for dept, n := range counts {
		buckets = append(buckets, esindex.FacetBucket{Department: dept, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Department < buckets[j].Department
	})
	return buckets, nil
}

// seed inserts a document directly, bypassing the command under test.
func (f *fakeOps) seed(collection, id string, doc map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[collection]; !ok {
		f.collections[collection] = make(map[string]map[string]any)
	}
	f.collections[collection][id] = doc
}

// doc returns one stored document, or nil when absent.
func (f *fakeOps) doc(collection, id string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collections[collection][id]
}

// docCount returns the number of documents in a collection.
func (f *fakeOps) docCount(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.collections[collection])
}

// withFakeOps routes every command in this test at the fake engine.
func withFakeOps(t *testing.T, fake esindex.Operations) {
	t.Helper()
	orig := newOperations
	newOperations = func(*config.Config) (esindex.Operations, error) {
		return fake, nil
	}
	t.Cleanup(func() { newOperations = orig })
}

// withTempHome points HOME and the working directory at a temp dir so
// config, journal, lock, and log files stay isolated per test.
func withTempHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, ".config"))

	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })
	return tmp
}

// Canonical header plus dense rows: every cell filled so the batch
// passes null validation.
const testCSVHeader = "Employee ID,Full Name,Job Title,Department,Business Unit,Gender,Ethnicity,Age,Hire Date,Annual Salary,Bonus %,Country,City,Exit Date"

var (
	rowKai     = `E02002,Kai Le,Controls Engineer,Engineering,Manufacturing,Male,Asian,47,2/5/2022,"$92,368",0%,United States,Columbus,12/1/2023`
	rowRobert  = `E02003,Robert Patel,Analyst,IT,Corporate,Male,Asian,58,10/23/2013,"$45,703",0%,United States,Chicago,6/4/2021`
	rowCameron = `E02004,Cameron Lo,Network Administrator,IT,Corporate,Male,Chinese,34,3/24/2019,"$83,576",0%,United States,Chicago,7/20/2022`
)

// writeEmployeeCSV writes a CSV fixture into dir and returns its path.
func writeEmployeeCSV(t *testing.T, dir string, rows ...string) string {
	t.Helper()
	lines := append([]string{testCSVHeader}, rows...)
	path := filepath.Join(dir, "employee_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

// execute runs the root command with args and captures combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
