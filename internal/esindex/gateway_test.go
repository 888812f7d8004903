package esindex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empdex/empdex/internal/config"
	"github.com/empdex/empdex/internal/employee"
	"github.com/empdex/empdex/internal/errors"
)

// roundTripFunc lets tests stand in for the cluster.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// jsonResponse fakes an engine reply. The product header is required or
// the client rejects the response before the gateway sees it.
func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header: http.Header{
			"X-Elastic-Product": []string{"Elasticsearch"},
			"Content-Type":      []string{"application/json"},
		},
		Body: io.NopCloser(strings.NewReader(body)),
	}
}

func newTestGateway(t *testing.T, rt roundTripFunc) *Gateway {
	t.Helper()
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://cluster.invalid:9200"},
		Transport: rt,
	})
	require.NoError(t, err)
	return NewGateway(es, employee.Default(), "true")
}

func readBody(t *testing.T, req *http.Request) map[string]any {
	t.Helper()
	require.NotNil(t, req.Body)
	raw, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

// =============================================================================
// Upsert
// =============================================================================

func TestGateway_Upsert_SendsDocumentKeyedByID(t *testing.T) {
	// Given: a gateway over a recording transport
	var captured *http.Request
	var capturedBody map[string]any
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		capturedBody = readBody(t, req)
		return jsonResponse(http.StatusCreated, `{"result":"created"}`), nil
	})

	// When: indexing a document
	doc := map[string]any{"Employee ID": "E02002", "Age": 47}
	err := gw.Upsert(context.Background(), "employees", "E02002", doc)

	// Then: the request keys on the identifier and carries the refresh policy
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, http.MethodPut, captured.Method)
	assert.Equal(t, "/employees/_doc/E02002", captured.URL.Path)
	assert.Equal(t, "true", captured.URL.Query().Get("refresh"))
	assert.Equal(t, "E02002", capturedBody["Employee ID"])
}

func TestGateway_Upsert_EmptyIdentifierRejected(t *testing.T) {
	calls := 0
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	err := gw.Upsert(context.Background(), "employees", "", map[string]any{})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNullIdentifier, errors.GetCode(err))
	assert.Zero(t, calls, "no request should reach the engine")
}

func TestGateway_Upsert_EngineErrorSurfaces(t *testing.T) {
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest,
			`{"error":{"type":"mapper_parsing_exception"}}`), nil
	})

	err := gw.Upsert(context.Background(), "employees", "E02002", map[string]any{"Age": "x"})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeGatewayRequest, errors.GetCode(err))
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

// =============================================================================
// Delete
// =============================================================================

func TestGateway_Delete_RemovesDocument(t *testing.T) {
	var captured *http.Request
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `{"result":"deleted"}`), nil
	})

	err := gw.Delete(context.Background(), "employees", "E02003")

	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, captured.Method)
	assert.Equal(t, "/employees/_doc/E02003", captured.URL.Path)
}

func TestGateway_Delete_NotFoundIsDistinct(t *testing.T) {
	// Given: an engine that has no such document
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"result":"not_found"}`), nil
	})

	// When: deleting a missing identifier
	err := gw.Delete(context.Background(), "employees", "E99999")

	// Then: the error is the dedicated not-found code, not a request failure
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDocumentNotFound, errors.GetCode(err))
	assert.False(t, errors.IsFatal(err))
	assert.Contains(t, err.Error(), "E99999")
}

// =============================================================================
// Collection Lifecycle
// =============================================================================

func TestGateway_EnsureCollection_CreatesWhenMissing(t *testing.T) {
	// Given: a cluster without the collection
	var createReq *http.Request
	var mapping map[string]any
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodHead {
			return jsonResponse(http.StatusNotFound, ``), nil
		}
		createReq = req
		mapping = readBody(t, req)
		return jsonResponse(http.StatusOK, `{"acknowledged":true}`), nil
	})

	// When: ensuring it
	created, err := gw.EnsureCollection(context.Background(), "employees")

	// Then: the collection is created with the schema mapping
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, createReq)
	assert.Equal(t, http.MethodPut, createReq.Method)
	assert.Equal(t, "/employees", createReq.URL.Path)

	props := mapping["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Len(t, props, 14)
	assert.Equal(t, "keyword", props["Employee ID"].(map[string]any)["type"])
	assert.Equal(t, "text", props["Full Name"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["Age"].(map[string]any)["type"])
	assert.Equal(t, "float", props["Annual Salary"].(map[string]any)["type"])
	assert.Equal(t, "date", props["Hire Date"].(map[string]any)["type"])
}

func TestGateway_EnsureCollection_ExistingIsUntouched(t *testing.T) {
	puts := 0
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodHead {
			return jsonResponse(http.StatusOK, ``), nil
		}
		puts++
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	created, err := gw.EnsureCollection(context.Background(), "employees")

	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, puts)
}

// =============================================================================
// Search
// =============================================================================

func TestGateway_SearchByField_KeywordUsesTermQuery(t *testing.T) {
	var body map[string]any
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		body = readBody(t, req)
		return jsonResponse(http.StatusOK, `{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_id": "E02004", "_source": {"Department": "IT"}},
					{"_id": "E02010", "_source": {"Department": "IT"}}
				]
			}
		}`), nil
	})

	result, err := gw.SearchByField(context.Background(), "employees", employee.FieldDepartment, "IT", 0)

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "E02004", result.Hits[0].ID)
	assert.Equal(t, "IT", result.Hits[0].Source["Department"])

	query := body["query"].(map[string]any)
	term := query["term"].(map[string]any)
	assert.Equal(t, "IT", term[employee.FieldDepartment])
	assert.Equal(t, float64(DefaultSearchSize), body["size"])
}

func TestGateway_SearchByField_TextUsesMatchQuery(t *testing.T) {
	var body map[string]any
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		body = readBody(t, req)
		return jsonResponse(http.StatusOK, `{"hits":{"total":{"value":0},"hits":[]}}`), nil
	})

	_, err := gw.SearchByField(context.Background(), "employees", employee.FieldFullName, "Kai Le", 5)

	require.NoError(t, err)
	query := body["query"].(map[string]any)
	match := query["match"].(map[string]any)
	assert.Equal(t, "Kai Le", match[employee.FieldFullName])
	assert.Equal(t, float64(5), body["size"])
}

func TestGateway_SearchByField_UnknownFieldRejected(t *testing.T) {
	calls := 0
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	_, err := gw.SearchByField(context.Background(), "employees", "Favorite Color", "blue", 0)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownField, errors.GetCode(err))
	assert.Zero(t, calls)
}

// =============================================================================
// Count and Facet
// =============================================================================

func TestGateway_Count_ParsesTotal(t *testing.T) {
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		assert.True(t, strings.HasSuffix(req.URL.Path, "/_count"), "path %s", req.URL.Path)
		return jsonResponse(http.StatusOK, `{"count":961}`), nil
	})

	n, err := gw.Count(context.Background(), "employees")

	require.NoError(t, err)
	assert.Equal(t, int64(961), n)
}

func TestGateway_DepartmentFacet_ParsesBuckets(t *testing.T) {
	// Given: an engine returning a terms aggregation
	var body map[string]any
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		body = readBody(t, req)
		return jsonResponse(http.StatusOK, `{
			"aggregations": {
				"department_count": {
					"buckets": [
						{"key": "IT", "doc_count": 241},
						{"key": "Sales", "doc_count": 180}
					]
				}
			}
		}`), nil
	})

	// When: requesting the facet
	buckets, err := gw.DepartmentFacet(context.Background(), "employees")

	// Then: buckets arrive in engine order
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, FacetBucket{Department: "IT", Count: 241}, buckets[0])
	assert.Equal(t, FacetBucket{Department: "Sales", Count: 180}, buckets[1])

	// And: the query asks for zero hits and ten buckets on Department
	assert.Equal(t, float64(0), body["size"])
	aggs := body["aggs"].(map[string]any)["department_count"].(map[string]any)
	terms := aggs["terms"].(map[string]any)
	assert.Equal(t, employee.FieldDepartment, terms["field"])
	assert.Equal(t, float64(10), terms["size"])
}

// =============================================================================
// Connectivity
// =============================================================================

func TestGateway_Ping_ReturnsVersion(t *testing.T) {
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"version":{"number":"8.17.1"}}`), nil
	})

	v, err := gw.Ping(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "8.17.1", v)
}

func TestGateway_UnreachableClusterIsRetryable(t *testing.T) {
	gw := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("dial tcp: connection refused")
	})

	_, err := gw.Count(context.Background(), "employees")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeGatewayUnavailable, errors.GetCode(err))
	assert.True(t, errors.IsRetryable(err))
}

func TestNewClient_BuildsClientFromConfig(t *testing.T) {
	es, err := NewClient(config.ElasticsearchConfig{
		Addresses: []string{"http://localhost:9200"},
		Username:  "elastic",
		Password:  "secret",
	})

	require.NoError(t, err)
	assert.NotNil(t, es)
}

// =============================================================================
// Delete Then Count
// =============================================================================

// fakeCluster keeps enough state to exercise write visibility.
type fakeCluster struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{docs: make(map[string][]byte)}
}

func (f *fakeCluster) roundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := req.URL.Path
	switch {
	case strings.Contains(path, "/_doc/"):
		id := path[strings.LastIndex(path, "/")+1:]
		switch req.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(req.Body)
			f.docs[id] = body
			return jsonResponse(http.StatusCreated, `{"result":"created"}`), nil
		case http.MethodDelete:
			if _, ok := f.docs[id]; !ok {
				return jsonResponse(http.StatusNotFound, `{"result":"not_found"}`), nil
			}
			delete(f.docs, id)
			return jsonResponse(http.StatusOK, `{"result":"deleted"}`), nil
		}
	case strings.HasSuffix(path, "/_count"):
		return jsonResponse(http.StatusOK, fmt.Sprintf(`{"count":%d}`, len(f.docs))), nil
	}
	return jsonResponse(http.StatusBadRequest, `{"error":"unexpected request"}`), nil
}

func TestGateway_DeleteReducesCount(t *testing.T) {
	// Given: three indexed employees
	cluster := newFakeCluster()
	gw := newTestGateway(t, cluster.roundTrip)
	ctx := context.Background()

	for _, id := range []string{"E02002", "E02003", "E02004"} {
		require.NoError(t, gw.Upsert(ctx, "employees", id, map[string]any{"Employee ID": id}))
	}

	before, err := gw.Count(ctx, "employees")
	require.NoError(t, err)
	require.Equal(t, int64(3), before)

	// When: deleting one
	require.NoError(t, gw.Delete(ctx, "employees", "E02003"))

	// Then: the count drops by exactly one
	after, err := gw.Count(ctx, "employees")
	require.NoError(t, err)
	assert.Equal(t, before-1, after)

	// And: deleting it again reports not found without changing the count
	err = gw.Delete(ctx, "employees", "E02003")
	assert.Equal(t, errors.ErrCodeDocumentNotFound, errors.GetCode(err))

	final, err := gw.Count(ctx, "employees")
	require.NoError(t, err)
	assert.Equal(t, after, final)
}

func TestGateway_UpsertSameIDIsIdempotentForCount(t *testing.T) {
	cluster := newFakeCluster()
	gw := newTestGateway(t, cluster.roundTrip)
	ctx := context.Background()

	require.NoError(t, gw.Upsert(ctx, "employees", "E02002", map[string]any{"Age": 47}))
	require.NoError(t, gw.Upsert(ctx, "employees", "E02002", map[string]any{"Age": 48}))

	n, err := gw.Count(ctx, "employees")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
