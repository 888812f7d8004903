// Package esindex is the gateway to the Elasticsearch collections that
// hold indexed employee documents. Every operation maps to one engine
// request; there is no batching and no retrying.
package esindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/empdex/empdex/internal/employee"
	"github.com/empdex/empdex/internal/errors"
)

// DefaultSearchSize caps search hits when the caller passes no size.
const DefaultSearchSize = 10

// facetAggName is the aggregation key for the department facet.
const facetAggName = "department_count"

// facetSize caps the number of department buckets returned.
const facetSize = 10

// Gateway executes collection operations against a live cluster.
type Gateway struct {
	es      *elasticsearch.Client
	schema  *employee.Schema
	refresh string
}

var _ Operations = (*Gateway)(nil)

// NewGateway wraps an Elasticsearch client. The schema drives collection
// mappings and per-field query construction. Refresh is the policy
// applied to writes, "true" forces immediate visibility.
func NewGateway(es *elasticsearch.Client, schema *employee.Schema, refresh string) *Gateway {
	if refresh == "" {
		refresh = "true"
	}
	return &Gateway{es: es, schema: schema, refresh: refresh}
}

// Ping checks connectivity and returns the engine version.
func (g *Gateway) Ping(ctx context.Context) (string, error) {
	res, err := esapi.InfoRequest{}.Do(ctx, g.es)
	if err != nil {
		return "", unavailable(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return "", responseError("cluster info", res)
	}

	var info infoResponse
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return "", errors.GatewayError("cannot decode cluster info", err)
	}
	return info.Version.Number, nil
}

// EnsureCollection creates the collection with the full employee mapping
// when it does not exist yet. Existing collections are left untouched,
// even when their mapping differs.
func (g *Gateway) EnsureCollection(ctx context.Context, name string) (bool, error) {
	res, err := esapi.IndicesExistsRequest{Index: []string{name}}.Do(ctx, g.es)
	if err != nil {
		return false, unavailable(err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
		// fall through to create
	default:
		return false, responseError(fmt.Sprintf("check collection %s", name), res)
	}

	body, err := json.Marshal(collectionMapping(g.schema))
	if err != nil {
		return false, errors.InternalError("cannot marshal collection mapping", err)
	}

	createRes, err := esapi.IndicesCreateRequest{Index: name, Body: bytes.NewReader(body)}.Do(ctx, g.es)
	if err != nil {
		return false, unavailable(err)
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		return false, responseError(fmt.Sprintf("create collection %s", name), createRes)
	}
	return true, nil
}

// Upsert indexes one document keyed by identifier. Re-indexing an
// existing identifier replaces the stored document.
func (g *Gateway) Upsert(ctx context.Context, collection, id string, doc map[string]any) error {
	if id == "" {
		return errors.New(errors.ErrCodeNullIdentifier, "document identifier is empty", nil)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.InternalError(fmt.Sprintf("cannot marshal document %s", id), err)
	}

	res, err := esapi.IndexRequest{
		Index:      collection,
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Refresh:    g.refresh,
	}.Do(ctx, g.es)
	if err != nil {
		return unavailable(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(fmt.Sprintf("index document %s into %s", id, collection), res)
	}
	return nil
}

// Delete removes one document by identifier. A missing document returns
// ERR_303 so callers can report it without treating it as a failure.
func (g *Gateway) Delete(ctx context.Context, collection, id string) error {
	res, err := esapi.DeleteRequest{
		Index:      collection,
		DocumentID: id,
		Refresh:    g.refresh,
	}.Do(ctx, g.es)
	if err != nil {
		return unavailable(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return errors.New(errors.ErrCodeDocumentNotFound,
			fmt.Sprintf("employee %s is not in collection %s", id, collection), nil)
	}
	if res.IsError() {
		return responseError(fmt.Sprintf("delete document %s from %s", id, collection), res)
	}
	return nil
}

// SearchByField runs an exact match on one schema field. Keyword,
// numeric, and date fields use a term query; analyzed text fields use a
// match query so tokenized values still hit.
func (g *Gateway) SearchByField(ctx context.Context, collection, field, value string, size int) (*SearchResult, error) {
	f, ok := g.schema.Lookup(field)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownField,
			fmt.Sprintf("unknown field %q", field), nil).
			WithSuggestion(fmt.Sprintf("valid fields: %s", strings.Join(g.schema.Names(), ", ")))
	}
	if size <= 0 {
		size = DefaultSearchSize
	}

	body, err := json.Marshal(map[string]any{
		"size":  size,
		"query": fieldQuery(f, value),
	})
	if err != nil {
		return nil, errors.InternalError("cannot marshal search query", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{collection},
		Body:  bytes.NewReader(body),
	}.Do(ctx, g.es)
	if err != nil {
		return nil, unavailable(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError(fmt.Sprintf("search %s in %s", field, collection), res)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, errors.GatewayError("cannot decode search response", err)
	}

	result := &SearchResult{
		Total: sr.Hits.Total.Value,
		Hits:  make([]Hit, 0, len(sr.Hits.Hits)),
	}
	for _, h := range sr.Hits.Hits {
		result.Hits = append(result.Hits, Hit{ID: h.ID, Source: h.Source})
	}
	return result, nil
}

// Count returns the number of documents in the collection.
func (g *Gateway) Count(ctx context.Context, collection string) (int64, error) {
	res, err := esapi.CountRequest{Index: []string{collection}}.Do(ctx, g.es)
	if err != nil {
		return 0, unavailable(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, responseError(fmt.Sprintf("count collection %s", collection), res)
	}

	var cr countResponse
	if err := json.NewDecoder(res.Body).Decode(&cr); err != nil {
		return 0, errors.GatewayError("cannot decode count response", err)
	}
	return cr.Count, nil
}

// DepartmentFacet aggregates document counts per department. Buckets
// arrive sorted by count, largest first, capped at facetSize.
func (g *Gateway) DepartmentFacet(ctx context.Context, collection string) ([]FacetBucket, error) {
	body, err := json.Marshal(map[string]any{
		"size": 0,
		"aggs": map[string]any{
			facetAggName: map[string]any{
				"terms": map[string]any{
					"field": employee.FieldDepartment,
					"size":  facetSize,
				},
			},
		},
	})
	if err != nil {
		return nil, errors.InternalError("cannot marshal facet query", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{collection},
		Body:  bytes.NewReader(body),
	}.Do(ctx, g.es)
	if err != nil {
		return nil, unavailable(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError(fmt.Sprintf("department facet on %s", collection), res)
	}

	var fr facetResponse
	if err := json.NewDecoder(res.Body).Decode(&fr); err != nil {
		return nil, errors.GatewayError("cannot decode facet response", err)
	}

	buckets := make([]FacetBucket, 0, len(fr.Aggregations.DepartmentCount.Buckets))
	for _, b := range fr.Aggregations.DepartmentCount.Buckets {
		buckets = append(buckets, FacetBucket{Department: b.Key, Count: b.DocCount})
	}
	return buckets, nil
}

// fieldQuery picks the query type for a field kind.
func fieldQuery(f employee.Field, value string) map[string]any {
	if f.Kind == employee.KindText {
		return map[string]any{"match": map[string]any{f.Name: value}}
	}
	return map[string]any{"term": map[string]any{f.Name: value}}
}

// collectionMapping builds the index mapping from the schema.
func collectionMapping(schema *employee.Schema) map[string]any {
	props := make(map[string]any, schema.Len())
	for _, f := range schema.Fields() {
		props[f.Name] = map[string]any{"type": mappingType(f.Kind)}
	}
	return map[string]any{
		"mappings": map[string]any{"properties": props},
	}
}

// mappingType maps a schema kind to the engine field type.
func mappingType(k employee.Kind) string {
	switch k {
	case employee.KindText:
		return "text"
	case employee.KindInteger:
		return "integer"
	case employee.KindFloat:
		return "float"
	case employee.KindDate:
		return "date"
	default:
		return "keyword"
	}
}

// unavailable wraps a transport failure, the one retryable condition.
func unavailable(err error) error {
	return errors.New(errors.ErrCodeGatewayUnavailable,
		fmt.Sprintf("search engine unreachable: %v", err), err)
}

// responseError turns a non-2xx engine response into a gateway error,
// keeping a bounded slice of the body for diagnostics.
func responseError(op string, res *esapi.Response) error {
	msg := fmt.Sprintf("%s: %s", op, res.Status())
	if body, err := io.ReadAll(io.LimitReader(res.Body, 2048)); err == nil && len(body) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(string(body)))
	}
	return errors.New(errors.ErrCodeGatewayRequest, msg, nil)
}
