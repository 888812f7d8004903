package esindex

import (
	"context"
)

// Operations is the set of collection operations the gateway exposes.
// Commands depend on this interface so tests can substitute a fake.
type Operations interface {
	// Ping checks connectivity and returns the engine version.
	Ping(ctx context.Context) (string, error)

	// EnsureCollection creates the collection with the employee mapping
	// when it does not exist. Returns true when it was created.
	EnsureCollection(ctx context.Context, name string) (bool, error)

	// Upsert indexes a document keyed by identifier, replacing any
	// previous document with the same identifier.
	Upsert(ctx context.Context, collection, id string, doc map[string]any) error

	// Delete removes a document by identifier. A missing document is
	// reported distinctly from transport failures.
	Delete(ctx context.Context, collection, id string) error

	// SearchByField runs an exact match on one schema field.
	SearchByField(ctx context.Context, collection, field, value string, size int) (*SearchResult, error)

	// Count returns the number of documents in the collection.
	Count(ctx context.Context, collection string) (int64, error)

	// DepartmentFacet returns per-department document counts.
	DepartmentFacet(ctx context.Context, collection string) ([]FacetBucket, error)
}

// Hit is one matching document.
type Hit struct {
	ID     string
	Source map[string]any
}

// SearchResult carries the hits of one search.
type SearchResult struct {
	// Total is the full match count, which can exceed len(Hits).
	Total int64
	Hits  []Hit
}

// FacetBucket is one department with its document count.
type FacetBucket struct {
	Department string
	Count      int64
}

// Wire shapes for engine responses. Only the fields the gateway reads
// are declared.

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string         `json:"_id"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type facetResponse struct {
	Aggregations struct {
		DepartmentCount struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int64  `json:"doc_count"`
			} `json:"buckets"`
		} `json:"department_count"`
	} `json:"aggregations"`
}

type infoResponse struct {
	Version struct {
		Number string `json:"number"`
	} `json:"version"`
}
