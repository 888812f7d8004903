package esindex

import (
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/empdex/empdex/internal/config"
	"github.com/empdex/empdex/internal/errors"
)

// NewClient builds the Elasticsearch client from gateway settings.
// Basic auth is enabled when a username is configured.
func NewClient(cfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			ResponseHeaderTimeout: cfg.RequestTimeout(),
		},
	})
	if err != nil {
		return nil, errors.New(errors.ErrCodeGatewayUnavailable,
			fmt.Sprintf("cannot create search client: %v", err), err)
	}
	return es, nil
}
