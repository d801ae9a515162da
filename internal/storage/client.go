// Package storage persists processed graph nodes — article content,
// extracted knowledge and embedding vectors — to Elasticsearch. The entry
// store in Postgres remains the coordination substrate; this index is the
// queryable artifact the expansion produces.
package storage

import (
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/graphweave/internal/config"
	"github.com/jonesrussell/graphweave/internal/logger"
)

// NewClient creates a new Elasticsearch client from configuration and
// verifies connectivity with a ping.
func NewClient(cfg config.ElasticsearchConfig, log logger.Interface) (*es.Client, error) {
	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := client.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error pinging Elasticsearch: %s", res.String())
	}

	log.Debug("connected to Elasticsearch", "addresses", cfg.Addresses)

	return client, nil
}
