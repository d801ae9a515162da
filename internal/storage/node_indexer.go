package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/mitchellh/mapstructure"

	"github.com/jonesrussell/graphweave/internal/domain"
	"github.com/jonesrussell/graphweave/internal/logger"
)

// ErrNodeNotFound is returned when no document exists for a title.
var ErrNodeNotFound = errors.New("node not found")

// DefaultIndexTimeout bounds a single index operation.
const DefaultIndexTimeout = 30 * time.Second

// NodeDocument is the persisted form of a processed graph node.
type NodeDocument struct {
	Title         string                `json:"title"`
	Category      string                `json:"category"`
	Depth         int                   `json:"depth"`
	Sections      []domain.Section      `json:"sections"`
	Entities      []domain.Entity       `json:"entities"`
	Relationships []domain.Relationship `json:"relationships"`
	Facts         []string              `json:"facts"`
	Vectors       [][]float32           `json:"vectors"`
	IndexedAt     time.Time             `json:"indexed_at"`
}

// NodeIndexer writes node documents to a single Elasticsearch index, keyed
// by title so re-processing an entry overwrites its previous document.
type NodeIndexer struct {
	client    *es.Client
	indexName string
	log       logger.Interface
}

// NewNodeIndexer creates a new node indexer.
func NewNodeIndexer(client *es.Client, indexName string, log logger.Interface) *NodeIndexer {
	return &NodeIndexer{
		client:    client,
		indexName: indexName,
		log:       log,
	}
}

// Index persists a node document.
func (n *NodeIndexer) Index(ctx context.Context, doc *NodeDocument) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultIndexTimeout)
	defer cancel()

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal node document: %w", err)
	}

	res, err := n.client.Index(
		n.indexName,
		bytes.NewReader(body),
		n.client.Index.WithContext(ctx),
		n.client.Index.WithDocumentID(doc.Title),
	)
	if err != nil {
		return fmt.Errorf("failed to index node document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}

	n.log.Debug("node indexed", "index", n.indexName, "title", doc.Title)

	return nil
}

// Get loads a node document by title.
func (n *NodeIndexer) Get(ctx context.Context, title string) (*NodeDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultIndexTimeout)
	defer cancel()

	res, err := n.client.Get(
		n.indexName,
		title,
		n.client.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get node document: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNodeNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var envelope struct {
		Source any `json:"_source"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&envelope); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode get response: %w", decodeErr)
	}
	if envelope.Source == nil {
		return nil, ErrNodeNotFound
	}

	doc, err := decodeNodeDocument(envelope.Source)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// decodeNodeDocument maps a raw _source payload onto a NodeDocument. The
// document's json field names are authoritative, so the decoder reuses the
// json tags rather than mapstructure's defaults.
func decodeNodeDocument(source any) (*NodeDocument, error) {
	var doc NodeDocument
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
		Result:     &doc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build document decoder: %w", err)
	}

	if decodeErr := decoder.Decode(source); decodeErr != nil {
		return nil, fmt.Errorf("failed to unmarshal node document: %w", decodeErr)
	}

	return &doc, nil
}
