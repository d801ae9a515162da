package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/graphweave/internal/logger"
)

func newTestIndexer(t *testing.T, handler http.HandlerFunc) (*NodeIndexer, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := es.NewClient(es.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)

	return NewNodeIndexer(client, "graphweave-nodes", logger.NewNoOp()), server
}

func TestIndex(t *testing.T) {
	var gotPath string
	indexer, _ := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	err := indexer.Index(context.Background(), &NodeDocument{
		Title:    "Alan Turing",
		Category: "British mathematicians",
	})
	require.NoError(t, err)
	assert.Equal(t, "/graphweave-nodes/_doc/Alan Turing", gotPath)
}

func TestGet(t *testing.T) {
	indexer, _ := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"_id": "Alan Turing",
			"found": true,
			"_source": {
				"title": "Alan Turing",
				"category": "British mathematicians",
				"depth": 1,
				"facts": ["Born in 1912."],
				"vectors": [[0.1, 0.2]],
				"indexed_at": "2026-08-01T12:00:00Z"
			}
		}`))
	})

	doc, err := indexer.Get(context.Background(), "Alan Turing")
	require.NoError(t, err)

	assert.Equal(t, "Alan Turing", doc.Title)
	assert.Equal(t, "British mathematicians", doc.Category)
	assert.Equal(t, 1, doc.Depth)
	assert.Equal(t, []string{"Born in 1912."}, doc.Facts)
	require.Len(t, doc.Vectors, 1)
	assert.InDelta(t, 0.1, doc.Vectors[0][0], 1e-6)
	assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), doc.IndexedAt)
}

func TestGetNotFound(t *testing.T) {
	indexer, _ := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"found": false}`))
	})

	_, err := indexer.Get(context.Background(), "Unknown")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestDecodeNodeDocument(t *testing.T) {
	doc, err := decodeNodeDocument(map[string]any{
		"title":    "Enigma machine",
		"depth":    2,
		"entities": []any{map[string]any{"name": "Enigma", "type": "device"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Enigma machine", doc.Title)
	assert.Equal(t, 2, doc.Depth)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "Enigma", doc.Entities[0].Name)
}
