// Package api implements the monitoring HTTP API for a running expansion.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/graphweave/internal/config"
	"github.com/jonesrussell/graphweave/internal/database"
	"github.com/jonesrussell/graphweave/internal/domain"
	"github.com/jonesrussell/graphweave/internal/logger"
	"github.com/jonesrussell/graphweave/internal/metrics"
	"github.com/jonesrussell/graphweave/internal/storage"
)

const readHeaderTimeout = 10 * time.Second

// EntryReader is the read-only slice of the entry store the API serves.
type EntryReader interface {
	Get(ctx context.Context, title string) (*domain.Entry, error)
	Stats(ctx context.Context) (*database.Stats, error)
}

// LinkReader lists outbound edges for an entry.
type LinkReader interface {
	ListBySource(ctx context.Context, sourceTitle string) ([]*domain.Link, error)
	Count(ctx context.Context) (int, error)
}

// NodeReader loads persisted node documents from the graph store.
type NodeReader interface {
	Get(ctx context.Context, title string) (*storage.NodeDocument, error)
}

// SetupRouter creates the Gin router with all monitoring routes.
func SetupRouter(
	log logger.Interface,
	entries EntryReader,
	links LinkReader,
	nodes NodeReader,
	m *metrics.Metrics,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	v1.GET("/stats", func(c *gin.Context) {
		stats, err := entries.Stats(c.Request.Context())
		if err != nil {
			log.Error("failed to read entry stats", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
			return
		}
		edgeCount, err := links.Count(c.Request.Context())
		if err != nil {
			log.Error("failed to count edges", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"entries": stats,
			"total":   stats.Total(),
			"edges":   edgeCount,
			"run":     m.Snapshot(),
		})
	})

	v1.GET("/entries/:title", func(c *gin.Context) {
		title := c.Param("title")
		entry, err := entries.Get(c.Request.Context(), title)
		if err != nil {
			if errors.Is(err, database.ErrEntryNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
				return
			}
			log.Error("failed to load entry", "title", title, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "entry unavailable"})
			return
		}
		c.JSON(http.StatusOK, entry)
	})

	v1.GET("/entries/:title/links", func(c *gin.Context) {
		title := c.Param("title")
		outbound, err := links.ListBySource(c.Request.Context(), title)
		if err != nil {
			log.Error("failed to list links", "title", title, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "links unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"source": title, "links": outbound})
	})

	v1.GET("/nodes/:title", func(c *gin.Context) {
		title := c.Param("title")
		node, err := nodes.Get(c.Request.Context(), title)
		if err != nil {
			if errors.Is(err, storage.ErrNodeNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
				return
			}
			log.Error("failed to load node", "title", title, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "node unavailable"})
			return
		}
		c.JSON(http.StatusOK, node)
	})

	return router
}

// NewServer wraps the router in an http.Server with the configured timeouts.
func NewServer(
	log logger.Interface,
	entries EntryReader,
	links LinkReader,
	nodes NodeReader,
	m *metrics.Metrics,
	cfg config.ServerConfig,
) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           SetupRouter(log, entries, links, nodes, m),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("HTTP request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
