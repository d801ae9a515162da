// Package expander grows the knowledge graph breadth-first from processed
// entries, bounded by a maximum depth.
package expander

import (
	"context"
	"fmt"

	"github.com/jonesrussell/graphweave/internal/linkfilter"
	"github.com/jonesrussell/graphweave/internal/logger"
)

// EntryCreator creates frontier entries. Creation must be atomic per title:
// two workers discovering the same title concurrently must produce exactly
// one entry.
type EntryCreator interface {
	CreateIfAbsent(ctx context.Context, title string, depth int) (bool, error)
}

// LinkCreator creates directed edges between entries, idempotently.
type LinkCreator interface {
	Create(ctx context.Context, sourceTitle, targetTitle string) error
}

// Expander turns a processed entry's outbound links into edges and new
// frontier entries at depth+1.
type Expander struct {
	entries EntryCreator
	links   LinkCreator
	log     logger.Interface
}

// New creates a new expander.
func New(entries EntryCreator, links LinkCreator, log logger.Interface) *Expander {
	return &Expander{
		entries: entries,
		links:   links,
		log:     log,
	}
}

// Expand filters candidateLinks, creates the surviving edges, and enqueues
// titles not yet known to the store as discovered entries at currentDepth+1.
// Returns the number of newly created entries; edges to pre-existing entries
// do not count. Past the depth horizon nothing is created at all.
func (e *Expander) Expand(
	ctx context.Context,
	sourceTitle string,
	candidateLinks []string,
	currentDepth, maxDepth int,
) (int, error) {
	if currentDepth >= maxDepth {
		return 0, nil
	}

	newCount := 0
	seen := make(map[string]struct{}, len(candidateLinks))

	for _, title := range linkfilter.Filter(candidateLinks) {
		if title == sourceTitle {
			continue
		}
		// Articles often link the same target from several sections.
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}

		created, err := e.entries.CreateIfAbsent(ctx, title, currentDepth+1)
		if err != nil {
			return newCount, fmt.Errorf("failed to enqueue %q: %w", title, err)
		}
		if created {
			newCount++
		}

		if linkErr := e.links.Create(ctx, sourceTitle, title); linkErr != nil {
			return newCount, fmt.Errorf("failed to link %q -> %q: %w", sourceTitle, title, linkErr)
		}
	}

	if newCount > 0 {
		e.log.Debug("frontier expanded",
			"source", sourceTitle,
			"depth", currentDepth+1,
			"new_entries", newCount,
		)
	}

	return newCount, nil
}
