package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/graphweave/internal/domain"
)

// LinkRepository handles database operations for directed link edges
// between entries.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository creates a new link repository.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create inserts the edge source -> target. Creation is idempotent:
// re-creating an existing edge is a no-op, never a duplicate.
func (r *LinkRepository) Create(ctx context.Context, sourceTitle, targetTitle string) error {
	query := `
		INSERT INTO entry_links (id, source_title, target_title)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_title, target_title) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New().String(), sourceTitle, targetTitle)
	if err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// ListBySource returns all outbound edges for a source title.
func (r *LinkRepository) ListBySource(ctx context.Context, sourceTitle string) ([]*domain.Link, error) {
	query := `
		SELECT id, source_title, target_title, created_at
		FROM entry_links
		WHERE source_title = $1
		ORDER BY created_at ASC
	`

	var links []*domain.Link
	if err := r.db.SelectContext(ctx, &links, query, sourceTitle); err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	if links == nil {
		links = []*domain.Link{}
	}

	return links, nil
}

// Count returns the total number of edges in the graph.
func (r *LinkRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM entry_links`); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}

	return count, nil
}
