package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/graphweave/internal/domain"
)

// ErrNotClaimed is returned when a lease operation targets an entry that is
// not currently in the claimed state. Callers must tolerate this as a race:
// the reclaimer may have already returned the entry to the frontier.
var ErrNotClaimed = errors.New("entry is not claimed")

// ErrEntryNotFound is returned when an entry lookup finds no row.
var ErrEntryNotFound = errors.New("entry not found")

// entrySelectColumns lists columns for SELECT and RETURNING queries on entries.
const entrySelectColumns = `title, category, depth, state, claimed_at,
	retry_count, last_error, processed_at, discovered_at, created_at, updated_at`

// EntryRepository handles database operations for entries. It is the work
// queue for the expansion engine: Claim, Heartbeat, ReclaimStale, Advance
// and Fail implement the entry state machine as atomic statements, so no
// in-process locking is needed across workers.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new entry repository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// CreateIfAbsent inserts a new entry in the discovered state at the given
// depth. Returns true if a row was created, false if the title already
// existed. Two workers discovering the same title concurrently race on the
// primary key; ON CONFLICT DO NOTHING makes the loser a clean no-op.
func (r *EntryRepository) CreateIfAbsent(ctx context.Context, title string, depth int) (bool, error) {
	query := `
		INSERT INTO entries (title, depth, state)
		VALUES ($1, $2, 'discovered')
		ON CONFLICT (title) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, title, depth)
	if err != nil {
		return false, fmt.Errorf("failed to create entry: %w", err)
	}

	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", affectedErr)
	}

	return n > 0, nil
}

// Claim atomically selects up to batchSize discovered entries, transitions
// them to claimed with claimed_at = NOW(), and returns them. Ordering is
// depth ascending with discovery insertion order as the tie-break, so the
// pool processes the graph breadth-first. SKIP LOCKED guarantees concurrent
// Claim calls never return overlapping entries. An empty result is not an
// error: the frontier may simply be drained.
func (r *EntryRepository) Claim(ctx context.Context, batchSize int) ([]*domain.Entry, error) {
	// RETURNING emits rows in no defined order, so the CTE re-sorts the
	// batch before it is handed to the workers.
	query := `
		WITH claimed AS (
			UPDATE entries
			SET state = 'claimed', claimed_at = NOW(), updated_at = NOW()
			WHERE title IN (
				SELECT title FROM entries
				WHERE state = 'discovered'
				ORDER BY depth ASC, discovered_at ASC
				LIMIT $1
				FOR UPDATE SKIP LOCKED
			)
			RETURNING ` + entrySelectColumns + `
		)
		SELECT ` + entrySelectColumns + ` FROM claimed
		ORDER BY depth ASC, discovered_at ASC`

	var entries []*domain.Entry
	if err := r.db.SelectContext(ctx, &entries, query, batchSize); err != nil {
		return nil, fmt.Errorf("failed to claim entries: %w", err)
	}

	if entries == nil {
		entries = []*domain.Entry{}
	}

	return entries, nil
}

// Heartbeat renews the lease on a claimed entry by resetting claimed_at.
// Returns ErrNotClaimed if the entry is no longer claimed.
func (r *EntryRepository) Heartbeat(ctx context.Context, title string) error {
	query := `
		UPDATE entries
		SET claimed_at = NOW(), updated_at = NOW()
		WHERE title = $1 AND state = 'claimed'
	`

	result, err := r.db.ExecContext(ctx, query, title)

	return execRequireRows(result, err, fmt.Errorf("heartbeat %q: %w", title, ErrNotClaimed))
}

// ReclaimStale returns claimed entries whose lease started more than timeout
// ago to the discovered state, clearing claimed_at and leaving retry_count
// untouched. This is the sole recovery path for crashed or hung workers.
func (r *EntryRepository) ReclaimStale(ctx context.Context, timeout time.Duration) (int, error) {
	query := `
		UPDATE entries
		SET state = 'discovered', claimed_at = NULL, updated_at = NOW()
		WHERE state = 'claimed'
		  AND claimed_at < NOW() - ($1 * INTERVAL '1 second')
	`

	result, err := r.db.ExecContext(ctx, query, timeout.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale entries: %w", err)
	}

	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", affectedErr)
	}

	return int(n), nil
}

// Advance moves a claimed entry to a terminal state (loaded, processed or
// failed), stamping processed_at and clearing the lease. An invalid target
// state is a coordination bug, reported as a fatal error. An entry that is
// no longer claimed yields ErrNotClaimed: the reclaimer may have returned
// it to the pool after the lease expired, and the caller tolerates that
// race as duplicate work, not a halt.
func (r *EntryRepository) Advance(ctx context.Context, title, newState string) error {
	switch newState {
	case domain.EntryStateLoaded, domain.EntryStateProcessed, domain.EntryStateFailed:
	default:
		return domain.Fatal(fmt.Errorf("advance %q: invalid target state %q", title, newState))
	}

	query := `
		UPDATE entries
		SET state = $2, processed_at = NOW(), claimed_at = NULL, updated_at = NOW()
		WHERE title = $1 AND state = 'claimed'
	`

	result, err := r.db.ExecContext(ctx, query, title, newState)
	if err != nil {
		return fmt.Errorf("failed to advance entry: %w", err)
	}

	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return fmt.Errorf("failed to get rows affected: %w", affectedErr)
	}

	if n == 0 {
		return fmt.Errorf("advance %q to %q: %w", title, newState, ErrNotClaimed)
	}

	return nil
}

// Fail records a transient processing failure. The retry count is
// incremented; once it reaches maxRetries the entry becomes terminally
// failed, otherwise it re-enters the claimable pool.
func (r *EntryRepository) Fail(ctx context.Context, title, lastError string, maxRetries int) error {
	query := `
		UPDATE entries
		SET retry_count = retry_count + 1,
			last_error = $2,
			state = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'discovered' END,
			processed_at = CASE WHEN retry_count + 1 >= $3 THEN NOW() ELSE processed_at END,
			claimed_at = NULL,
			updated_at = NOW()
		WHERE title = $1 AND state = 'claimed'
	`

	result, err := r.db.ExecContext(ctx, query, title, lastError, maxRetries)

	return execRequireRows(result, err, fmt.Errorf("fail %q: %w", title, ErrNotClaimed))
}

// FailPermanent moves a claimed entry straight to failed without consuming
// retries. Used for errors that can never succeed, such as a page that
// does not exist.
func (r *EntryRepository) FailPermanent(ctx context.Context, title, lastError string) error {
	query := `
		UPDATE entries
		SET state = 'failed',
			last_error = $2,
			processed_at = NOW(),
			claimed_at = NULL,
			updated_at = NOW()
		WHERE title = $1 AND state = 'claimed'
	`

	result, err := r.db.ExecContext(ctx, query, title, lastError)

	return execRequireRows(result, err, fmt.Errorf("fail permanent %q: %w", title, ErrNotClaimed))
}

// UpdateCategory sets the category on an entry. Called by the processor
// while it holds the claim, before advancing.
func (r *EntryRepository) UpdateCategory(ctx context.Context, title, category string) error {
	query := `UPDATE entries SET category = $2, updated_at = NOW() WHERE title = $1`

	result, err := r.db.ExecContext(ctx, query, title, category)

	return execRequireRows(result, err, fmt.Errorf("update category %q: %w", title, ErrEntryNotFound))
}

// Get retrieves an entry by title.
func (r *EntryRepository) Get(ctx context.Context, title string) (*domain.Entry, error) {
	query := `SELECT ` + entrySelectColumns + ` FROM entries WHERE title = $1`

	var entry domain.Entry
	if err := r.db.GetContext(ctx, &entry, query, title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get %q: %w", title, ErrEntryNotFound)
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return &entry, nil
}

// Stats contains aggregate entry counts by state and by depth. Monitoring
// only; never used for claim correctness.
type Stats struct {
	Discovered int         `json:"discovered"`
	Claimed    int         `json:"claimed"`
	Loaded     int         `json:"loaded"`
	Processed  int         `json:"processed"`
	Failed     int         `json:"failed"`
	ByDepth    map[int]int `json:"by_depth"`
}

// Total returns the number of entries across all states.
func (s *Stats) Total() int {
	return s.Discovered + s.Claimed + s.Loaded + s.Processed + s.Failed
}

// Completed returns the number of entries in a terminal-success state.
func (s *Stats) Completed() int {
	return s.Loaded + s.Processed
}

// Stats returns point-in-time aggregate counts of entries per state and
// per depth.
func (r *EntryRepository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByDepth: map[int]int{}}

	rows, err := r.db.QueryxContext(ctx, `SELECT state, COUNT(*) FROM entries GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state string
		var count int
		if scanErr := rows.Scan(&state, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan entry stats row: %w", scanErr)
		}
		assignStateCount(stats, state, count)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate entry stats: %w", rowsErr)
	}

	depthRows, err := r.db.QueryxContext(ctx, `SELECT depth, COUNT(*) FROM entries GROUP BY depth`)
	if err != nil {
		return nil, fmt.Errorf("failed to query depth stats: %w", err)
	}
	defer depthRows.Close()

	for depthRows.Next() {
		var depth, count int
		if scanErr := depthRows.Scan(&depth, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan depth stats row: %w", scanErr)
		}
		stats.ByDepth[depth] = count
	}
	if rowsErr := depthRows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate depth stats: %w", rowsErr)
	}

	return stats, nil
}

// assignStateCount assigns a count to the appropriate Stats field by state.
func assignStateCount(stats *Stats, state string, count int) {
	switch state {
	case domain.EntryStateDiscovered:
		stats.Discovered = count
	case domain.EntryStateClaimed:
		stats.Claimed = count
	case domain.EntryStateLoaded:
		stats.Loaded = count
	case domain.EntryStateProcessed:
		stats.Processed = count
	case domain.EntryStateFailed:
		stats.Failed = count
	}
}
