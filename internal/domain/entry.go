package domain

import "time"

// Entry state constants.
const (
	EntryStateDiscovered = "discovered"
	EntryStateClaimed    = "claimed"
	EntryStateLoaded     = "loaded"
	EntryStateProcessed  = "processed"
	EntryStateFailed     = "failed"
)

// Entry represents a single article in the knowledge graph and its crawl
// bookkeeping. The title is the primary key; no two entries share a title.
type Entry struct {
	// Identity
	Title    string `db:"title"    json:"title"`
	Category string `db:"category" json:"category"`

	// Discovery. Depth is set once at creation and never changes.
	Depth        int       `db:"depth"         json:"depth"`
	DiscoveredAt time.Time `db:"discovered_at" json:"discovered_at"`

	// Coordination. ClaimedAt is non-null only while State is claimed
	// and acts as the lease start time.
	State     string     `db:"state"      json:"state"`
	ClaimedAt *time.Time `db:"claimed_at" json:"claimed_at,omitempty"`

	// Retry
	RetryCount int     `db:"retry_count" json:"retry_count"`
	LastError  *string `db:"last_error"  json:"last_error,omitempty"`

	// Timestamps
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updated_at"`
}

// IsTerminal reports whether the entry has left the claimable pool for good.
func (e *Entry) IsTerminal() bool {
	switch e.State {
	case EntryStateLoaded, EntryStateProcessed, EntryStateFailed:
		return true
	default:
		return false
	}
}

// Link represents a directed edge between two entries, created once per
// ordered (source, target) pair.
type Link struct {
	ID          string    `db:"id"           json:"id"`
	SourceTitle string    `db:"source_title" json:"source_title"`
	TargetTitle string    `db:"target_title" json:"target_title"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}
