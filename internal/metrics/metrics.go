// Package metrics provides in-process counters for a running expansion.
package metrics

import (
	"sync"
	"time"
)

// Metrics holds the counters for one orchestrator run. All methods are
// safe for concurrent use by the worker pool.
type Metrics struct {
	mu sync.Mutex

	startTime         time.Time
	processedCount    int64
	failedCount       int64
	reclaimedCount    int64
	linksDiscovered   int64
	batchesClaimed    int64
	lastProcessedTime time.Time
	currentTitle      string
}

// Snapshot is a point-in-time copy of the counters, for reporting.
type Snapshot struct {
	StartTime         time.Time `json:"start_time"`
	Uptime            string    `json:"uptime"`
	ProcessedCount    int64     `json:"processed_count"`
	FailedCount       int64     `json:"failed_count"`
	ReclaimedCount    int64     `json:"reclaimed_count"`
	LinksDiscovered   int64     `json:"links_discovered"`
	BatchesClaimed    int64     `json:"batches_claimed"`
	LastProcessedTime time.Time `json:"last_processed_time"`
	CurrentTitle      string    `json:"current_title,omitempty"`
}

// New creates a Metrics instance with the clock started.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordSuccess counts one processed entry and its newly discovered links.
func (m *Metrics) RecordSuccess(linksDiscovered int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processedCount++
	m.linksDiscovered += int64(linksDiscovered)
	m.lastProcessedTime = time.Now()
}

// RecordFailure counts one entry whose pipeline failed.
func (m *Metrics) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedCount++
}

// RecordReclaimed counts entries returned to the pool by the reclaimer.
func (m *Metrics) RecordReclaimed(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reclaimedCount += int64(count)
}

// RecordBatch counts one claimed batch.
func (m *Metrics) RecordBatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchesClaimed++
}

// SetCurrentTitle records the entry currently being processed.
func (m *Metrics) SetCurrentTitle(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTitle = title
}

// ProcessedCount returns the number of entries processed so far.
func (m *Metrics) ProcessedCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processedCount
}

// FailedCount returns the number of entries whose pipeline failed.
func (m *Metrics) FailedCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failedCount
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		StartTime:         m.startTime,
		Uptime:            time.Since(m.startTime).Round(time.Second).String(),
		ProcessedCount:    m.processedCount,
		FailedCount:       m.failedCount,
		ReclaimedCount:    m.reclaimedCount,
		LinksDiscovered:   m.linksDiscovered,
		BatchesClaimed:    m.batchesClaimed,
		LastProcessedTime: m.lastProcessedTime,
		CurrentTitle:      m.currentTitle,
	}
}
