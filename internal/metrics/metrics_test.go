package metrics_test

import (
	"sync"
	"testing"

	"github.com/jonesrussell/graphweave/internal/metrics"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	m := metrics.New()
	assert.NotNil(t, m)
	assert.False(t, m.Snapshot().StartTime.IsZero())
}

func TestRecordSuccess(t *testing.T) {
	m := metrics.New()

	m.RecordSuccess(3)
	m.RecordSuccess(0)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.ProcessedCount)
	assert.Equal(t, int64(3), snap.LinksDiscovered)
	assert.False(t, snap.LastProcessedTime.IsZero())
	assert.Equal(t, int64(0), snap.FailedCount)
}

func TestRecordFailure(t *testing.T) {
	m := metrics.New()

	m.RecordFailure()

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.FailedCount)
	assert.Equal(t, int64(0), snap.ProcessedCount)
	assert.True(t, snap.LastProcessedTime.IsZero())
}

func TestRecordReclaimed(t *testing.T) {
	m := metrics.New()

	m.RecordReclaimed(2)
	m.RecordReclaimed(1)

	assert.Equal(t, int64(3), m.Snapshot().ReclaimedCount)
}

func TestCurrentTitle(t *testing.T) {
	m := metrics.New()
	assert.Empty(t, m.Snapshot().CurrentTitle)

	m.SetCurrentTitle("Alan Turing")
	assert.Equal(t, "Alan Turing", m.Snapshot().CurrentTitle)
}

func TestConcurrentUpdates(t *testing.T) {
	m := metrics.New()

	const goroutines = 8
	const perGoroutine = 100

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				m.RecordSuccess(1)
				m.RecordFailure()
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(goroutines*perGoroutine), snap.ProcessedCount)
	assert.Equal(t, int64(goroutines*perGoroutine), snap.FailedCount)
	assert.Equal(t, int64(goroutines*perGoroutine), snap.LinksDiscovered)
}
