package cartstore

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushRecorder struct {
	mu      sync.Mutex
	batches []map[uuid.UUID]batchRow
}

func (r *flushRecorder) record(rows map[uuid.UUID]batchRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, rows)
}

func (r *flushRecorder) all() []map[uuid.UUID]batchRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]map[uuid.UUID]batchRow, len(r.batches))
	copy(out, r.batches)
	return out
}

func TestBatcher_CollapsesDeltasPerItem(t *testing.T) {
	rec := &flushRecorder{}
	b := newBatcher(20*time.Millisecond, rec.record)
	defer b.close()

	itemA := uuid.New()
	itemB := uuid.New()
	b.enqueue(batchRow{MenuItemID: itemA, Name: "Dosa", Delta: 3})
	b.enqueue(batchRow{MenuItemID: itemA, Delta: -1})
	b.enqueue(batchRow{MenuItemID: itemB, Name: "Chai", Delta: 1})

	time.Sleep(100 * time.Millisecond)

	batches := rec.all()
	require.Len(t, batches, 1, "one window, one batch")
	require.Len(t, batches[0], 2)
	assert.Equal(t, 2, batches[0][itemA].Delta)
	assert.Equal(t, "Dosa", batches[0][itemA].Name, "name survives a later nameless delta")
	assert.Equal(t, 1, batches[0][itemB].Delta)
}

func TestBatcher_FlushNowDrainsImmediately(t *testing.T) {
	rec := &flushRecorder{}
	b := newBatcher(time.Hour, rec.record)
	defer b.close()

	itemA := uuid.New()
	b.enqueue(batchRow{MenuItemID: itemA, Delta: 1})
	b.flushNow()

	batches := rec.all()
	require.Len(t, batches, 1)
	assert.Equal(t, 1, batches[0][itemA].Delta)
}

func TestBatcher_FlushNowWithEmptyBufferIsNoop(t *testing.T) {
	rec := &flushRecorder{}
	b := newBatcher(time.Hour, rec.record)
	defer b.close()

	b.flushNow()
	assert.Empty(t, rec.all())
}

func TestBatcher_CloseFlushesRemainder(t *testing.T) {
	rec := &flushRecorder{}
	b := newBatcher(time.Hour, rec.record)

	itemA := uuid.New()
	b.enqueue(batchRow{MenuItemID: itemA, Delta: 2})
	b.close()

	batches := rec.all()
	require.Len(t, batches, 1)
	assert.Equal(t, 2, batches[0][itemA].Delta)
}

func TestBatcher_SeparateWindowsProduceSeparateBatches(t *testing.T) {
	rec := &flushRecorder{}
	b := newBatcher(10*time.Millisecond, rec.record)
	defer b.close()

	itemA := uuid.New()
	b.enqueue(batchRow{MenuItemID: itemA, Delta: 1})
	time.Sleep(60 * time.Millisecond)
	b.enqueue(batchRow{MenuItemID: itemA, Delta: 1})
	time.Sleep(60 * time.Millisecond)

	assert.Len(t, rec.all(), 2)
}
