package cartstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCoalescingWindow is the delay during which mutations merge into a
// single outgoing batch.
const DefaultCoalescingWindow = 300 * time.Millisecond

// batchRow is one collapsed per-item delta inside the batcher's buffer
type batchRow struct {
	MenuItemID uuid.UUID
	Name       string
	UnitPrice  decimal.Decimal
	Delta      int
}

// batcher is a per-store actor owning its own buffer and timer. Mutations
// arrive as messages; after a quiet coalescing window the collapsed buffer
// is handed to the flush callback. Two store instances never share state.
type batcher struct {
	window  time.Duration
	in      chan batchRow
	kick    chan chan struct{}
	stop    chan struct{}
	stopped chan struct{}
	flush   func(rows map[uuid.UUID]batchRow)
}

func newBatcher(window time.Duration, flush func(rows map[uuid.UUID]batchRow)) *batcher {
	if window <= 0 {
		window = DefaultCoalescingWindow
	}
	b := &batcher{
		window:  window,
		in:      make(chan batchRow, 64),
		kick:    make(chan chan struct{}),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
		flush:   flush,
	}
	go b.run()
	return b
}

func (b *batcher) run() {
	defer close(b.stopped)

	buf := make(map[uuid.UUID]batchRow)
	var timer *time.Timer
	var timerC <-chan time.Time

	merge := func(row batchRow) {
		if existing, ok := buf[row.MenuItemID]; ok {
			row.Delta += existing.Delta
			if row.Name == "" {
				row.Name = existing.Name
			}
			if row.UnitPrice.IsZero() {
				row.UnitPrice = existing.UnitPrice
			}
		}
		buf[row.MenuItemID] = row
	}

	// absorb pulls every already-queued mutation into the buffer so a
	// forced flush never leaves a delta behind in the inbox.
	absorb := func() {
		for {
			select {
			case row := <-b.in:
				merge(row)
			default:
				return
			}
		}
	}

	drain := func() map[uuid.UUID]batchRow {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
		out := buf
		buf = make(map[uuid.UUID]batchRow)
		return out
	}

	for {
		select {
		case row := <-b.in:
			merge(row)
			if timerC == nil {
				timer = time.NewTimer(b.window)
				timerC = timer.C
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if out := drain(); len(out) > 0 {
				b.flush(out)
			}

		case done := <-b.kick:
			absorb()
			if out := drain(); len(out) > 0 {
				b.flush(out)
			}
			close(done)

		case <-b.stop:
			absorb()
			if out := drain(); len(out) > 0 {
				b.flush(out)
			}
			return
		}
	}
}

// enqueue adds one signed delta to the buffer, starting the coalescing
// window if it is not already running.
func (b *batcher) enqueue(row batchRow) {
	select {
	case b.in <- row:
	case <-b.stopped:
	}
}

// flushNow drains and flushes the buffer immediately, waiting for the
// flush callback to finish.
func (b *batcher) flushNow() {
	done := make(chan struct{})
	select {
	case b.kick <- done:
		<-done
	case <-b.stopped:
	}
}

// close stops the actor after flushing whatever is buffered
func (b *batcher) close() {
	select {
	case <-b.stopped:
		return
	default:
	}
	close(b.stop)
	<-b.stopped
}
