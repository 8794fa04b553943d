package interaction

import (
	"sync"

	"github.com/cpswtree/catree/pkg/wire"
)

// UpdateHandler receives the updates of a session's monitors.
type UpdateHandler func(*wire.Update)

// updateQueue decouples monitor callbacks, which run on the writer's
// goroutine, from the session's connection. Updates of one monitor that are
// still pending when a newer one arrives are replaced, so a slow client sees
// the latest value rather than stalling writers.
type updateQueue struct {
	handler UpdateHandler

	mu      sync.Mutex
	pending map[uint32]wire.Snapshot
	order   []uint32
	closed  bool

	signal chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

func newUpdateQueue(handler UpdateHandler) *updateQueue {
	q := &updateQueue{
		handler: handler,
		pending: make(map[uint32]wire.Snapshot),
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// push queues snap for monitor id. It never blocks.
func (q *updateQueue) push(id uint32, snap wire.Snapshot) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if _, queued := q.pending[id]; !queued {
		q.order = append(q.order, id)
	}
	q.pending[id] = snap
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// drop discards a pending update of monitor id.
func (q *updateQueue) drop(id uint32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, queued := q.pending[id]; !queued {
		return
	}
	delete(q.pending, id)
	for i, o := range q.order {
		if o == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// len returns the number of pending updates.
func (q *updateQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

func (q *updateQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.pending = make(map[uint32]wire.Snapshot)
	q.order = nil
	q.mu.Unlock()

	close(q.done)
	q.wg.Wait()
}

func (q *updateQueue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		case <-q.signal:
		}

		for {
			q.mu.Lock()
			if q.closed || len(q.order) == 0 {
				q.mu.Unlock()
				break
			}
			id := q.order[0]
			q.order = q.order[1:]
			snap := q.pending[id]
			delete(q.pending, id)
			q.mu.Unlock()

			if q.handler != nil {
				q.handler(&wire.Update{MonitorID: id, Snapshot: snap})
			}
		}
	}
}
