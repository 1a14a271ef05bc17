package service

import (
	"sync"

	"github.com/rl1809/supply-chain/internal/core/domain"
	"github.com/rl1809/supply-chain/internal/metrics"
)

// eventQueue is an unbounded FIFO between the registry and its dispatcher.
// push never blocks, so a slow sink cannot stall registry operations. A pump
// goroutine feeds out in push order and closes it once the queue is closed
// and empty.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []domain.Event
	closed bool

	out     chan domain.Event
	metrics *metrics.Metrics
}

func newEventQueue(size int, m *metrics.Metrics) *eventQueue {
	if size < 0 {
		size = 0
	}
	q := &eventQueue{out: make(chan domain.Event, size), metrics: m}
	q.cond = sync.NewCond(&q.mu)
	go q.pump()
	return q
}

func (q *eventQueue) push(event domain.Event) {
	q.mu.Lock()
	q.items = append(q.items, event)
	q.metrics.SetQueueDepth(len(q.items))
	q.mu.Unlock()
	q.cond.Signal()
}

// pending reports events not yet handed to the consumer.
func (q *eventQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *eventQueue) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		event := q.items[0]
		q.items[0] = domain.Event{}
		q.items = q.items[1:]
		q.metrics.SetQueueDepth(len(q.items))
		q.mu.Unlock()

		q.out <- event
	}
}
