package pool

import "sync"

// Queue is a FIFO of raw proxy strings. It is filled once and only drained.
type Queue struct {
	items []string
	mu    sync.Mutex
}

func NewQueue(items []string) *Queue {
	q := &Queue{items: make([]string, len(items))}
	copy(q.items, items)
	return q
}

// Pop removes the head of the queue without blocking.
func (q *Queue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "", false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
