package pool

import (
	"sync"

	"github.com/aredoff/proxycheck/internal/proxy"
)

// Results collects finished outcomes of one run in completion order.
type Results struct {
	outcomes  []proxy.Outcome
	completed int
	total     int
	mu        sync.RWMutex
}

func NewResults(total int) *Results {
	return &Results{
		outcomes: make([]proxy.Outcome, 0, total),
		total:    total,
	}
}

// Record counts one finished item. A nil outcome is counted but not kept.
func (r *Results) Record(o *proxy.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.completed >= r.total {
		return
	}
	r.completed++
	if o != nil {
		r.outcomes = append(r.outcomes, *o)
	}
}

func (r *Results) Progress() (completed, total int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.completed, r.total
}

// Outcomes returns a snapshot of the collected outcomes.
func (r *Results) Outcomes() []proxy.Outcome {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]proxy.Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

func (r *Results) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.outcomes)
}

func (r *Results) Stats() proxy.Stats {
	return proxy.Summarize(r.Outcomes())
}
