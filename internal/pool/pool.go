package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aredoff/proxycheck/internal/proxy"
	"github.com/rs/zerolog"
)

const (
	DefaultWorkers = 10
	MaxWorkers     = 256
)

var ErrStarted = errors.New("scheduler already started")

// ProbeFunc checks one raw proxy string. It must honour ctx cancellation.
type ProbeFunc func(ctx context.Context, raw string) proxy.Outcome

// Scheduler drains a queue of raw proxy strings with a fixed number of workers.
// A Scheduler runs once; start a new one for the next batch.
type Scheduler struct {
	probe   ProbeFunc
	workers int
	logger  zerolog.Logger

	queue   *Queue
	results *Results
	stream  chan proxy.Outcome
	done    chan struct{}

	started   atomic.Bool
	cancelled atomic.Bool

	mu       sync.Mutex
	inflight map[uint64]context.CancelFunc
	nextID   uint64

	hookMu     sync.Mutex
	onComplete func(completed, total int)
}

func NewScheduler(raws []string, workers int, probe ProbeFunc, logger zerolog.Logger) *Scheduler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	return &Scheduler{
		probe:    probe,
		workers:  workers,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		queue:    NewQueue(raws),
		results:  NewResults(len(raws)),
		stream:   make(chan proxy.Outcome, len(raws)),
		done:     make(chan struct{}),
		inflight: make(map[uint64]context.CancelFunc),
	}
}

// OnComplete registers fn to be called each time an item completes, kept or
// dropped. Calls are serialized and completed never decreases between them.
// It must be called before Start.
func (s *Scheduler) OnComplete(fn func(completed, total int)) {
	s.onComplete = fn
}

// Start launches the workers and returns immediately. Cancelling ctx has the
// same effect as Cancel.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrStarted
	}

	_, total := s.results.Progress()
	s.logger.Info().Int("total", total).Int("workers", s.workers).Msg("batch started")

	stop := context.AfterFunc(ctx, s.Cancel)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}

	go func() {
		wg.Wait()
		stop()
		close(s.stream)
		completed, total := s.results.Progress()
		s.logger.Info().
			Int("completed", completed).
			Int("total", total).
			Int("results", s.results.Len()).
			Bool("cancelled", s.cancelled.Load()).
			Msg("batch finished")
		close(s.done)
	}()
	return nil
}

// Run starts the batch and blocks until every worker has exited.
func (s *Scheduler) Run(ctx context.Context) ([]proxy.Outcome, error) {
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	s.Wait()
	return s.results.Outcomes(), nil
}

func (s *Scheduler) Wait() {
	<-s.done
}

// Done is closed once every worker has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Outcomes streams non-cancelled outcomes as they complete. It is closed after
// the last worker exits.
func (s *Scheduler) Outcomes() <-chan proxy.Outcome {
	return s.stream
}

// Cancel stops workers from taking new items and aborts every in-flight probe.
// It does not wait for them.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled.Swap(true) {
		return
	}
	for _, cancel := range s.inflight {
		cancel()
	}
	s.logger.Info().Int("inflight", len(s.inflight)).Msg("batch cancelled")
}

func (s *Scheduler) Cancelled() bool {
	return s.cancelled.Load()
}

func (s *Scheduler) Progress() (completed, total int) {
	return s.results.Progress()
}

func (s *Scheduler) Results() *Results {
	return s.results
}

func (s *Scheduler) worker(ctx context.Context) {
	for {
		if s.cancelled.Load() {
			return
		}
		raw, ok := s.queue.Pop()
		if !ok {
			return
		}
		s.process(ctx, raw)
	}
}

func (s *Scheduler) process(parent context.Context, raw string) {
	ctx, cancel := context.WithCancel(parent)
	id := s.register(cancel)
	defer s.unregister(id)
	defer cancel()

	out, aborted := s.safeProbe(ctx, raw)
	defer s.completed()

	if aborted {
		s.logger.Debug().Str("proxy", raw).Msg("probe cancelled, outcome dropped")
		s.results.Record(nil)
		return
	}
	s.results.Record(&out)
	s.stream <- out
}

func (s *Scheduler) completed() {
	if s.onComplete == nil {
		return
	}
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	completed, total := s.results.Progress()
	s.onComplete(completed, total)
}

// safeProbe runs the probe and reports whether its outcome may have been cut
// short by cancellation.
func (s *Scheduler) safeProbe(ctx context.Context, raw string) (out proxy.Outcome, aborted bool) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("proxy", raw).Str("panic", fmt.Sprint(r)).Msg("probe failed unexpectedly")
			out, aborted = proxy.Errored(raw, time.Since(start)), false
		}
	}()
	out = s.probe(ctx, raw)
	return out, ctx.Err() != nil && !final(out)
}

// final reports whether out stands however the item's context ended. A working
// proxy answered the oracle and an invalid one never reached the network.
func final(out proxy.Outcome) bool {
	return out.Working || out.Type == proxy.LabelInvalid
}

// register stores the cancel handle of an item. An item registered after Cancel
// is cancelled immediately.
func (s *Scheduler) register(cancel context.CancelFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.inflight[id] = cancel
	if s.cancelled.Load() {
		cancel()
	}
	return id
}

func (s *Scheduler) unregister(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}
