package textcheck

import (
	"context"
	"log"
	"sync"
	"time"
)

// Response carries the outcome of a scheduled request.
type Response struct {
	Request Request
	Results []Result
	Err     error
}

type pendingCheck struct {
	key    any
	timer  *time.Timer
	cancel context.CancelFunc
}

// Scheduler runs checks in the background. Each request waits out a
// delay first; scheduling another request for the same key before it
// starts replaces it. Finished responses queue up on Responses for the
// editing goroutine to collect.
type Scheduler struct {
	checker Checker
	delay   time.Duration
	logger  *log.Logger

	mu      sync.Mutex
	nextID  int
	pending map[int]*pendingCheck
	byKey   map[any]int
	closed  bool

	responses chan Response
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithDelay sets how long a request waits before it is checked.
func WithDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.delay = d }
}

// WithLogger sets where dropped responses and checker failures are
// logged.
func WithLogger(l *log.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithQueueSize sets how many finished responses may wait for
// collection. Responses beyond that are dropped.
func WithQueueSize(n int) SchedulerOption {
	return func(s *Scheduler) { s.responses = make(chan Response, n) }
}

func NewScheduler(c Checker, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		checker:   c,
		delay:     300 * time.Millisecond,
		logger:    log.Default(),
		pending:   make(map[int]*pendingCheck),
		byKey:     make(map[any]int),
		responses: make(chan Response, 16),
	}
	for _, o := range opts {
		o(s)
	}
	if s.checker == nil {
		s.checker = NopChecker{}
	}
	return s
}

// Schedule queues a check of text for kinds under key and returns the
// request's ID. A request still waiting or running for the same key is
// cancelled.
func (s *Scheduler) Schedule(key any, text string, kinds Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	if id, ok := s.byKey[key]; ok {
		s.cancelLocked(id)
	}
	s.nextID++
	req := Request{ID: s.nextID, Text: text, Kinds: kinds}
	ctx, cancel := context.WithCancel(context.Background())
	p := &pendingCheck{key: key, cancel: cancel}
	p.timer = time.AfterFunc(s.delay, func() { s.run(ctx, req) })
	s.pending[req.ID] = p
	s.byKey[key] = req.ID
	return req.ID
}

func (s *Scheduler) run(ctx context.Context, req Request) {
	results, err := s.checker.Check(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[req.ID]
	if !ok || ctx.Err() != nil {
		return
	}
	p.cancel()
	delete(s.pending, req.ID)
	if s.byKey[p.key] == req.ID {
		delete(s.byKey, p.key)
	}
	if err != nil {
		s.logger.Printf("textcheck: request %d: %v", req.ID, err)
	}
	select {
	case s.responses <- Response{Request: req, Results: results, Err: err}:
	default:
		s.logger.Printf("textcheck: response queue full, dropping request %d", req.ID)
	}
}

// Cancel abandons request id. It reports whether the request was still
// waiting or running.
func (s *Scheduler) Cancel(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(id)
}

func (s *Scheduler) cancelLocked(id int) bool {
	p, ok := s.pending[id]
	if !ok {
		return false
	}
	p.timer.Stop()
	p.cancel()
	delete(s.pending, id)
	if s.byKey[p.key] == id {
		delete(s.byKey, p.key)
	}
	return true
}

// Pending returns the number of requests that have not finished.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Responses returns the queue of finished responses.
func (s *Scheduler) Responses() <-chan Response { return s.responses }

// Close cancels everything pending. Later calls to Schedule do nothing.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.pending {
		s.cancelLocked(id)
	}
	s.closed = true
}
