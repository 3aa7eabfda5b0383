package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDebounce is the pause after the last input before a search runs.
const DefaultDebounce = 300 * time.Millisecond

// SearchFunc runs one search.
type SearchFunc func(ctx context.Context, q Query) (View, error)

// Result is the outcome of a debounced search.
type Result struct {
	Query Query
	View  View
	Err   error
}

// Searcher debounces search input. Each Input restarts the timer and
// cancels any search still running for older input. Results for
// superseded input are never delivered.
type Searcher struct {
	search  SearchFunc
	delay   time.Duration
	logger  *slog.Logger
	results chan Result

	mu      sync.Mutex
	gen     uint64
	pending Query
	timer   *time.Timer
	cancel  context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// NewSearcher returns a Searcher calling search after delay of quiet.
// A non-positive delay uses DefaultDebounce.
func NewSearcher(search SearchFunc, delay time.Duration, logger *slog.Logger) *Searcher {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		search:  search,
		delay:   delay,
		logger:  logger,
		results: make(chan Result, 1),
	}
}

// Results delivers the result of the latest search. An undelivered older
// result is replaced by a newer one. The channel is closed by Close.
func (s *Searcher) Results() <-chan Result {
	return s.results
}

// Input records the latest query state.
func (s *Searcher) Input(q Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.gen++
	s.pending = q
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen, q) })
}

// Flush runs the pending query now instead of waiting for the timer. It
// returns once the search has finished.
func (s *Searcher) Flush() {
	s.mu.Lock()
	if s.closed || s.timer == nil || !s.timer.Stop() {
		s.mu.Unlock()
		return
	}
	gen, q := s.gen, s.pending
	s.mu.Unlock()

	s.fire(gen, q)
}

// Close stops pending work, waits for running searches and closes Results.
func (s *Searcher) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	close(s.results)
}

func (s *Searcher) fire(gen uint64, q Query) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer cancel()

	view, err := s.search(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		s.logger.Debug("discarding stale search result", "query", q.Text)
		return
	}
	// Only fire sends, and only while holding mu, so after draining the
	// buffer the send cannot block.
	select {
	case <-s.results:
	default:
	}
	s.results <- Result{Query: q, View: view, Err: err}
}
