package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/D00Movenok/GeoMap/internal/metrics"
)

const (
	DefaultInterval = time.Second
	DefaultTimeout  = 10 * time.Second
)

// Task is a single outbound request. It owns delivering its own result and
// must not retry: the queue runs every task exactly once.
type Task func(ctx context.Context)

type Options struct {
	// Minimum gap between the starts of two tasks.
	Interval time.Duration
	// Deadline of the context handed to each task.
	Timeout time.Duration
}

// Queue runs tasks one at a time in enqueue order, spacing their starts by
// at least Interval. The drain goroutine exists only while tasks are
// pending.
type Queue struct {
	opts   Options
	logger zerolog.Logger
	sent   *atomic.Int64

	mu      sync.Mutex
	pending []Task
	running bool
	last    time.Time
}

func New(opts Options) *Queue {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Queue{
		opts:   opts,
		logger: log.With().Str("component", "queue").Logger(),
		sent:   atomic.NewInt64(0),
	}
}

func (q *Queue) Enqueue(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, t)
	metrics.QueueLength.Set(float64(len(q.pending)))
	if !q.running {
		q.running = true
		go q.drain()
	}
}

// Len returns the number of tasks waiting to start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Sent returns the number of tasks started so far.
func (q *Queue) Sent() int64 {
	return q.sent.Load()
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		t := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		metrics.QueueLength.Set(float64(len(q.pending)))
		delay := q.opts.Interval - time.Since(q.last)
		q.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}

		q.mu.Lock()
		q.last = time.Now()
		q.mu.Unlock()

		q.run(t)
	}
}

func (q *Queue) run(t Task) {
	ctx, cancel := context.WithTimeout(context.Background(), q.opts.Timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error().
				Err(fmt.Errorf("%v", r)).
				Msg("Queued task panicked, skipping...")
		}
	}()

	q.sent.Inc()
	t(ctx)
}
