// Package dispatch runs best-effort side effects (event publication, email) off the request path.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull = errors.New("dispatch: queue full")
	ErrClosed    = errors.New("dispatch: queue closed")
)

// Job is one unit of work. Run is retried with exponential backoff until it succeeds or
// MaxAttempts is reached, after which OnFailure (if set) receives the last error.
type Job struct {
	Name      string
	Run       func(ctx context.Context) error
	OnFailure func(err error)
}

type Options struct {
	Size        int
	Workers     int
	MaxAttempts int
	Backoff     time.Duration
	JobTimeout  time.Duration
}

type Queue struct {
	opts   Options
	jobs   chan Job
	log    *zap.Logger
	group  errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

func New(opts Options, log *zap.Logger) *Queue {
	if opts.Size <= 0 {
		opts.Size = 1024
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 100 * time.Millisecond
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		opts:   opts,
		jobs:   make(chan Job, opts.Size),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker goroutines. Jobs enqueued before Start wait in the buffer.
func (q *Queue) Start() {
	for i := 0; i < q.opts.Workers; i++ {
		q.group.Go(func() error {
			for job := range q.jobs {
				q.run(job)
			}
			return nil
		})
	}
}

// Enqueue never blocks: a full buffer yields ErrQueueFull.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for the buffer to drain. When ctx expires first,
// in-flight jobs are cancelled and ctx.Err() is returned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = q.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}

func (q *Queue) run(job Job) {
	var err error
	delay := q.opts.Backoff
	for attempt := 1; attempt <= q.opts.MaxAttempts; attempt++ {
		err = q.attempt(job)
		if err == nil {
			return
		}
		q.log.Warn("dispatch job failed",
			zap.String("job", job.Name),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == q.opts.MaxAttempts {
			break
		}
		select {
		case <-time.After(delay):
			delay *= 2
		case <-q.ctx.Done():
			attempt = q.opts.MaxAttempts
		}
	}
	q.log.Error("dispatch job dropped", zap.String("job", job.Name), zap.Error(err))
	if job.OnFailure != nil {
		job.OnFailure(err)
	}
}

func (q *Queue) attempt(job Job) (err error) {
	ctx, cancel := context.WithTimeout(q.ctx, q.opts.JobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("dispatch: job panicked")
			q.log.Error("dispatch job panic", zap.String("job", job.Name), zap.Any("panic", r))
		}
	}()
	return job.Run(ctx)
}
