package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

// Dispatcher runs every job for a lobby on that lobby's own goroutine, one
// at a time and in arrival order. Jobs for different lobbies run in
// parallel. A worker exits after sitting idle and is recreated on demand.
type Dispatcher struct {
	idle   time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	workers map[uuid.UUID]*worker
	closed  bool

	stop chan struct{}
	wg   sync.WaitGroup
}

type worker struct {
	jobs   chan *job
	exited chan struct{}
	// pending counts callers holding this worker; guarded by Dispatcher.mu.
	pending int
}

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

func NewDispatcher(idle time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		idle:    idle,
		logger:  logger,
		workers: make(map[uuid.UUID]*worker),
		stop:    make(chan struct{}),
	}
}

// Do runs fn on the worker for lobbyID and waits for it to finish. A job
// whose context is done by the time it is dequeued is skipped.
func (d *Dispatcher) Do(ctx context.Context, lobbyID uuid.UUID, fn func(ctx context.Context) error) error {
	w, err := d.acquire(lobbyID)
	if err != nil {
		return err
	}

	j := &job{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case w.jobs <- j:
	case <-ctx.Done():
		d.release(w)
		return ctx.Err()
	case <-w.exited:
		d.release(w)
		return ErrDispatcherClosed
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-w.exited:
		select {
		case err := <-j.done:
			return err
		default:
			return ErrDispatcherClosed
		}
	}
}

func (d *Dispatcher) acquire(lobbyID uuid.UUID) (*worker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDispatcherClosed
	}
	w, ok := d.workers[lobbyID]
	if !ok {
		w = &worker{
			jobs:   make(chan *job, 16),
			exited: make(chan struct{}),
		}
		d.workers[lobbyID] = w
		d.wg.Add(1)
		go d.run(lobbyID, w)
	}
	w.pending++
	return w, nil
}

func (d *Dispatcher) release(w *worker) {
	d.mu.Lock()
	w.pending--
	d.mu.Unlock()
}

func (d *Dispatcher) run(lobbyID uuid.UUID, w *worker) {
	defer d.wg.Done()
	defer close(w.exited)

	timer := time.NewTimer(d.idle)
	defer timer.Stop()

	for {
		select {
		case j := <-w.jobs:
			d.exec(lobbyID, j)
			d.release(w)
			timer.Reset(d.idle)

		case <-timer.C:
			d.mu.Lock()
			if w.pending == 0 {
				delete(d.workers, lobbyID)
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			timer.Reset(d.idle)

		case <-d.stop:
			for {
				select {
				case j := <-w.jobs:
					j.done <- ErrDispatcherClosed
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) exec(lobbyID uuid.UUID, j *job) {
	if err := j.ctx.Err(); err != nil {
		j.done <- err
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("lobby job panicked",
				zap.String("lobby_id", lobbyID.String()),
				zap.Any("panic", r),
			)
			j.done <- domain.Internal("unexpected failure")
		}
	}()
	j.done <- j.fn(j.ctx)
}

// Workers reports how many lobby workers are running.
func (d *Dispatcher) Workers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}

// Close stops every worker and waits for running jobs to return. Queued
// jobs fail with ErrDispatcherClosed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.stop)
	d.mu.Unlock()
	d.wg.Wait()
}
