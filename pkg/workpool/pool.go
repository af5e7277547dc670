// Package workpool runs CPU-bound fan-out work on a fixed number of
// goroutines. Tasks are pure functions; callers join on futures and decide
// what to apply.
package workpool

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// TaskState is the lifecycle state of one submitted task.
type TaskState int32

const (
	NotStarted TaskState = iota
	Running
	Completed
	Failed
	Cancelled
)

func (s TaskState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Pool bounds how many tasks run at once.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New returns a pool running at most size tasks concurrently. A size of zero
// or less uses GOMAXPROCS.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the concurrency limit.
func (p *Pool) Size() int { return p.size }

// Future is the pending result of a task.
type Future[T any] struct {
	done  chan struct{}
	state atomic.Int32
	val   T
	err   error
}

// Go submits fn to the pool. The task is cancelled without running if ctx
// is done before a worker slot frees up; a task whose fn returns ctx's error
// after ctx is done is also reported as cancelled.
func Go[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)

		if err := p.sem.Acquire(ctx, 1); err != nil {
			f.err = err
			f.state.Store(int32(Cancelled))
			return
		}
		defer p.sem.Release(1)

		if err := ctx.Err(); err != nil {
			f.err = err
			f.state.Store(int32(Cancelled))
			return
		}

		f.state.Store(int32(Running))
		v, err := fn(ctx)
		switch {
		case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
			f.err = err
			f.state.Store(int32(Cancelled))
		case err != nil:
			f.err = err
			f.state.Store(int32(Failed))
		default:
			f.val = v
			f.state.Store(int32(Completed))
		}
	}()
	return f
}

// Wait blocks until the task finishes and returns its result.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// Done is closed when the task has finished.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// State returns the task's current state.
func (f *Future[T]) State() TaskState {
	return TaskState(f.state.Load())
}

// Cancelled reports whether the task finished without producing a result
// because its context was cancelled. It blocks until the task finishes.
func (f *Future[T]) Cancelled() bool {
	<-f.done
	return f.State() == Cancelled
}

// MapReduce applies mapFn to every item on at most p.Size() goroutines and
// folds the results in item order with reduce. The first error cancels the
// remaining work.
func MapReduce[T, R, A any](
	ctx context.Context,
	p *Pool,
	items []T,
	mapFn func(context.Context, T) (R, error),
	reduce func(acc A, r R) A,
	init A,
) (A, error) {
	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Size())
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := mapFn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return init, err
	}

	acc := init
	for _, r := range results {
		acc = reduce(acc, r)
	}
	return acc, nil
}
