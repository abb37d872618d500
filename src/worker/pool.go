package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

var errPanic = errors.New("task failed unexpectedly")

// Task is the unit of work, usually one capture.
type Task func(ctx context.Context) (string, error)

// ResultCallback is invoked on completion from a worker goroutine. The event loop
// passes a closure that posts back into the loop.
type ResultCallback func(text string, err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
	once sync.Once
}

type job struct {
	ctx  context.Context
	task Task
	cb   ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				text, err := runWithContext(j.ctx, j.task)
				log.Debug().Int("textLen", len(text)).AnErr("err", err).Msg("Worker: task completed")
				j.cb(text, err)
			}
		}()
	}
}

// Submit enqueues a task if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, task Task, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, task: task, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.jobs) })
	p.wg.Wait()
}

// runWithContext returns early with ctx.Err() once the deadline passes; the task
// itself keeps running in the background.
func runWithContext(ctx context.Context, task Task) (text string, err error) {
	if _, ok := ctx.Deadline(); !ok {
		return safeRun(ctx, task)
	}
	resCh := make(chan struct {
		text string
		err  error
	}, 1)
	go func() {
		text, err := safeRun(ctx, task)
		resCh <- struct {
			text string
			err  error
		}{text, err}
	}()
	select {
	case r := <-resCh:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func safeRun(ctx context.Context, task Task) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("PANIC in worker task: %v", r)
			err = errPanic
		}
	}()
	return task(ctx)
}
