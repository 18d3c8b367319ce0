// Package inference runs predictions on a fixed set of backend sessions.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ekisa-team/herbarium/internal/backend"
)

// Error definitions for the inference package.
var (
	ErrNoSessions = errors.New("pool needs at least one session")
	ErrClosed     = errors.New("inference pool is closed")
	ErrPanic      = errors.New("inference panicked")
)

// Observer receives the duration and outcome of every prediction.
type Observer func(d time.Duration, err error)

type result struct {
	output []float32
	err    error
}

type job struct {
	ctx    context.Context
	input  []float32
	result chan result
}

// Pool serializes access to each session by giving it its own worker.
type Pool struct {
	jobs      chan job
	done      chan struct{}
	observe   Observer
	sessions  []backend.Session
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option configures a Pool.
type Option func(*Pool)

// WithObserver reports every prediction to fn.
func WithObserver(fn Observer) Option {
	return func(p *Pool) {
		p.observe = fn
	}
}

// NewPool starts one worker per session. The pool owns the sessions.
func NewPool(sessions []backend.Session, opts ...Option) (*Pool, error) {
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}

	p := &Pool{
		jobs:     make(chan job),
		done:     make(chan struct{}),
		sessions: sessions,
		observe:  func(time.Duration, error) {},
	}
	for _, opt := range opts {
		opt(p)
	}

	for i, s := range sessions {
		p.wg.Add(1)
		go p.work(i, s)
	}

	return p, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.sessions)
}

// Do runs input through one of the sessions and waits for the output or for
// ctx to be done.
func (p *Pool) Do(ctx context.Context, input []float32) ([]float32, error) {
	j := job{
		ctx:    ctx,
		input:  input,
		result: make(chan result, 1),
	}

	select {
	case <-p.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case p.jobs <- j:
	}

	select {
	case r := <-j.result:
		return r.output, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) work(id int, s backend.Session) {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case j := <-p.jobs:
			if j.ctx.Err() != nil {
				j.result <- result{err: j.ctx.Err()}
				continue
			}

			start := time.Now()
			out, err := p.predict(s, j.input)
			p.observe(time.Since(start), err)
			if err != nil {
				slog.Debug("Prediction failed", "worker", id, "error", err)
			}

			j.result <- result{output: out, err: err}
		}
	}
}

func (p *Pool) predict(s backend.Session, input []float32) (out []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	return s.Predict(input)
}

// Close stops the workers, waiting for in-flight predictions, then closes the
// sessions. It is safe to call more than once.
func (p *Pool) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()

		errs := make([]error, 0, len(p.sessions))
		for _, s := range p.sessions {
			errs = append(errs, s.Close())
		}
		err = errors.Join(errs...)
	})

	return err
}
