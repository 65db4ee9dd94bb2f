// Package worker runs jobs in per-key lanes: jobs sharing a key are handled
// one at a time in submission order, lanes run in parallel up to a shared
// limit.
package worker

import (
	"context"
	"sync"
	"time"
)

type PoolOptions[J any] struct {
	// MaxConcurrency bounds the jobs running at once across all lanes.
	MaxConcurrency int
	// QueueSize is the buffer of each lane.
	QueueSize int
	// IdleAfter retires a lane that saw no job for this long. Zero keeps
	// lanes until the pool closes.
	IdleAfter time.Duration
	Handle    func(context.Context, J)
}

type Pool[K comparable, J any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	opts   PoolOptions[J]
	wg     sync.WaitGroup

	mu    sync.Mutex
	lanes map[K]*lane[J]
}

type lane[J any] struct {
	jobs chan J
	// pending counts submitted jobs the lane has not received yet.
	pending int
}

func NewPool[K comparable, J any](ctx context.Context, opts PoolOptions[J]) *Pool[K, J] {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &Pool[K, J]{
		ctx:    poolCtx,
		cancel: cancel,
		sem:    make(chan struct{}, opts.MaxConcurrency),
		opts:   opts,
		lanes:  map[K]*lane[J]{},
	}
}

// Submit queues job on the lane for key, starting the lane if needed. It
// blocks while the lane is full.
func (p *Pool[K, J]) Submit(ctx context.Context, key K, job J) error {
	if ctx == nil {
		ctx = p.ctx
	}
	p.mu.Lock()
	if err := p.ctx.Err(); err != nil {
		p.mu.Unlock()
		return err
	}
	l, ok := p.lanes[key]
	if !ok {
		l = &lane[J]{jobs: make(chan J, p.opts.QueueSize)}
		p.lanes[key] = l
		p.wg.Add(1)
		go p.run(key, l)
	}
	l.pending++
	p.mu.Unlock()

	select {
	case l.jobs <- job:
		return nil
	case <-ctx.Done():
		p.unpend(l)
		return ctx.Err()
	case <-p.ctx.Done():
		p.unpend(l)
		return p.ctx.Err()
	}
}

// Lanes reports how many lanes are running.
func (p *Pool[K, J]) Lanes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lanes)
}

// Close stops every lane and waits for running jobs to return. Queued jobs
// are dropped.
func (p *Pool[K, J]) Close() {
	p.cancel()
	p.wg.Wait()
}

func (p *Pool[K, J]) run(key K, l *lane[J]) {
	defer p.wg.Done()
	for {
		var idle <-chan time.Time
		if p.opts.IdleAfter > 0 {
			idle = time.After(p.opts.IdleAfter)
		}
		select {
		case <-p.ctx.Done():
			return
		case job := <-l.jobs:
			p.unpend(l)
			select {
			case p.sem <- struct{}{}:
			case <-p.ctx.Done():
				return
			}
			func() {
				defer func() { <-p.sem }()
				p.opts.Handle(p.ctx, job)
			}()
		case <-idle:
			p.mu.Lock()
			if l.pending == 0 {
				delete(p.lanes, key)
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
		}
	}
}

func (p *Pool[K, J]) unpend(l *lane[J]) {
	p.mu.Lock()
	l.pending--
	p.mu.Unlock()
}
