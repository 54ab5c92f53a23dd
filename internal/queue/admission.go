// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue implements the admission controller: HIGH-tier work is
// dispatched to a bounded worker pool immediately (with a short-lived
// overflow path, never the general queue), while MEDIUM and BACKGROUND
// work waits in a capacity-bounded priority queue drained by a fixed
// background pool. A full queue rejects immediately; admission never
// blocks unboundedly.
package queue

import (
	"container/heap"
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mindmesh/synthroute/internal/events"
	"github.com/mindmesh/synthroute/internal/executor"
	"github.com/mindmesh/synthroute/internal/metrics"
	"github.com/mindmesh/synthroute/internal/routing"
)

// ErrQueueSaturated is returned when a MEDIUM or BACKGROUND entry
// arrives while the bounded queue is at capacity. It is a deliberate
// backpressure signal; the caller decides whether to retry.
var ErrQueueSaturated = errors.New("admission queue saturated")

// ErrStopped is returned when the controller has been shut down.
var ErrStopped = errors.New("admission controller stopped")

// Config sizes the worker pools and the bounded queue.
type Config struct {
	// HighWorkers is the bounded pool size for HIGH-tier work.
	HighWorkers int `yaml:"high-workers"`

	// HighOverflow caps the short-lived overflow slots used when the
	// HIGH pool is fully busy. HIGH work waits on an overflow slot
	// rather than entering the general queue.
	HighOverflow int `yaml:"high-overflow"`

	// QueueCapacity is the bound M on the MEDIUM/BACKGROUND queue.
	QueueCapacity int `yaml:"queue-capacity"`

	// BackgroundWorkers is the fixed pool draining the queue.
	BackgroundWorkers int `yaml:"background-workers"`
}

// DefaultConfig returns the pool sizing used when configuration does
// not override it.
func DefaultConfig() Config {
	return Config{
		HighWorkers:       8,
		HighOverflow:      16,
		QueueCapacity:     64,
		BackgroundWorkers: 4,
	}
}

// Executor runs one admitted entry to completion. Satisfied by
// *executor.Executor.
type Executor interface {
	Execute(ctx context.Context, entry executor.Entry) routing.Result
}

// Controller admits entries and runs them on the executor.
type Controller struct {
	cfg  Config
	exec Executor
	bus  *events.Bus

	// highSlots and overflowSlots are counting semaphores.
	highSlots     chan struct{}
	overflowSlots chan struct{}

	mu      sync.Mutex
	pending entryHeap
	seq     uint64
	wakeCh  chan struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

// NewController creates an admission controller and starts its
// background drain workers.
func NewController(cfg Config, exec Executor, bus *events.Bus) *Controller {
	def := DefaultConfig()
	if cfg.HighWorkers <= 0 {
		cfg.HighWorkers = def.HighWorkers
	}
	if cfg.HighOverflow <= 0 {
		cfg.HighOverflow = def.HighOverflow
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = def.QueueCapacity
	}
	if cfg.BackgroundWorkers <= 0 {
		cfg.BackgroundWorkers = def.BackgroundWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:           cfg,
		exec:          exec,
		bus:           bus,
		highSlots:     make(chan struct{}, cfg.HighWorkers),
		overflowSlots: make(chan struct{}, cfg.HighOverflow),
		wakeCh:        make(chan struct{}, 1),
		ctx:           ctx,
		cancel:        cancel,
	}

	for i := 0; i < cfg.BackgroundWorkers; i++ {
		c.wg.Add(1)
		go c.drainLoop(i)
	}

	return c
}

// Admit runs the entry according to its tier and blocks until a result
// is available. The possible errors are ErrQueueSaturated for non-HIGH
// work at capacity, ErrStopped on shutdown, and the caller's own ctx
// error when it expires before a worker picks the entry up.
func (c *Controller) Admit(ctx context.Context, entry executor.Entry) (routing.Result, error) {
	if entry.Decision.Tier == routing.TierHigh {
		return c.admitHigh(ctx, entry)
	}
	return c.admitQueued(ctx, entry)
}

// admitHigh dispatches on the HIGH pool, or waits on an overflow slot
// when the pool is busy. HIGH work is never placed in the general queue
// and never dropped silently.
func (c *Controller) admitHigh(ctx context.Context, entry executor.Entry) (routing.Result, error) {
	select {
	case c.highSlots <- struct{}{}:
		defer func() { <-c.highSlots }()
		return c.exec.Execute(ctx, entry), nil
	default:
	}

	// Pool busy: wait on the bounded overflow path.
	select {
	case c.overflowSlots <- struct{}{}:
		defer func() { <-c.overflowSlots }()
		log.Debugf("queue: request %s executing on overflow slot", entry.Request.ID)
		return c.exec.Execute(ctx, entry), nil
	case <-ctx.Done():
		return routing.Result{}, ctx.Err()
	case <-c.ctx.Done():
		return routing.Result{}, ErrStopped
	}
}

// admitQueued enqueues MEDIUM/BACKGROUND work and waits for a drain
// worker to complete it. At capacity the entry is rejected immediately.
func (c *Controller) admitQueued(ctx context.Context, entry executor.Entry) (routing.Result, error) {
	w := &waiting{
		entry:    entry,
		ctx:      ctx,
		resultCh: make(chan routing.Result, 1),
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return routing.Result{}, ErrStopped
	}
	if c.pending.Len() >= c.cfg.QueueCapacity {
		c.mu.Unlock()
		metrics.QueueRejections.Inc()
		log.Warnf("queue: rejecting request %s, queue at capacity %d", entry.Request.ID, c.cfg.QueueCapacity)
		if c.bus != nil {
			c.bus.PublishAsync(&events.Event{
				Type:      events.EventQueueSaturated,
				RequestID: entry.Request.ID,
				Data:      map[string]interface{}{"capacity": c.cfg.QueueCapacity},
			})
		}
		return routing.Result{}, ErrQueueSaturated
	}
	c.seq++
	w.seq = c.seq
	heap.Push(&c.pending, w)
	depth := c.pending.Len()
	c.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	c.wake()

	select {
	case res := <-w.resultCh:
		return res, nil
	case <-ctx.Done():
		return routing.Result{}, ctx.Err()
	case <-c.ctx.Done():
		return routing.Result{}, ErrStopped
	}
}

// wake nudges the drain workers without blocking.
func (c *Controller) wake() {
	select {
	case c.wakeCh <- struct{}{}:
	default:
	}
}

// drainLoop pops the highest-priority waiting entry and executes it.
// Within a tier entries complete FIFO by arrival time.
func (c *Controller) drainLoop(id int) {
	defer c.wg.Done()

	for {
		w := c.pop()
		if w == nil {
			select {
			case <-c.ctx.Done():
				return
			case <-c.wakeCh:
				continue
			}
		}

		// Execute under the caller's context so its deadline reaches
		// the backend call. Expiry mid-flight counts as a normal
		// failure and flows through the usual failover path.
		res := c.exec.Execute(w.ctx, w.entry)
		w.resultCh <- res
	}
}

// pop removes the minimum entry, or returns nil when the queue is empty.
func (c *Controller) pop() *waiting {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending.Len() == 0 {
		return nil
	}
	w := heap.Pop(&c.pending).(*waiting)
	metrics.QueueDepth.Set(float64(c.pending.Len()))
	return w
}

// Depth returns the current number of waiting entries.
func (c *Controller) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.Len()
}

// Stop shuts down the drain workers. In-flight executions finish;
// still-queued entries are abandoned and their callers receive ErrStopped.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
