package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher routes audit events to a fixed set of workers using hashing on
// the target user, so the trail of one user is written in order.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	repo    ports.AuditRepository
	log     zerolog.Logger

	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	dropped func()
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithDropHook registers fn to be called every time an event is dropped
// because its worker queue is full.
func WithDropHook(fn func()) Option {
	return func(d *Dispatcher) { d.dropped = fn }
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger, opts ...Option) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		repo:    repo,
		log:     log,
		dropped: func() {},
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ ports.AuditLog = (*Dispatcher)(nil)

// Start launches all worker goroutines. Workers drain their queue and exit
// after Close.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Record hands an event to the worker responsible for its target. It never
// blocks: when that worker's queue is full the event is dropped and logged.
func (d *Dispatcher) Record(event domain.AuditEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	select {
	case d.workers[d.shardIndex(event)] <- event:
	default:
		d.dropped()
		d.log.Warn().
			Str("action", string(event.Action)).
			Int64("target_id", event.TargetID).
			Msg("audit queue full, event dropped")
	}
}

// Close stops accepting events and waits until queued ones are written or
// ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps an event deterministically to a worker index. Failed logins
// have no target and shard by email instead.
func (d *Dispatcher) shardIndex(event domain.AuditEvent) int {
	key := event.Email
	if event.TargetID != 0 {
		key = strconv.FormatInt(event.TargetID, 10)
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	for event := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := d.repo.Insert(ctx, event); err != nil {
			d.log.Error().Err(err).
				Str("action", string(event.Action)).
				Int64("target_id", event.TargetID).
				Int("worker_id", id).
				Msg("audit write failed")
		}
		cancel()
	}
}
