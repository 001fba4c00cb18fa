package events

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is used when a non-positive buffer size is requested.
const DefaultBufferSize = 16

// Subscription is a single consumer attached to a Bus.
type Subscription[T any] interface {
	// Events returns the receive channel. It is closed when the subscription ends.
	Events() <-chan T

	// Close detaches the subscription. Idempotent.
	Close() error
}

type subscription[T any] struct {
	ch     chan T
	done   chan struct{}
	closed bool
	mu     sync.RWMutex
	detach func()
}

func (s *subscription[T]) Events() <-chan T {
	return s.ch
}

func (s *subscription[T]) Close() error {
	if s.detach != nil {
		s.detach()
	}
	s.shut()
	return nil
}

func (s *subscription[T]) shut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		close(s.done)
		s.closed = true
	}
}

func (s *subscription[T]) offer(v T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}

// Bus delivers values of type T to every subscriber. Safe for concurrent use.
type Bus[T any] struct {
	subs       map[*subscription[T]]struct{}
	bufferSize int
	closed     bool
	dropped    atomic.Uint64
	onDrop     func(T)
	mu         sync.RWMutex
	wg         sync.WaitGroup
}

// BusOption configures a Bus.
type BusOption[T any] func(*Bus[T])

// WithDropHandler calls fn with every value a full subscriber could not take.
// fn runs on the publishing goroutine and must not publish to the same bus.
func WithDropHandler[T any](fn func(v T)) BusOption[T] {
	return func(b *Bus[T]) { b.onDrop = fn }
}

// NewBus creates a bus whose subscriptions buffer up to bufferSize values.
func NewBus[T any](bufferSize int, opts ...BusOption[T]) *Bus[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	b := &Bus[T]{
		subs:       make(map[*subscription[T]]struct{}),
		bufferSize: bufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe attaches a new consumer. Cancelling ctx detaches it.
// Subscribing to a closed bus yields an already-closed subscription.
func (b *Bus[T]) Subscribe(ctx context.Context) Subscription[T] {
	sub := &subscription[T]{
		ch:   make(chan T, b.bufferSize),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.shut()
		return sub
	}

	b.subs[sub] = struct{}{}
	sub.detach = func() { b.remove(sub) }

	if ctx.Done() != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			select {
			case <-ctx.Done():
				_ = sub.Close()
			case <-sub.done:
			}
		}()
	}

	return sub
}

// Publish offers v to every subscriber and returns how many accepted it.
func (b *Bus[T]) Publish(ctx context.Context, v T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}

	var delivered int
	for sub := range b.subs {
		if sub.offer(v) {
			delivered++
			continue
		}
		b.dropped.Add(1)
		if b.onDrop != nil {
			b.onDrop(v)
		}
	}
	return delivered
}

// Subscribers returns the number of live subscriptions.
func (b *Bus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus[T]) Dropped() uint64 {
	return b.dropped.Load()
}

// Close detaches and closes every subscription. Safe to call more than once.
func (b *Bus[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*subscription[T]]struct{})
	b.mu.Unlock()

	for sub := range subs {
		sub.shut()
	}
	return nil
}

// Wait blocks until all context watchers started by Subscribe have returned.
// Watchers exit when their subscription ends, so Wait after Close never blocks for long.
func (b *Bus[T]) Wait() {
	b.wg.Wait()
}

func (b *Bus[T]) remove(sub *subscription[T]) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}
