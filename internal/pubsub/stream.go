// Package pubsub provides small in-process broadcast streams. Services use
// them to push basket, catalog, and auth state changes to observers without
// the observers polling.
package pubsub

import "sync"

// Stream fans out every published value to all active subscribers in publish
// order and replays the most recent value to new subscribers, so a late
// observer starts from current state instead of waiting for the next change.
//
// Publish never blocks on slow subscribers: each subscriber owns an
// unbounded FIFO drained by its own goroutine, so a stalled consumer delays
// only itself.
type Stream[T any] struct {
	mu     sync.Mutex
	subs   map[int]*subscriber[T]
	nextID int
	last   T
	primed bool
	closed bool
}

type subscriber[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []T
	out     chan T
	done    chan struct{}
	stopped bool
}

func NewStream[T any]() *Stream[T] {
	return &Stream[T]{subs: make(map[int]*subscriber[T])}
}

func newSubscriber[T any]() *subscriber[T] {
	sub := &subscriber[T]{
		out:  make(chan T),
		done: make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)

	return sub
}

// Publish delivers v to every active subscriber and records it for replay.
// It is a no-op on a closed stream.
func (s *Stream[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.last = v
	s.primed = true

	for _, sub := range s.subs {
		sub.push(v)
	}
}

// Subscribe registers a new observer. If a value was ever published, it is
// replayed as the first delivery. The returned cancel func detaches the
// subscriber and closes its channel; calling it more than once is safe.
func (s *Stream[T]) Subscribe() (<-chan T, func()) {
	return s.subscribe(true)
}

// SubscribeLive is Subscribe without the replay: the observer receives only
// values published after the call. Used where the caller primes new
// observers from a snapshot of its own.
func (s *Stream[T]) SubscribeLive() (<-chan T, func()) {
	return s.subscribe(false)
}

func (s *Stream[T]) subscribe(replay bool) (<-chan T, func()) {
	s.mu.Lock()

	sub := newSubscriber[T]()

	if s.closed {
		s.mu.Unlock()
		sub.stop()

		go sub.pump()

		return sub.out, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = sub

	if replay && s.primed {
		sub.push(s.last)
	}

	s.mu.Unlock()

	go sub.pump()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()

		sub.stop()
	}

	return sub.out, cancel
}

// Close detaches all subscribers and closes their channels. Publish and
// Subscribe become no-ops afterwards.
func (s *Stream[T]) Close() {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return
	}

	s.closed = true
	subs := s.subs
	s.subs = make(map[int]*subscriber[T])
	s.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

func (sub *subscriber[T]) push(v T) {
	sub.mu.Lock()

	if !sub.stopped {
		sub.queue = append(sub.queue, v)
	}

	sub.cond.Signal()
	sub.mu.Unlock()
}

func (sub *subscriber[T]) stop() {
	sub.mu.Lock()

	if sub.stopped {
		sub.mu.Unlock()
		return
	}

	sub.stopped = true
	close(sub.done)
	sub.cond.Signal()
	sub.mu.Unlock()
}

// pump drains the FIFO into the outbound channel, preserving order. A
// cancelled subscriber aborts any pending send so the goroutine never leaks.
func (sub *subscriber[T]) pump() {
	defer close(sub.out)

	for {
		sub.mu.Lock()

		for len(sub.queue) == 0 && !sub.stopped {
			sub.cond.Wait()
		}

		if sub.stopped {
			sub.mu.Unlock()
			return
		}

		v := sub.queue[0]
		sub.queue = sub.queue[1:]
		sub.mu.Unlock()

		select {
		case sub.out <- v:
		case <-sub.done:
			return
		}
	}
}
