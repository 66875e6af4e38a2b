package events

import (
	"context"
	"sync"
)

// Handler receives events delivered by a [Channel].
type Handler func(Event)

// Channel is a publish/subscribe conduit between components that must not
// hold references to each other.
//
// Delivery is fire-and-forget: Publish never waits for subscribers. Every
// subscriber owns a FIFO queue drained by its own goroutine, so events from
// one publisher reach a subscriber in the order they were published. A
// subscriber that panics is recovered and logged; the publisher is never
// affected.
type Channel struct {
	mu          sync.RWMutex
	subscribers map[Kind][]*subscriber
	all         []*subscriber
	closed      bool

	wg sync.WaitGroup
}

func NewChannel() *Channel {
	return &Channel{subscribers: map[Kind][]*subscriber{}}
}

// Subscribe registers handler for events of the given kind. The returned
// function removes the subscription; events already queued for it are still
// delivered.
func (c *Channel) Subscribe(kind Kind, handler Handler) (unsubscribe func()) {
	if c == nil || handler == nil {
		return func() {}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}

	sub := c.newSubscriber(handler)
	c.subscribers[kind] = append(c.subscribers[kind], sub)
	return func() { c.remove(kind, sub) }
}

// SubscribeAll registers handler for every event published on the channel.
func (c *Channel) SubscribeAll(handler Handler) (unsubscribe func()) {
	if c == nil || handler == nil {
		return func() {}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}

	sub := c.newSubscriber(handler)
	c.all = append(c.all, sub)
	return func() { c.removeAll(sub) }
}

// Publish queues event for every matching subscriber. Publishing on a nil or
// closed channel is a no-op.
func (c *Channel) Publish(event Event) {
	if c == nil || event == nil {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	for _, sub := range c.subscribers[event.Kind()] {
		sub.enqueue(event)
	}
	for _, sub := range c.all {
		sub.enqueue(event)
	}
}

// Close stops accepting events and waits until every subscriber has drained
// its queue.
func (c *Channel) Close() {
	if c == nil {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := append([]*subscriber(nil), c.all...)
	for _, kindSubs := range c.subscribers {
		subs = append(subs, kindSubs...)
	}
	c.subscribers = map[Kind][]*subscriber{}
	c.all = nil
	c.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
	c.wg.Wait()
}

func (c *Channel) newSubscriber(handler Handler) *subscriber {
	sub := &subscriber{handler: handler, wake: make(chan struct{}, 1)}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		sub.run()
	}()
	return sub
}

func (c *Channel) remove(kind Kind, sub *subscriber) {
	c.mu.Lock()
	subs := c.subscribers[kind]
	for i, candidate := range subs {
		if candidate == sub {
			c.subscribers[kind] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	sub.close()
}

func (c *Channel) removeAll(sub *subscriber) {
	c.mu.Lock()
	for i, candidate := range c.all {
		if candidate == sub {
			c.all = append(c.all[:i:i], c.all[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	sub.close()
}

type subscriber struct {
	handler Handler

	mu     sync.Mutex
	queue  []Event
	closed bool
	wake   chan struct{}
}

func (s *subscriber) enqueue(event Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	for range s.wake {
		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				closed := s.closed
				s.mu.Unlock()
				if closed {
					return
				}
				break
			}
			event := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()

			s.deliver(event)
		}
	}
}

func (s *subscriber) deliver(event Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.ErrorContext(context.Background(), "event subscriber panicked",
				"kind", string(event.Kind()), "panic", recovered)
		}
	}()

	s.handler(event)
}
