package session

import (
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the per-subscriber queue length used when none is
// configured.
const DefaultQueueSize = 100

// Hub fans every published snapshot out to all current subscribers.
//
// Each subscriber owns a bounded queue. Publish never blocks: when a queue is
// full its oldest snapshot is discarded to make room. Since every snapshot is
// the full text, a lagging subscriber only misses intermediate states and the
// next snapshot it reads is still a superset of the last one it saw.
//
// Publishes are serialized and stale snapshots (version not newer than the
// last published one) are ignored, so all queues see versions in the same
// strictly increasing order.
type Hub struct {
	queueSize int

	mu          sync.Mutex // protects the fields below
	subscribers map[uint64]*Subscription
	nextID      uint64
	last        uint64
	closed      bool
}

func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		queueSize:   queueSize,
		subscribers: make(map[uint64]*Subscription),
	}
}

// Subscribe registers a new subscriber that receives snapshots published from
// now on. Subscribing to a closed hub yields an already closed subscription.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription{hub: h, id: h.nextID, ch: make(chan Snapshot, h.queueSize)}
	h.nextID++
	if h.closed {
		close(sub.ch)
		sub.done = true
		return sub
	}
	h.subscribers[sub.id] = sub
	return sub
}

// Publish delivers sn to every subscriber. It reports whether sn was newer
// than everything published before.
func (h *Hub) Publish(sn Snapshot) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || sn.Version <= h.last {
		return false
	}
	h.last = sn.Version
	for _, sub := range h.subscribers {
		sub.offer(sn)
	}
	return true
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close ends every subscription. Receivers observe a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subscribers {
		delete(h.subscribers, id)
		sub.done = true
		close(sub.ch)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.done {
		return
	}
	sub.done = true
	delete(h.subscribers, sub.id)
	close(sub.ch)
}

// Subscription is one subscriber's handle on a Hub.
type Subscription struct {
	hub     *Hub
	id      uint64
	ch      chan Snapshot
	dropped atomic.Uint64
	done    bool // guarded by hub.mu
}

// C yields published snapshots in version order. It is closed when the
// subscription or the hub is closed.
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

// Dropped is the number of snapshots discarded because the queue was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscription) Close() {
	s.hub.remove(s)
}

// offer is only called with hub.mu held, so there is a single producer per
// queue and the loop below runs at most a couple of times.
func (s *Subscription) offer(sn Snapshot) {
	for {
		select {
		case s.ch <- sn:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
	}
}
