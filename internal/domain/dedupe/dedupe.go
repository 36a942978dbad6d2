// Package dedupe tracks client idempotency keys for interaction events.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper remembers idempotency keys and the event ID each one produced.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and claims it if not.
	SeenAndRecord(ctx context.Context, key string) Claim

	// Complete attaches the persisted event ID to the claim identified by
	// token. It is a no-op when that claim is gone.
	Complete(ctx context.Context, key string, token uint64, eventID string)

	// Unrecord releases the claim identified by token so the key can be
	// retried. It is a no-op when that claim is gone.
	Unrecord(ctx context.Context, key string, token uint64)

	Size() int64
}

// Claim is the outcome of SeenAndRecord.
//
// When Seen is false the caller owns the key and must settle it with Token.
// When Seen is true and Pending is nil, EventID is the completed event. When
// Pending is non-nil the first request is still in flight; Pending is closed
// once it completes or is released, and the caller should claim again.
type Claim struct {
	Seen    bool
	EventID string
	Pending <-chan struct{}
	Token   uint64
}

// node is an entry in the insertion-ordered list.
type node struct {
	key     string
	eventID string
	token   uint64
	done    chan struct{} // open while the claim is in flight
	prev    *node
	next    *node
}

// settle wakes anyone waiting on the claim.
func (n *node) settle() {
	if n.done != nil {
		close(n.done)
		n.done = nil
	}
}

func (n *node) reset() {
	n.key = ""
	n.eventID = ""
	n.token = 0
	n.done = nil
	n.prev = nil
	n.next = nil
}

// inMemoryDeduper keeps keys in a map plus a doubly linked list ordered by
// claim time. In bounded mode the oldest key is evicted first.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]*node
	head     *node // newest
	tail     *node // oldest
	maxSize  int   // 0 or negative = unbounded
	tokens   uint64
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 100_000,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() any {
			return &node{}
		},
	}

	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) Claim {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, exists := d.seen[key]; exists {
		if n.done != nil {
			return Claim{Seen: true, Pending: n.done}
		}
		return Claim{Seen: true, EventID: n.eventID}
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n, _ := d.nodePool.Get().(*node)
	if n == nil {
		n = &node{}
	}
	d.tokens++
	n.key = key
	n.token = d.tokens
	n.done = make(chan struct{})
	d.pushFront(n)
	d.seen[key] = n
	d.size.Add(1)
	return Claim{Token: n.token}
}

func (d *inMemoryDeduper) Complete(_ context.Context, key string, token uint64, eventID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, exists := d.seen[key]; exists && n.token == token {
		n.eventID = eventID
		n.settle()
	}
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string, token uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, exists := d.seen[key]; exists && n.token == token {
		d.remove(n)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// pushFront links n as the newest entry. Caller holds d.mu.
func (d *inMemoryDeduper) pushFront(n *node) {
	n.prev = nil
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
}

// remove unlinks n, drops it from the map and returns it to the pool.
// Caller holds d.mu.
func (d *inMemoryDeduper) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	delete(d.seen, n.key)
	n.settle()
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

func (d *inMemoryDeduper) evictOldest() {
	if d.tail != nil {
		d.remove(d.tail)
	}
}
