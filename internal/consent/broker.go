// Package consent brokers flow approvals: when a resource's label requires
// consent, compliance checks suspend here until the owner records a
// decision for the (source, destination) pair, or the deadline passes.
package consent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/trace2e-io/trace2e/internal/naming"
)

// ErrTimeout is returned when no decision arrives before the deadline.
// The compliance layer treats it as a denial.
var ErrTimeout = errors.New("consent: decision timed out")

// DefaultTimeout bounds how long a compliance check waits for a decision.
const DefaultTimeout = 30 * time.Second

// notificationBuffer bounds each owner's pending-notification queue.
// Requests past the bound still wait for a decision; only the notification
// is dropped.
const notificationBuffer = 64

// Destination scopes a consent decision: a whole node, a specific
// resource, or a resource qualified by its node.
type Destination struct {
	Node     string
	Resource naming.Resource
}

// NodeWide reports whether the destination names only a node.
func (d Destination) NodeWide() bool { return d.Resource.IsZero() }

// nodeScope strips the destination to its node, for hierarchy fallback.
func (d Destination) nodeScope() Destination { return Destination{Node: d.Node} }

// Notification is delivered to a resource owner when a flow needs their
// decision.
type Notification struct {
	Source      naming.Resource
	Destination Destination
}

type key struct {
	source naming.Resource
	dest   Destination
}

type decision struct {
	granted bool
	id      uint64
}

// Broker is the node-local consent state machine.
type Broker struct {
	timeout time.Duration

	mu        sync.Mutex
	nextID    uint64
	decisions map[key]decision
	channels  map[naming.Resource]chan Notification
	waiters   map[key][]chan bool
}

// New returns a broker with the given decision deadline; zero disables the
// deadline (requests then wait for the caller's context only).
func New(timeout time.Duration) *Broker {
	return &Broker{
		timeout:   timeout,
		decisions: make(map[key]decision),
		channels:  make(map[naming.Resource]chan Notification),
		waiters:   make(map[key][]chan bool),
	}
}

// TakeOwnership opens (or returns) the notification channel for a
// resource. A resource with no open channel auto-denies consent requests,
// since nobody would ever answer them.
func (b *Broker) TakeOwnership(r naming.Resource) <-chan Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.channels[r]
	if !ok {
		ch = make(chan Notification, notificationBuffer)
		b.channels[r] = ch
	}
	return ch
}

// Request asks for consent for source → dest. An existing decision answers
// immediately, the most specific scope winning (resource over node).
// Otherwise the owner is notified and the call suspends until a decision,
// the deadline, or ctx.
func (b *Broker) Request(ctx context.Context, source naming.Resource, dest Destination) (bool, error) {
	b.mu.Lock()
	if d, ok := b.lookupLocked(source, dest); ok {
		b.mu.Unlock()
		return d.granted, nil
	}
	owner, ok := b.channels[source]
	if !ok {
		b.mu.Unlock()
		return false, nil
	}
	k := key{source: source, dest: dest}
	w := make(chan bool, 1)
	b.waiters[k] = append(b.waiters[k], w)
	b.mu.Unlock()

	select {
	case owner <- Notification{Source: source, Destination: dest}:
	default:
		// Owner queue full; the pending waiter still gets woken by any
		// decision for this pair.
	}

	var deadline <-chan time.Time
	if b.timeout > 0 {
		t := time.NewTimer(b.timeout)
		defer t.Stop()
		deadline = t.C
	}

	select {
	case granted := <-w:
		return granted, nil
	case <-deadline:
		b.dropWaiter(k, w)
		return false, ErrTimeout
	case <-ctx.Done():
		b.dropWaiter(k, w)
		return false, ctx.Err()
	}
}

// Decide records a decision and wakes every waiter it answers. A node-wide
// decision also answers waiters on specific resources of that node that
// have no decision of their own. Returns the monotonic decision id.
func (b *Broker) Decide(source naming.Resource, dest Destination, granted bool) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	k := key{source: source, dest: dest}
	b.decisions[k] = decision{granted: granted, id: b.nextID}

	b.wakeLocked(k, granted)
	if dest.NodeWide() {
		for wk := range b.waiters {
			if wk.source != source || wk.dest.Node != dest.Node {
				continue
			}
			if _, ok := b.decisions[wk]; ok {
				continue
			}
			b.wakeLocked(wk, granted)
		}
	}
	return b.nextID
}

// DecisionID returns the id of the recorded decision for the pair, if any.
func (b *Broker) DecisionID(source naming.Resource, dest Destination) (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.decisions[key{source: source, dest: dest}]
	return d.id, ok
}

func (b *Broker) lookupLocked(source naming.Resource, dest Destination) (decision, bool) {
	if d, ok := b.decisions[key{source: source, dest: dest}]; ok {
		return d, true
	}
	if !dest.NodeWide() && dest.Node != "" {
		if d, ok := b.decisions[key{source: source, dest: dest.nodeScope()}]; ok {
			return d, true
		}
	}
	return decision{}, false
}

func (b *Broker) wakeLocked(k key, granted bool) {
	for _, w := range b.waiters[k] {
		select {
		case w <- granted:
		default:
		}
	}
	delete(b.waiters, k)
}

func (b *Broker) dropWaiter(k key, w chan bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws := b.waiters[k]
	for i, cand := range ws {
		if cand == w {
			b.waiters[k] = append(ws[:i], ws[i+1:]...)
			break
		}
	}
	if len(b.waiters[k]) == 0 {
		delete(b.waiters, k)
	}
}
