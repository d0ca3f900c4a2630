// Package sequencer serializes flows over resources. A reservation claims
// both endpoints of a flow exclusively; waiters are granted in arrival
// order per resource, and every successful reservation carries a fresh,
// process-wide monotonic grant id.
package sequencer

import (
	"context"
	"errors"
	"sync"

	"github.com/trace2e-io/trace2e/internal/naming"
)

// ErrStaleRelease is returned for a release whose grant id does not match
// any active reservation. Under correct P2M usage this never happens; it is
// surfaced so callers can log the assertion failure.
var ErrStaleRelease = errors.New("sequencer: stale release, grant not active")

// Flow is one reserved source→destination pair.
type Flow struct {
	Source      naming.Resource
	Destination naming.Resource
}

type waiter struct {
	flow  Flow
	grant chan uint64
}

// Sequencer hands out at most one active reservation per resource.
//
// Grants are made only by a scan of the queue, run on every enqueue,
// release and cancellation, so a woken waiter cannot be overtaken: the
// queue is scanned front to back and a blocked waiter shadows its
// resources from everyone behind it.
type Sequencer struct {
	mu        sync.Mutex
	nextGrant uint64
	busy      map[naming.Resource]uint64
	queue     []*waiter
	flows     map[uint64]Flow
}

// New returns an idle sequencer.
func New() *Sequencer {
	return &Sequencer{
		busy:  make(map[naming.Resource]uint64),
		flows: make(map[uint64]Flow),
	}
}

// Reserve blocks until both endpoints of the flow are free and this caller
// is at the head of the line for them, then returns the grant id. On
// context cancellation the waiter is removed atomically; if the grant
// raced the cancellation, the reservation is rolled back before returning.
func (s *Sequencer) Reserve(ctx context.Context, source, destination naming.Resource) (uint64, error) {
	w := &waiter{
		flow:  Flow{Source: source, Destination: destination},
		grant: make(chan uint64, 1),
	}

	s.mu.Lock()
	s.queue = append(s.queue, w)
	s.pumpLocked()
	s.mu.Unlock()

	select {
	case id := <-w.grant:
		return id, nil
	case <-ctx.Done():
	}

	s.mu.Lock()
	for i, q := range s.queue {
		if q == w {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.pumpLocked()
			s.mu.Unlock()
			return 0, ctx.Err()
		}
	}
	// Not queued anymore: the grant fired concurrently. Roll it back so the
	// slot is not leaked.
	id := <-w.grant
	s.releaseLocked(id)
	s.mu.Unlock()
	return 0, ctx.Err()
}

// Lookup returns the flow reserved under the grant id.
func (s *Sequencer) Lookup(grantID uint64) (Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[grantID]
	return f, ok
}

// Release frees the reservation held under grantID and hands the freed
// resources to the next waiters in line.
func (s *Sequencer) Release(grantID uint64) (Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[grantID]
	if !ok {
		return Flow{}, ErrStaleRelease
	}
	s.releaseLocked(grantID)
	return f, nil
}

// ReleaseResource frees whatever reservation currently covers the resource.
// Used by handle retirement, which knows the resource but not the grant.
func (s *Sequencer) ReleaseResource(r naming.Resource) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.busy[r]
	if !ok {
		return 0, false
	}
	s.releaseLocked(id)
	return id, true
}

// Holder returns the grant currently covering the resource, if any.
func (s *Sequencer) Holder(r naming.Resource) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.busy[r]
	return id, ok
}

// Active returns the number of reserved flows.
func (s *Sequencer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flows)
}

func (s *Sequencer) releaseLocked(grantID uint64) {
	f := s.flows[grantID]
	delete(s.flows, grantID)
	if s.busy[f.Source] == grantID {
		delete(s.busy, f.Source)
	}
	if s.busy[f.Destination] == grantID {
		delete(s.busy, f.Destination)
	}
	s.pumpLocked()
}

// pumpLocked grants every queued waiter whose endpoints are free, front to
// back. A waiter that stays blocked shadows its endpoints so later waiters
// cannot jump the queue on the same resources; disjoint flows still pass.
func (s *Sequencer) pumpLocked() {
	var shadowed map[naming.Resource]bool
	var remaining []*waiter
	for _, w := range s.queue {
		src, dst := w.flow.Source, w.flow.Destination
		_, srcBusy := s.busy[src]
		_, dstBusy := s.busy[dst]
		if !srcBusy && !dstBusy && !shadowed[src] && !shadowed[dst] {
			s.nextGrant++
			id := s.nextGrant
			s.busy[src] = id
			s.busy[dst] = id
			s.flows[id] = w.flow
			w.grant <- id
			continue
		}
		if shadowed == nil {
			shadowed = make(map[naming.Resource]bool)
		}
		shadowed[src] = true
		shadowed[dst] = true
		remaining = append(remaining, w)
	}
	s.queue = remaining
}
