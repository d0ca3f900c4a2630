// Package provenance maintains the lineage graph: for every resource, the
// set of resources whose data has ever flowed into it, grouped by owning
// node. Entries are kept eagerly transitive, so a single read returns the
// full local view of an ancestry.
package provenance

import (
	"sync"

	"github.com/trace2e-io/trace2e/internal/naming"
)

// Set is an unordered set of resources.
type Set map[naming.Resource]struct{}

// NewSet builds a set from the given resources.
func NewSet(resources ...naming.Resource) Set {
	s := make(Set, len(resources))
	for _, r := range resources {
		s[r] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s Set) Contains(r naming.Resource) bool {
	_, ok := s[r]
	return ok
}

func (s Set) clone() Set {
	c := make(Set, len(s))
	for r := range s {
		c[r] = struct{}{}
	}
	return c
}

// Prov groups a lineage by owning node id.
type Prov map[string]Set

// Clone deep-copies the lineage.
func (p Prov) Clone() Prov {
	c := make(Prov, len(p))
	for node, set := range p {
		c[node] = set.clone()
	}
	return c
}

// Contains reports whether the lineage references (node, r).
func (p Prov) Contains(node string, r naming.Resource) bool {
	return p[node].Contains(r)
}

// Store is the node-local provenance map. All reads return snapshots; no
// lock is ever held across a caller's RPC.
type Store struct {
	node string

	mu   sync.RWMutex
	prov map[naming.Resource]Prov
	// propagation records, per local resource, the remote nodes its data
	// has been pushed to. Deletion broadcasts fan out along this map.
	propagation map[naming.Resource]map[string]struct{}
}

// New returns an empty store owned by the named node.
func New(node string) *Store {
	return &Store{
		node:        node,
		prov:        make(map[naming.Resource]Prov),
		propagation: make(map[naming.Resource]map[string]struct{}),
	}
}

// Node returns the owning node id.
func (s *Store) Node() string { return s.node }

// initProv is the lineage of a resource nothing has flowed into yet: the
// resource itself for files and processes. Streams start empty; their
// lineage lives on whichever endpoint wrote into them and is synced over.
func (s *Store) initProv(r naming.Resource) Prov {
	if r.IsStream() {
		return Prov{}
	}
	return Prov{s.node: NewSet(r)}
}

// Get returns a snapshot of prov(r), including r itself for non-streams.
func (s *Store) Get(r naming.Resource) Prov {
	s.mu.RLock()
	p, ok := s.prov[r]
	if ok {
		p = p.Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return s.initProv(r)
	}
	return p
}

// UpdateOnInput merges prov(src) into prov(dest); as Get returns it, that
// includes src itself for non-streams but not for streams. Reports whether
// anything new was recorded. Commutative and idempotent.
func (s *Store) UpdateOnInput(dest, src naming.Resource) bool {
	return s.Merge(dest, s.Get(src))
}

// Merge folds a raw lineage into prov(dest). Reports whether prov(dest)
// grew. Lineage only ever grows; there is no removal.
func (s *Store) Merge(dest naming.Resource, src Prov) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	destProv, ok := s.prov[dest]
	if !ok {
		destProv = s.initProv(dest)
	}
	updated := false
	for node, set := range src {
		existing, ok := destProv[node]
		if !ok {
			existing = make(Set, len(set))
			destProv[node] = existing
		}
		for r := range set {
			if _, ok := existing[r]; !ok {
				existing[r] = struct{}{}
				updated = true
			}
		}
	}
	if updated || !ok {
		s.prov[dest] = destProv
	}
	return updated
}

// RecordPropagation notes that data of every local resource in src has been
// pushed to the given remote node.
func (s *Store) RecordPropagation(src Prov, node string) {
	if node == "" || node == s.node {
		return
	}
	locals, ok := src[s.node]
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for r := range locals {
		nodes, ok := s.propagation[r]
		if !ok {
			nodes = make(map[string]struct{})
			s.propagation[r] = nodes
		}
		nodes[node] = struct{}{}
	}
}

// PropagationTargets returns the remote nodes that hold data derived from r.
func (s *Store) PropagationTargets(r naming.Resource) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := make([]string, 0, len(s.propagation[r]))
	for n := range s.propagation[r] {
		nodes = append(nodes, n)
	}
	return nodes
}

// Closure expands the lineage of r across stored entries: starting from
// prov(r), every referenced local resource's own lineage is folded in until
// a fixpoint. Entries are eagerly transitive already, so this only matters
// when cyclic stream lineage arrived out of order; the visited set bounds
// the walk.
func (s *Store) Closure(r naming.Resource) Prov {
	out := s.Get(r)
	visited := map[naming.Resource]bool{r: true}
	for {
		grew := false
		if locals, ok := out[s.node]; ok {
			for ancestor := range locals {
				if visited[ancestor] {
					continue
				}
				visited[ancestor] = true
				for node, set := range s.Get(ancestor) {
					existing, ok := out[node]
					if !ok {
						existing = make(Set)
						out[node] = existing
					}
					for a := range set {
						if _, ok := existing[a]; !ok {
							existing[a] = struct{}{}
							grew = true
						}
					}
				}
			}
		}
		if !grew {
			return out
		}
	}
}
