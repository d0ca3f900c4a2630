// Package compliance holds the per-resource policy labels, the deletion
// state machine, and the rule evaluation that decides whether a flow may
// proceed. Consent waiting and cross-node fan-out live above this package;
// evaluation here is pure and never blocks.
package compliance

import (
	"errors"
	"sync"

	"github.com/trace2e-io/trace2e/internal/naming"
)

// Denial reasons. The surfaces translate these into the wire's denial
// shape; Reason maps them to stable audit strings.
var (
	ErrDeleted         = errors.New("compliance: deleted resource in flow")
	ErrConfidentiality = errors.New("compliance: confidential source, remote destination")
	ErrIntegrity       = errors.New("compliance: integrity-protected destination, foreign source")
	ErrConsentDenied   = errors.New("compliance: consent denied")
	ErrConsentTimeout  = errors.New("compliance: consent timed out")
	ErrPeerDenied      = errors.New("compliance: denied by peer")
	ErrPeerUnavailable = errors.New("compliance: peer unavailable")
)

// IsDenial reports whether err is a policy denial rather than an
// infrastructure failure.
func IsDenial(err error) bool {
	for _, d := range []error{
		ErrDeleted, ErrConfidentiality, ErrIntegrity,
		ErrConsentDenied, ErrConsentTimeout, ErrPeerDenied,
	} {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

// Reason returns the audit/metrics label for a denial error.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrDeleted):
		return "deleted"
	case errors.Is(err, ErrConfidentiality):
		return "confidentiality"
	case errors.Is(err, ErrIntegrity):
		return "integrity"
	case errors.Is(err, ErrConsentDenied):
		return "consent_denied"
	case errors.Is(err, ErrConsentTimeout):
		return "consent_timeout"
	case errors.Is(err, ErrPeerDenied):
		return "peer_denied"
	case errors.Is(err, ErrPeerUnavailable):
		return "peer_unavailable"
	default:
		return "error"
	}
}

// DeletionState is the deletion lifecycle of a resource.
type DeletionState uint8

const (
	DeletionNone DeletionState = iota
	DeletionPending
	DeletionConfirmed
)

// Label is the policy record of one resource. The zero value is the
// default policy: nothing restricted.
type Label struct {
	Confidential    bool
	Integrity       bool
	Deleted         DeletionState
	ConsentRequired bool
}

// IsDeleted reports whether the resource is pending or confirmed deleted.
func (l Label) IsDeleted() bool { return l.Deleted != DeletionNone }

// Store keeps labels for local resources and the shadow set of remote
// resources whose owners broadcast a deletion to this node.
type Store struct {
	mu            sync.RWMutex
	labels        map[naming.Resource]Label
	remoteDeleted map[naming.LocalizedResource]struct{}
}

// NewStore returns an empty label store.
func NewStore() *Store {
	return &Store{
		labels:        make(map[naming.Resource]Label),
		remoteDeleted: make(map[naming.LocalizedResource]struct{}),
	}
}

// Get returns the label for a resource, defaulting to the zero label.
func (s *Store) Get(r naming.Resource) Label {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.labels[r]
}

// GetAll returns labels for every non-stream resource in the set. Streams
// carry no labels of their own; policy lives on their endpoints' lineage.
func (s *Store) GetAll(resources []naming.Resource) map[naming.Resource]Label {
	out := make(map[naming.Resource]Label, len(resources))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range resources {
		if r.IsStream() {
			continue
		}
		out[r] = s.labels[r]
	}
	return out
}

// mutate applies fn to the resource's label unless the resource is already
// deleted. Reports whether the label was written.
func (s *Store) mutate(r naming.Resource, fn func(*Label)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.labels[r]
	if l.IsDeleted() {
		return false
	}
	fn(&l)
	s.labels[r] = l
	return true
}

// SetConfidential flips the confidentiality flag. Rejected once deleted.
func (s *Store) SetConfidential(r naming.Resource, v bool) bool {
	return s.mutate(r, func(l *Label) { l.Confidential = v })
}

// SetIntegrity flips the integrity flag. Rejected once deleted.
func (s *Store) SetIntegrity(r naming.Resource, v bool) bool {
	return s.mutate(r, func(l *Label) { l.Integrity = v })
}

// SetConsentRequired arms or disarms consent. Rejected once deleted.
func (s *Store) SetConsentRequired(r naming.Resource, v bool) bool {
	return s.mutate(r, func(l *Label) { l.ConsentRequired = v })
}

// SetDeleted moves the resource from none to pending. Reports whether the
// transition happened (false when already pending or confirmed).
func (s *Store) SetDeleted(r naming.Resource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.labels[r]
	if l.IsDeleted() {
		return false
	}
	l.Deleted = DeletionPending
	s.labels[r] = l
	return true
}

// ConfirmDeleted moves the resource from pending to confirmed.
func (s *Store) ConfirmDeleted(r naming.Resource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.labels[r]
	if l.Deleted != DeletionPending {
		return false
	}
	l.Deleted = DeletionConfirmed
	s.labels[r] = l
	return true
}

// MarkRemoteDeleted records a deletion broadcast received for a resource
// owned by another node.
func (s *Store) MarkRemoteDeleted(id naming.LocalizedResource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remoteDeleted[id] = struct{}{}
}

// RemoteDeleted reports whether the identified remote resource is known to
// be deleted.
func (s *Store) RemoteDeleted(id naming.LocalizedResource) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.remoteDeleted[id]
	return ok
}

// Evaluate applies the label rules to a set of locally-owned ancestors for
// a flow into the destination described by destLabel. ancestorNode is the
// node that owns the ancestors (this node), destNode the destination's
// owner, destRemote whether the destination lives off-node from the
// ancestors' point of view.
//
// Returns the ancestors that additionally require a consent decision, or
// the first rule violation.
func (s *Store) Evaluate(ancestors []naming.Resource, destLabel Label, ancestorNode, destNode string, destRemote bool) ([]naming.Resource, error) {
	if destLabel.IsDeleted() {
		return nil, ErrDeleted
	}
	var needConsent []naming.Resource
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range ancestors {
		l := s.labels[a]
		if l.IsDeleted() {
			return nil, ErrDeleted
		}
		if l.Confidential && destRemote {
			return nil, ErrConfidentiality
		}
		if destLabel.Integrity && ancestorNode != destNode {
			return nil, ErrIntegrity
		}
		if l.ConsentRequired {
			needConsent = append(needConsent, a)
		}
	}
	return needConsent, nil
}
