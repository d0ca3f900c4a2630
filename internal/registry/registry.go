// Package registry maps process handles (pid, fd) to canonical resources
// and keeps the process identity that opened each handle.
package registry

import (
	"errors"
	"sync"

	"github.com/trace2e-io/trace2e/internal/naming"
)

// ErrConflict is returned when a live handle is re-enrolled with a
// different resource. Retiring the handle first clears the binding.
var ErrConflict = errors.New("registry: handle already bound to a different resource")

// Handle identifies one open file descriptor of one process on this node.
type Handle struct {
	Pid int32
	Fd  int32
}

// Binding pairs the owning process resource with the handle's target.
type Binding struct {
	Process naming.Resource
	Target  naming.Resource
}

// Registry is the node-local handle table. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	handles map[Handle]Binding

	// processFor builds the process resource for a pid; replaced in tests.
	processFor func(int32) naming.Resource
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		handles:    make(map[Handle]Binding),
		processFor: naming.NewProcess,
	}
}

// NewWithProcessFunc returns a registry that builds process identities with
// fn instead of inspecting /proc. Test use.
func NewWithProcessFunc(fn func(int32) naming.Resource) *Registry {
	r := New()
	r.processFor = fn
	return r
}

// EnrollLocal binds (pid, fd) to the file at path. Re-enrolling the same
// binding is idempotent; a live handle bound to anything else conflicts.
func (r *Registry) EnrollLocal(pid, fd int32, path string) error {
	return r.enroll(pid, fd, naming.NewFile(path))
}

// EnrollRemote binds (pid, fd) to the stream (localSocket, peerSocket).
func (r *Registry) EnrollRemote(pid, fd int32, localSocket, peerSocket string) error {
	return r.enroll(pid, fd, naming.NewStream(localSocket, peerSocket))
}

func (r *Registry) enroll(pid, fd int32, target naming.Resource) error {
	h := Handle{Pid: pid, Fd: fd}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.handles[h]; ok {
		if prev.Target == target {
			return nil
		}
		return ErrConflict
	}
	r.handles[h] = Binding{Process: r.processFor(pid), Target: target}
	return nil
}

// Resolve returns the binding for (pid, fd), if any.
func (r *Registry) Resolve(pid, fd int32) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.handles[Handle{Pid: pid, Fd: fd}]
	return b, ok
}

// Retire drops the binding for (pid, fd) and returns what was bound.
// Retiring an unknown handle is a no-op.
func (r *Registry) Retire(pid, fd int32) (Binding, bool) {
	h := Handle{Pid: pid, Fd: fd}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.handles[h]
	if ok {
		delete(r.handles, h)
	}
	return b, ok
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
