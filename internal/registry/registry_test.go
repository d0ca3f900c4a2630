package registry

import (
	"errors"
	"testing"

	"github.com/trace2e-io/trace2e/internal/naming"
)

func newTestRegistry() *Registry {
	return NewWithProcessFunc(naming.NewProcessMock)
}

func TestEnrollResolveRetire(t *testing.T) {
	r := newTestRegistry()
	if err := r.EnrollLocal(1, 4, "/tmp/x"); err != nil {
		t.Fatalf("EnrollLocal: %v", err)
	}

	b, ok := r.Resolve(1, 4)
	if !ok {
		t.Fatalf("Resolve after enroll returned ok=false")
	}
	if b.Target != naming.NewFile("/tmp/x") {
		t.Errorf("resolved target = %v", b.Target)
	}
	if b.Process != naming.NewProcessMock(1) {
		t.Errorf("resolved process = %v", b.Process)
	}

	if _, ok := r.Retire(1, 4); !ok {
		t.Fatalf("Retire returned ok=false")
	}
	if _, ok := r.Resolve(1, 4); ok {
		t.Errorf("Resolve after retire returned ok=true")
	}
}

func TestEnrollIdempotent(t *testing.T) {
	r := newTestRegistry()
	if err := r.EnrollLocal(1, 4, "/tmp/x"); err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	if err := r.EnrollLocal(1, 4, "/tmp/x"); err != nil {
		t.Errorf("re-enroll of same binding must be idempotent, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestEnrollConflict(t *testing.T) {
	r := newTestRegistry()
	if err := r.EnrollLocal(1, 4, "/tmp/x"); err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	if err := r.EnrollLocal(1, 4, "/tmp/y"); !errors.Is(err, ErrConflict) {
		t.Errorf("rebinding live handle: got %v, want ErrConflict", err)
	}
	if err := r.EnrollRemote(1, 4, "127.0.0.1:80", "127.0.0.2:81"); !errors.Is(err, ErrConflict) {
		t.Errorf("rebinding live handle to stream: got %v, want ErrConflict", err)
	}

	// After retirement the fd number may be reused for a new binding.
	r.Retire(1, 4)
	if err := r.EnrollLocal(1, 4, "/tmp/y"); err != nil {
		t.Errorf("enroll after retire: %v", err)
	}
}

func TestRetireUnknownHandle(t *testing.T) {
	r := newTestRegistry()
	if _, ok := r.Retire(9, 9); ok {
		t.Errorf("retiring unknown handle returned ok=true")
	}
}

func TestStreamEnroll(t *testing.T) {
	r := newTestRegistry()
	if err := r.EnrollRemote(2, 5, "10.0.0.1:1337", "10.0.0.2:1338"); err != nil {
		t.Fatalf("EnrollRemote: %v", err)
	}
	b, ok := r.Resolve(2, 5)
	if !ok {
		t.Fatalf("Resolve stream handle failed")
	}
	if b.Target != naming.NewStream("10.0.0.1:1337", "10.0.0.2:1338") {
		t.Errorf("resolved stream = %v", b.Target)
	}
}
