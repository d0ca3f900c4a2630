package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/middleware"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/transport"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newNode(t *testing.T, lb *transport.Loopback, host string, consentTimeout time.Duration) *middleware.Middleware {
	t.Helper()
	mw := middleware.New(middleware.Config{
		Node:           host,
		Peers:          lb,
		ConsentTimeout: consentTimeout,
		PeerTimeout:    2 * time.Second,
		Logger:         discardLogger(),
	})
	if lb != nil {
		lb.Register(host, mw)
	}
	return mw
}

func mustGrant(t *testing.T, mw *middleware.Middleware, pid, fd int32, output bool) uint64 {
	t.Helper()
	id, err := mw.IoRequest(context.Background(), pid, fd, output)
	if err != nil {
		t.Fatalf("IoRequest(pid=%d fd=%d output=%v): %v", pid, fd, output, err)
	}
	return id
}

func mustReport(t *testing.T, mw *middleware.Middleware, pid, fd int32, grant uint64, success bool) {
	t.Helper()
	if err := mw.IoReport(context.Background(), pid, fd, grant, success); err != nil {
		t.Fatalf("IoReport(%d): %v", grant, err)
	}
}

func TestEnrollIoCycle(t *testing.T) {
	mw := newNode(t, nil, "10.0.0.1", 0)
	if err := mw.LocalEnroll(1, 4, "/tmp/x"); err != nil {
		t.Fatalf("LocalEnroll: %v", err)
	}

	g1 := mustGrant(t, mw, 1, 4, false)
	mustReport(t, mw, 1, 4, g1, true)

	binding, ok := mw.Registry().Resolve(1, 4)
	if !ok {
		t.Fatalf("binding lost")
	}
	refs := mw.GetReferences(binding.Process)
	if !refs.Contains("10.0.0.1", naming.NewFile("/tmp/x")) {
		t.Errorf("process lineage missing file: %v", refs)
	}

	// A second cycle hands out a larger grant id.
	g2 := mustGrant(t, mw, 1, 4, true)
	if g2 <= g1 {
		t.Errorf("grant ids not monotonic: %d then %d", g1, g2)
	}
	mustReport(t, mw, 1, 4, g2, true)
}

func TestEnrollValidation(t *testing.T) {
	mw := newNode(t, nil, "10.0.0.1", 0)
	if err := mw.LocalEnroll(1, 4, ""); !errors.Is(err, middleware.ErrMalformedRequest) {
		t.Errorf("empty path: got %v", err)
	}
	if err := mw.RemoteEnroll(1, 4, "nonsense", "10.0.0.2:1"); !errors.Is(err, middleware.ErrMalformedRequest) {
		t.Errorf("bad socket: got %v", err)
	}
}

func TestIoRequestUnknownHandle(t *testing.T) {
	mw := newNode(t, nil, "10.0.0.1", 0)
	if _, err := mw.IoRequest(context.Background(), 9, 9, false); !errors.Is(err, middleware.ErrUnknownHandle) {
		t.Errorf("unknown handle: got %v", err)
	}
}

func TestIoReportUnknownGrantIgnored(t *testing.T) {
	mw := newNode(t, nil, "10.0.0.1", 0)
	if err := mw.IoReport(context.Background(), 1, 4, 12345, true); err != nil {
		t.Errorf("unknown grant must be ignored, got %v", err)
	}
}

func TestDeniedAfterDeletion(t *testing.T) {
	mw := newNode(t, nil, "10.0.0.1", 0)
	file := naming.NewFile("/tmp/x")
	if err := mw.LocalEnroll(1, 4, "/tmp/x"); err != nil {
		t.Fatalf("LocalEnroll: %v", err)
	}

	g := mustGrant(t, mw, 1, 4, false)
	mustReport(t, mw, 1, 4, g, true)

	if err := mw.SetDeleted(context.Background(), file); err != nil {
		t.Fatalf("SetDeleted: %v", err)
	}

	_, err := mw.IoRequest(context.Background(), 1, 4, false)
	if !errors.Is(err, compliance.ErrDeleted) {
		t.Errorf("read after deletion: got %v, want ErrDeleted", err)
	}
	// Writes to the deleted file deny as well.
	_, err = mw.IoRequest(context.Background(), 1, 4, true)
	if !errors.Is(err, compliance.ErrDeleted) {
		t.Errorf("write after deletion: got %v, want ErrDeleted", err)
	}
}

func TestDeniedRequestLeavesNoReservation(t *testing.T) {
	mw := newNode(t, nil, "10.0.0.1", 0)
	if err := mw.LocalEnroll(1, 4, "/tmp/x"); err != nil {
		t.Fatalf("LocalEnroll: %v", err)
	}
	if err := mw.SetDeleted(context.Background(), naming.NewFile("/tmp/x")); err != nil {
		t.Fatalf("SetDeleted: %v", err)
	}
	if _, err := mw.IoRequest(context.Background(), 1, 4, false); err == nil {
		t.Fatalf("expected denial")
	}
	// The slot must be free for a different, permitted handle of the same
	// process.
	if err := mw.LocalEnroll(1, 5, "/tmp/ok"); err != nil {
		t.Fatalf("LocalEnroll: %v", err)
	}
	g := mustGrant(t, mw, 1, 5, false)
	mustReport(t, mw, 1, 5, g, true)
}

func TestFailedReportLeavesProvenanceUnchanged(t *testing.T) {
	mw := newNode(t, nil, "10.0.0.1", 0)
	if err := mw.LocalEnroll(1, 4, "/tmp/x"); err != nil {
		t.Fatalf("LocalEnroll: %v", err)
	}
	binding, _ := mw.Registry().Resolve(1, 4)

	g := mustGrant(t, mw, 1, 4, false)
	mustReport(t, mw, 1, 4, g, false)

	refs := mw.GetReferences(binding.Process)
	if refs.Contains("10.0.0.1", naming.NewFile("/tmp/x")) {
		t.Errorf("failed flow mutated provenance: %v", refs)
	}

	// The reservation is gone: the next request proceeds immediately.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	g2, err := mw.IoRequest(ctx, 1, 4, false)
	if err != nil {
		t.Fatalf("request after failed report: %v", err)
	}
	mustReport(t, mw, 1, 4, g2, true)
}

func TestConcurrentReadersSerialized(t *testing.T) {
	mw := newNode(t, nil, "10.0.0.1", 0)
	if err := mw.LocalEnroll(1, 4, "/tmp/shared"); err != nil {
		t.Fatalf("enroll pid 1: %v", err)
	}
	if err := mw.LocalEnroll(2, 4, "/tmp/shared"); err != nil {
		t.Fatalf("enroll pid 2: %v", err)
	}

	var inCritical atomic.Int32
	var overlaps atomic.Int32
	var wg sync.WaitGroup
	for _, pid := range []int32{1, 2, 1, 2} {
		wg.Add(1)
		go func(pid int32) {
			defer wg.Done()
			g, err := mw.IoRequest(context.Background(), pid, 4, false)
			if err != nil {
				t.Errorf("IoRequest: %v", err)
				return
			}
			if inCritical.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(time.Millisecond)
			inCritical.Add(-1)
			if err := mw.IoReport(context.Background(), pid, 4, g, true); err != nil {
				t.Errorf("IoReport: %v", err)
			}
		}(pid)
	}
	wg.Wait()
	if n := overlaps.Load(); n != 0 {
		t.Errorf("%d overlapping grants on the shared file", n)
	}
}

func TestRetireReleasesReservation(t *testing.T) {
	mw := newNode(t, nil, "10.0.0.1", 0)
	if err := mw.LocalEnroll(1, 4, "/tmp/x"); err != nil {
		t.Fatalf("enroll pid 1: %v", err)
	}
	if err := mw.LocalEnroll(2, 4, "/tmp/x"); err != nil {
		t.Fatalf("enroll pid 2: %v", err)
	}

	// pid 1 acquires and never reports; retirement must free the file.
	if _, err := mw.IoRequest(context.Background(), 1, 4, false); err != nil {
		t.Fatalf("IoRequest: %v", err)
	}
	mw.Retire(1, 4)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	g, err := mw.IoRequest(ctx, 2, 4, false)
	if err != nil {
		t.Fatalf("request after retirement blocked: %v", err)
	}
	mustReport(t, mw, 2, 4, g, true)
}

func TestConsentLocalFlow(t *testing.T) {
	mw := newNode(t, nil, "10.0.0.1", time.Second)
	file := naming.NewFile("/tmp/guarded")
	if err := mw.LocalEnroll(1, 4, "/tmp/guarded"); err != nil {
		t.Fatalf("LocalEnroll: %v", err)
	}
	if !mw.EnforceConsent(file) {
		t.Fatalf("EnforceConsent refused")
	}

	// Pre-recorded decision for this node answers without suspension.
	mw.SetConsentDecision(file, "10.0.0.1", naming.Resource{}, true)
	g := mustGrant(t, mw, 1, 4, false)
	mustReport(t, mw, 1, 4, g, true)
}

func TestConsentLocalTimeout(t *testing.T) {
	mw := newNode(t, nil, "10.0.0.1", 50*time.Millisecond)
	file := naming.NewFile("/tmp/guarded")
	if err := mw.LocalEnroll(1, 4, "/tmp/guarded"); err != nil {
		t.Fatalf("LocalEnroll: %v", err)
	}
	mw.EnforceConsent(file)

	_, err := mw.IoRequest(context.Background(), 1, 4, false)
	if !errors.Is(err, compliance.ErrConsentTimeout) {
		t.Errorf("undecided consent: got %v, want ErrConsentTimeout", err)
	}
}
