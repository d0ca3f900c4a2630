package sequencer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trace2e-io/trace2e/internal/naming"
)

func TestReserveRelease(t *testing.T) {
	s := New()
	proc := naming.NewProcessMock(0)
	file := naming.NewFile("/tmp/test")

	id, err := s.Reserve(context.Background(), proc, file)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if id == 0 {
		t.Errorf("grant id must be nonzero")
	}
	if _, held := s.Holder(file); !held {
		t.Errorf("destination not held after reserve")
	}
	if _, held := s.Holder(proc); !held {
		t.Errorf("source not held after reserve")
	}

	flow, err := s.Release(id)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if flow.Source != proc || flow.Destination != file {
		t.Errorf("released flow = %+v", flow)
	}
	if s.Active() != 0 {
		t.Errorf("Active = %d after release", s.Active())
	}
}

func TestGrantIdsMonotonic(t *testing.T) {
	s := New()
	var last uint64
	for i := 0; i < 10; i++ {
		id, err := s.Reserve(context.Background(), naming.NewProcessMock(int32(i)), naming.NewFile("/tmp/f"))
		if err != nil {
			t.Fatalf("Reserve %d: %v", i, err)
		}
		if id <= last {
			t.Fatalf("grant id %d not greater than previous %d", id, last)
		}
		last = id
		if _, err := s.Release(id); err != nil {
			t.Fatalf("Release %d: %v", i, err)
		}
	}
}

func TestStaleRelease(t *testing.T) {
	s := New()
	if _, err := s.Release(42); !errors.Is(err, ErrStaleRelease) {
		t.Errorf("release of unknown grant: got %v, want ErrStaleRelease", err)
	}

	id, _ := s.Reserve(context.Background(), naming.NewProcessMock(0), naming.NewFile("/tmp/f"))
	if _, err := s.Release(id); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if _, err := s.Release(id); !errors.Is(err, ErrStaleRelease) {
		t.Errorf("double release: got %v, want ErrStaleRelease", err)
	}
}

func TestMutualExclusion(t *testing.T) {
	s := New()
	file := naming.NewFile("/tmp/contended")

	var inCritical atomic.Int32
	var overlaps atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(pid int32) {
			defer wg.Done()
			id, err := s.Reserve(context.Background(), file, naming.NewProcessMock(pid))
			if err != nil {
				t.Errorf("Reserve: %v", err)
				return
			}
			if inCritical.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(time.Millisecond)
			inCritical.Add(-1)
			if _, err := s.Release(id); err != nil {
				t.Errorf("Release: %v", err)
			}
		}(int32(i))
	}
	wg.Wait()
	if n := overlaps.Load(); n != 0 {
		t.Errorf("%d overlapping reservations on one resource", n)
	}
}

func TestFIFOOrder(t *testing.T) {
	s := New()
	file := naming.NewFile("/tmp/ordered")

	hold, err := s.Reserve(context.Background(), file, naming.NewProcessMock(100))
	if err != nil {
		t.Fatalf("initial reserve: %v", err)
	}

	const waiters = 5
	grantOrder := make(chan int, waiters)
	started := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 0 {
				close(started)
			} else {
				<-started
				// Stagger arrivals so queue order is deterministic.
				time.Sleep(time.Duration(i*50) * time.Millisecond)
			}
			id, err := s.Reserve(context.Background(), file, naming.NewProcessMock(int32(i)))
			if err != nil {
				t.Errorf("Reserve %d: %v", i, err)
				return
			}
			grantOrder <- i
			s.Release(id)
		}(i)
	}

	time.Sleep(time.Duration(waiters*50+100) * time.Millisecond)
	if _, err := s.Release(hold); err != nil {
		t.Fatalf("release holder: %v", err)
	}
	wg.Wait()
	close(grantOrder)

	i := 0
	for got := range grantOrder {
		if got != i {
			t.Fatalf("grant order position %d served waiter %d", i, got)
		}
		i++
	}
	if i != waiters {
		t.Fatalf("served %d waiters, want %d", i, waiters)
	}
}

func TestCancelWhileQueued(t *testing.T) {
	s := New()
	file := naming.NewFile("/tmp/cancel")
	proc := naming.NewProcessMock(0)

	hold, err := s.Reserve(context.Background(), proc, file)
	if err != nil {
		t.Fatalf("initial reserve: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Reserve(ctx, file, naming.NewProcessMock(1)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("queued reserve: got %v, want deadline exceeded", err)
	}

	// The cancelled waiter must leave no trace: release then re-reserve.
	if _, err := s.Release(hold); err != nil {
		t.Fatalf("release: %v", err)
	}
	id, err := s.Reserve(context.Background(), file, naming.NewProcessMock(2))
	if err != nil {
		t.Fatalf("reserve after cancelled waiter: %v", err)
	}
	s.Release(id)
}

func TestDisjointFlowsDoNotBlock(t *testing.T) {
	s := New()
	id1, err := s.Reserve(context.Background(), naming.NewFile("/a"), naming.NewProcessMock(1))
	if err != nil {
		t.Fatalf("reserve 1: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	id2, err := s.Reserve(ctx, naming.NewFile("/b"), naming.NewProcessMock(2))
	if err != nil {
		t.Fatalf("disjoint reserve blocked: %v", err)
	}
	s.Release(id1)
	s.Release(id2)
}

func TestReleaseResource(t *testing.T) {
	s := New()
	file := naming.NewFile("/tmp/retired")
	id, err := s.Reserve(context.Background(), file, naming.NewProcessMock(1))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	got, ok := s.ReleaseResource(file)
	if !ok || got != id {
		t.Fatalf("ReleaseResource = (%d, %v), want (%d, true)", got, ok, id)
	}
	if _, ok := s.ReleaseResource(file); ok {
		t.Errorf("second ReleaseResource returned ok=true")
	}
}

func TestGrantRaceWithCancelRollsBack(t *testing.T) {
	s := New()
	file := naming.NewFile("/tmp/race")
	for i := 0; i < 50; i++ {
		hold, err := s.Reserve(context.Background(), file, naming.NewProcessMock(1))
		if err != nil {
			t.Fatalf("hold: %v", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			if id, err := s.Reserve(ctx, file, naming.NewProcessMock(2)); err == nil {
				s.Release(id)
			}
		}()
		// Cancel and release concurrently; whichever wins, nothing leaks.
		go cancel()
		s.Release(hold)
		<-done
		if s.Active() != 0 {
			t.Fatalf("iteration %d: %d reservations leaked", i, s.Active())
		}
	}
}
