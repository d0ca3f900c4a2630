package provenance

import (
	"testing"

	"github.com/trace2e-io/trace2e/internal/naming"
)

const node = "10.0.0.1"

func TestInitialProvenance(t *testing.T) {
	s := New(node)
	file := naming.NewFile("/tmp/test")
	p := s.Get(file)
	if !p.Contains(node, file) {
		t.Errorf("prov(file) must contain the file itself")
	}

	stream := naming.NewStream("10.0.0.1:80", "10.0.0.2:81")
	if len(s.Get(stream)) != 0 {
		t.Errorf("stream provenance must start empty, got %v", s.Get(stream))
	}
}

func TestUpdateOnInput(t *testing.T) {
	s := New(node)
	proc := naming.NewProcessMock(0)
	file := naming.NewFile("/tmp/test")

	if !s.UpdateOnInput(proc, file) {
		t.Fatalf("first update reported no growth")
	}
	p := s.Get(proc)
	if !p.Contains(node, file) || !p.Contains(node, proc) {
		t.Errorf("prov(proc) = %v, want file and proc", p)
	}

	// Idempotent: repeating the same flow adds nothing.
	if s.UpdateOnInput(proc, file) {
		t.Errorf("repeated update reported growth")
	}
}

func TestCircularUpdate(t *testing.T) {
	s := New(node)
	proc := naming.NewProcessMock(0)
	file := naming.NewFile("/tmp/test")

	s.UpdateOnInput(file, proc)
	s.UpdateOnInput(proc, file)

	fp := s.Get(file)
	pp := s.Get(proc)
	for n, set := range fp {
		for r := range set {
			if !pp.Contains(n, r) {
				t.Fatalf("cycle: prov(file) has %s/%v missing from prov(proc)", n, r)
			}
		}
	}
}

func TestMergeMultipleNodes(t *testing.T) {
	s := New(node)
	proc := naming.NewProcessMock(0)
	remoteFile := naming.NewFile("/remote/data")

	grew := s.Merge(proc, Prov{
		"10.0.0.2": NewSet(remoteFile),
		node:       NewSet(proc),
	})
	if !grew {
		t.Fatalf("merge reported no growth")
	}
	p := s.Get(proc)
	if !p.Contains("10.0.0.2", remoteFile) {
		t.Errorf("remote lineage lost: %v", p)
	}
	if s.Merge(proc, Prov{"10.0.0.2": NewSet(remoteFile)}) {
		t.Errorf("re-merge of subset reported growth")
	}
}

func TestMonotonicGrowth(t *testing.T) {
	s := New(node)
	proc := naming.NewProcessMock(0)
	before := s.Get(proc)

	s.UpdateOnInput(proc, naming.NewFile("/tmp/a"))
	s.UpdateOnInput(proc, naming.NewFile("/tmp/b"))
	after := s.Get(proc)

	for n, set := range before {
		for r := range set {
			if !after.Contains(n, r) {
				t.Fatalf("provenance shrank: lost %s/%v", n, r)
			}
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := New(node)
	proc := naming.NewProcessMock(0)
	s.UpdateOnInput(proc, naming.NewFile("/tmp/a"))

	snap := s.Get(proc)
	s.UpdateOnInput(proc, naming.NewFile("/tmp/b"))
	if snap.Contains(node, naming.NewFile("/tmp/b")) {
		t.Errorf("snapshot mutated by later update")
	}
}

func TestPropagationTargets(t *testing.T) {
	s := New(node)
	file := naming.NewFile("/tmp/secret")
	proc := naming.NewProcessMock(0)
	s.UpdateOnInput(proc, file)

	s.RecordPropagation(s.Get(proc), "10.0.0.2")
	s.RecordPropagation(s.Get(proc), "10.0.0.3")
	s.RecordPropagation(s.Get(proc), node) // self, ignored

	targets := s.PropagationTargets(file)
	if len(targets) != 2 {
		t.Fatalf("PropagationTargets = %v, want two nodes", targets)
	}
	seen := map[string]bool{}
	for _, n := range targets {
		seen[n] = true
	}
	if !seen["10.0.0.2"] || !seen["10.0.0.3"] {
		t.Errorf("targets = %v", targets)
	}
	if len(s.PropagationTargets(naming.NewFile("/tmp/other"))) != 0 {
		t.Errorf("unrelated resource has propagation targets")
	}
}

func TestClosureExpandsStoredLineage(t *testing.T) {
	s := New(node)
	a := naming.NewFile("/tmp/a")
	b := naming.NewFile("/tmp/b")
	c := naming.NewFile("/tmp/c")

	// Build b←a, then c←b through raw merges that skip eager transitivity
	// for a, simulating out-of-order sync arrival.
	s.Merge(b, Prov{node: NewSet(a)})
	s.Merge(c, Prov{node: NewSet(b)})

	closure := s.Closure(c)
	if !closure.Contains(node, a) {
		t.Errorf("closure(c) missing transitive ancestor a: %v", closure)
	}
	if !closure.Contains(node, c) {
		t.Errorf("closure(c) missing c itself: %v", closure)
	}
}

func TestClosureTerminatesOnCycle(t *testing.T) {
	s := New(node)
	x := naming.NewFile("/tmp/x")
	y := naming.NewFile("/tmp/y")
	s.Merge(x, Prov{node: NewSet(y)})
	s.Merge(y, Prov{node: NewSet(x)})

	closure := s.Closure(x)
	if !closure.Contains(node, x) || !closure.Contains(node, y) {
		t.Errorf("cyclic closure = %v", closure)
	}
}
