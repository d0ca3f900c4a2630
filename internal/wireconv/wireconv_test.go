package wireconv

import (
	"testing"

	"github.com/trace2e-io/trace2e/api/trace2ev1"
	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/provenance"
)

func TestResourceRoundTrip(t *testing.T) {
	cases := []naming.Resource{
		naming.NewFile("/tmp/x"),
		naming.NewStream("10.0.0.1:80", "10.0.0.2:81"),
		{Kind: naming.KindProcess, Pid: 7, Starttime: 99, ExePath: "/bin/true"},
	}
	for _, in := range cases {
		got, err := ResourceFromWire(ResourceToWire(in))
		if err != nil {
			t.Fatalf("round trip %v: %v", in, err)
		}
		if got != in {
			t.Errorf("round trip: got %v, want %v", got, in)
		}
	}
}

func TestResourceFromWireRejectsEmpty(t *testing.T) {
	if _, err := ResourceFromWire(nil); err == nil {
		t.Errorf("nil resource accepted")
	}
	if _, err := ResourceFromWire(&trace2ev1.Resource{}); err == nil {
		t.Errorf("empty variant accepted")
	}
}

func TestProvRoundTrip(t *testing.T) {
	in := provenance.Prov{
		"10.0.0.1": provenance.NewSet(naming.NewFile("/a"), naming.NewProcessMock(1)),
		"10.0.0.2": provenance.NewSet(naming.NewFile("/b")),
	}
	out, err := ProvFromWire(ProvToWire(in))
	if err != nil {
		t.Fatalf("ProvFromWire: %v", err)
	}
	for node, set := range in {
		for r := range set {
			if !out.Contains(node, r) {
				t.Errorf("lost %s/%v", node, r)
			}
		}
	}
	if len(out) != len(in) {
		t.Errorf("node count %d, want %d", len(out), len(in))
	}
}

func TestLabelRoundTrip(t *testing.T) {
	id := naming.LocalizedResource{Node: "10.0.0.1", Resource: naming.NewFile("/x")}
	label := compliance.Label{
		Confidential:    true,
		Deleted:         compliance.DeletionPending,
		ConsentRequired: true,
	}
	gotID, gotLabel, err := LabelFromWire(LabelToWire(id, label))
	if err != nil {
		t.Fatalf("LabelFromWire: %v", err)
	}
	if gotID != id {
		t.Errorf("id = %v", gotID)
	}
	if gotLabel != label {
		t.Errorf("label = %+v", gotLabel)
	}
}
