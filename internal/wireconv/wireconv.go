// Package wireconv translates between the wire messages of api/trace2ev1
// and the kernel types. Both the server handlers and the gRPC clients use
// it, so each shape is converted in exactly one place.
package wireconv

import (
	"fmt"

	"github.com/trace2e-io/trace2e/api/trace2ev1"
	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/provenance"
	"github.com/trace2e-io/trace2e/internal/transport"
)

// ResourceToWire converts a kernel resource.
func ResourceToWire(r naming.Resource) *trace2ev1.Resource {
	switch r.Kind {
	case naming.KindFile:
		return &trace2ev1.Resource{File: &trace2ev1.File{Path: r.Path}}
	case naming.KindStream:
		return &trace2ev1.Resource{Stream: &trace2ev1.Stream{LocalSocket: r.LocalSocket, PeerSocket: r.PeerSocket}}
	case naming.KindProcess:
		return &trace2ev1.Resource{Process: &trace2ev1.Process{Pid: r.Pid, Starttime: r.Starttime, ExePath: r.ExePath}}
	default:
		return &trace2ev1.Resource{}
	}
}

// ResourceFromWire converts a wire resource, rejecting the empty variant.
func ResourceFromWire(r *trace2ev1.Resource) (naming.Resource, error) {
	switch {
	case r == nil:
		return naming.Resource{}, fmt.Errorf("wireconv: missing resource")
	case r.File != nil:
		return naming.NewFile(r.File.Path), nil
	case r.Stream != nil:
		return naming.NewStream(r.Stream.LocalSocket, r.Stream.PeerSocket), nil
	case r.Process != nil:
		return naming.Resource{
			Kind:      naming.KindProcess,
			Pid:       r.Process.Pid,
			Starttime: r.Process.Starttime,
			ExePath:   r.Process.ExePath,
		}, nil
	default:
		return naming.Resource{}, fmt.Errorf("wireconv: empty resource variant")
	}
}

// IDToWire converts a localized resource.
func IDToWire(id naming.LocalizedResource) *trace2ev1.Id {
	return &trace2ev1.Id{Node: id.Node, Resource: ResourceToWire(id.Resource)}
}

// IDFromWire converts a wire id.
func IDFromWire(id *trace2ev1.Id) (naming.LocalizedResource, error) {
	if id == nil {
		return naming.LocalizedResource{}, fmt.Errorf("wireconv: missing id")
	}
	r, err := ResourceFromWire(id.Resource)
	if err != nil {
		return naming.LocalizedResource{}, err
	}
	return naming.LocalizedResource{Node: id.Node, Resource: r}, nil
}

// ProvToWire flattens a lineage into wire ids.
func ProvToWire(p provenance.Prov) []*trace2ev1.Id {
	var out []*trace2ev1.Id
	for node, set := range p {
		for r := range set {
			out = append(out, IDToWire(naming.LocalizedResource{Node: node, Resource: r}))
		}
	}
	return out
}

// ProvFromWire regroups wire ids into a lineage.
func ProvFromWire(ids []*trace2ev1.Id) (provenance.Prov, error) {
	out := make(provenance.Prov)
	for _, id := range ids {
		lr, err := IDFromWire(id)
		if err != nil {
			return nil, err
		}
		set, ok := out[lr.Node]
		if !ok {
			set = make(provenance.Set)
			out[lr.Node] = set
		}
		set[lr.Resource] = struct{}{}
	}
	return out, nil
}

// LabelToWire converts a policy label for an identified resource.
func LabelToWire(id naming.LocalizedResource, l compliance.Label) *trace2ev1.ComplianceLabel {
	return &trace2ev1.ComplianceLabel{
		Identifier:           IDToWire(id),
		LocalConfidentiality: l.Confidential,
		LocalIntegrity:       l.Integrity,
		Deleted:              uint32(l.Deleted),
		ConsentRequired:      l.ConsentRequired,
	}
}

// LabelFromWire converts a wire label record.
func LabelFromWire(cl *trace2ev1.ComplianceLabel) (naming.LocalizedResource, compliance.Label, error) {
	if cl == nil {
		return naming.LocalizedResource{}, compliance.Label{}, fmt.Errorf("wireconv: missing label")
	}
	id, err := IDFromWire(cl.Identifier)
	if err != nil {
		return naming.LocalizedResource{}, compliance.Label{}, err
	}
	return id, compliance.Label{
		Confidential:    cl.LocalConfidentiality,
		Integrity:       cl.LocalIntegrity,
		Deleted:         compliance.DeletionState(cl.Deleted),
		ConsentRequired: cl.ConsentRequired,
	}, nil
}

// PeerLabelsFromWire converts a ReserveRemote answer.
func PeerLabelsFromWire(ls *trace2ev1.Labels) (transport.PeerLabels, error) {
	var out transport.PeerLabels
	if ls == nil {
		return out, fmt.Errorf("wireconv: missing labels")
	}
	if ls.Compliance != nil {
		id, label, err := LabelFromWire(ls.Compliance)
		if err != nil {
			return out, err
		}
		out.Endpoint, out.Label = id, label
	}
	for _, cl := range ls.Provenance {
		id, label, err := LabelFromWire(cl)
		if err != nil {
			return out, err
		}
		out.Provenance = append(out.Provenance, transport.AncestorLabel{ID: id, Label: label})
	}
	return out, nil
}

// PeerLabelsToWire converts a ReserveRemote answer for the wire.
func PeerLabelsToWire(pl transport.PeerLabels) *trace2ev1.Labels {
	out := &trace2ev1.Labels{
		Compliance: LabelToWire(pl.Endpoint, pl.Label),
	}
	for _, al := range pl.Provenance {
		out.Provenance = append(out.Provenance, LabelToWire(al.ID, al.Label))
	}
	return out
}
