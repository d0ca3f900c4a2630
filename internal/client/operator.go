package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/trace2e-io/trace2e/api/trace2ev1"
	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/wireconv"
)

// rpcTimeout bounds simple operator calls. SetDeleted gets a longer
// budget since the node fans out deletion broadcasts before acking.
const (
	rpcTimeout       = 5 * time.Second
	setDeleteTimeout = 30 * time.Second
)

// Operator drives the O2M surface of one node.
type Operator struct {
	conn   *grpc.ClientConn
	client trace2ev1.O2mServiceClient
}

// NewOperator connects to a node's listen address.
func NewOperator(addr string) (*Operator, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		trace2ev1.CallOption())
	if err != nil {
		return nil, fmt.Errorf("client: connect operator to %s: %w", addr, err)
	}
	return &Operator{conn: conn, client: trace2ev1.NewO2mServiceClient(conn)}, nil
}

// Close closes the connection.
func (o *Operator) Close() error { return o.conn.Close() }

// SetConfidentiality toggles local_confidentiality on a resource.
func (o *Operator) SetConfidentiality(r naming.Resource, enabled bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	_, err := o.client.SetConfidentiality(ctx, &trace2ev1.PolicyFlagRequest{
		Resource: wireconv.ResourceToWire(r), Enabled: enabled,
	})
	return err
}

// SetIntegrity toggles local_integrity on a resource.
func (o *Operator) SetIntegrity(r naming.Resource, enabled bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	_, err := o.client.SetIntegrity(ctx, &trace2ev1.PolicyFlagRequest{
		Resource: wireconv.ResourceToWire(r), Enabled: enabled,
	})
	return err
}

// SetDeleted marks a resource deleted and waits for broadcast fan-out.
func (o *Operator) SetDeleted(r naming.Resource) error {
	ctx, cancel := context.WithTimeout(context.Background(), setDeleteTimeout)
	defer cancel()
	_, err := o.client.SetDeleted(ctx, &trace2ev1.DeleteRequest{Resource: wireconv.ResourceToWire(r)})
	return err
}

// EnforceConsent arms the consent gate on a resource.
func (o *Operator) EnforceConsent(r naming.Resource) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	_, err := o.client.EnforceConsent(ctx, &trace2ev1.ConsentEnforceRequest{Resource: wireconv.ResourceToWire(r)})
	return err
}

// SetConsentDecision records a grant or deny for source → destination.
// destResource may be the zero resource for a node-wide decision.
func (o *Operator) SetConsentDecision(source naming.Resource, destNode string, destResource naming.Resource, granted bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	req := &trace2ev1.ConsentDecisionRequest{
		Source:          wireconv.ResourceToWire(source),
		DestinationNode: destNode,
		Decision:        granted,
	}
	if !destResource.IsZero() {
		req.Destination = wireconv.ResourceToWire(destResource)
	}
	_, err := o.client.SetConsentDecision(ctx, req)
	return err
}

// GetReferences returns a resource's lineage as localized resources.
func (o *Operator) GetReferences(r naming.Resource) ([]naming.LocalizedResource, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	resp, err := o.client.GetReferences(ctx, &trace2ev1.ReferencesRequest{Resource: wireconv.ResourceToWire(r)})
	if err != nil {
		return nil, err
	}
	out := make([]naming.LocalizedResource, 0, len(resp.References))
	for _, id := range resp.References {
		lr, err := wireconv.IDFromWire(id)
		if err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, nil
}

// Policy is one resource's labels as reported by GetPolicies.
type Policy struct {
	ID    naming.LocalizedResource
	Label compliance.Label
}

// GetPolicies returns the labels of the given resources.
func (o *Operator) GetPolicies(resources ...naming.Resource) ([]Policy, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	req := &trace2ev1.PoliciesRequest{}
	for _, r := range resources {
		req.Resources = append(req.Resources, wireconv.ResourceToWire(r))
	}
	resp, err := o.client.GetPolicies(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]Policy, 0, len(resp.Policies))
	for _, cl := range resp.Policies {
		id, label, err := wireconv.LabelFromWire(cl)
		if err != nil {
			return nil, err
		}
		out = append(out, Policy{ID: id, Label: label})
	}
	return out, nil
}
