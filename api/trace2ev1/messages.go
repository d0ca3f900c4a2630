// Package trace2ev1 holds the wire types for the three trace2e RPC surfaces
// (P2M, M2M, O2M) together with their hand-maintained protobuf encoding and
// gRPC service bindings.
//
// The authoritative field numbers live in api/proto/trace2e/v1/trace2e.proto.
// The bindings here are maintained by hand so the module builds without a
// protoc step; messages are encoded with the protowire package and carried
// over gRPC with the codec registered in codec.go.
package trace2ev1

import "math"

// DenialSentinel is the grant id returned by P2mService.IoRequest when the
// requested flow is refused by policy. Every other grant id is strictly
// smaller. Clients must treat a Grant carrying this value as a denial, not
// as a usable grant.
const DenialSentinel uint64 = math.MaxUint64

// Flow direction carried by IoInfo.
type Flow int32

const (
	FlowNone   Flow = 0
	FlowInput  Flow = 1
	FlowOutput Flow = 2
)

// DeletionState values carried in ComplianceLabel.Deleted.
const (
	DeletedNone      uint32 = 0
	DeletedPending   uint32 = 1
	DeletedConfirmed uint32 = 2
)

// ConsentVerdict.Decision values.
const (
	ConsentUnset   uint32 = 0
	ConsentGranted uint32 = 1
	ConsentDenied  uint32 = 2
)

// LocalCt enrolls a file handle.
type LocalCt struct {
	ProcessId      int32
	FileDescriptor int32
	Path           string
}

// RemoteCt enrolls a stream handle.
type RemoteCt struct {
	ProcessId      int32
	FileDescriptor int32
	LocalSocket    string
	PeerSocket     string
}

// IoInfo requests authorization for one I/O operation on a handle.
type IoInfo struct {
	ProcessId      int32
	FileDescriptor int32
	Flow           Flow
}

// IoResult reports the outcome of a granted I/O operation.
type IoResult struct {
	ProcessId      int32
	FileDescriptor int32
	GrantId        uint64
	Result         bool
}

// Grant carries the grant id for an authorized flow, or DenialSentinel.
type Grant struct {
	Id uint64
}

// Ack is the empty acknowledgment.
type Ack struct{}

// HandleRef names a (pid, fd) handle for retirement.
type HandleRef struct {
	ProcessId      int32
	FileDescriptor int32
}

// File is the file resource variant.
type File struct {
	Path string
}

// Stream is the socket-pair resource variant.
type Stream struct {
	LocalSocket string
	PeerSocket  string
}

// Process is the process resource variant.
type Process struct {
	Pid       int32
	Starttime uint64
	ExePath   string
}

// Resource is the tagged resource variant; exactly one field is set.
type Resource struct {
	File    *File
	Stream  *Stream
	Process *Process
}

// Id is a resource qualified by its owning node.
type Id struct {
	Node     string
	Resource *Resource
}

// ComplianceLabel is the policy record attached to one identified resource.
type ComplianceLabel struct {
	Identifier           *Id
	LocalConfidentiality bool
	LocalIntegrity       bool
	Deleted              uint32
	ConsentRequired      bool
}

// Labels is the ReserveRemote response: the reserved endpoint's own label
// plus labels for its provenance snapshot.
type Labels struct {
	Compliance *ComplianceLabel
	Provenance []*ComplianceLabel
}

// ReserveRequest reserves the peer end of a stream.
type ReserveRequest struct {
	Stream *Stream
}

// StreamProv merges lineage into the peer's copy of a stream resource.
type StreamProv struct {
	LocalSocket string
	PeerSocket  string
	Provenance  []*Id
}

// EvalRequest asks a peer to evaluate its share of a flow's ancestry.
type EvalRequest struct {
	Ancestors   []*Id
	Destination *Id
}

// Verdict is the peer's compliance answer.
type Verdict struct {
	Allow  bool
	Reason string
}

// DeletionNotice marks a remote resource deleted on the receiving node.
type DeletionNotice struct {
	Resource *Id
}

// ConsentNotice routes a consent request to the resource owner's node.
type ConsentNotice struct {
	Source      *Id
	Destination *Id
}

// ConsentVerdict is the owner's answer to a ConsentNotice.
type ConsentVerdict struct {
	Decision uint32
}

// PolicyFlagRequest toggles a boolean policy flag on a resource.
type PolicyFlagRequest struct {
	Resource *Resource
	Enabled  bool
}

// DeleteRequest marks a resource deleted.
type DeleteRequest struct {
	Resource *Resource
}

// ConsentEnforceRequest arms consent on a resource.
type ConsentEnforceRequest struct {
	Resource *Resource
}

// ConsentDecisionRequest records an operator consent decision for a
// (source, destination) pair. Destination may be a node, a resource, or
// both (a resource qualified by its node).
type ConsentDecisionRequest struct {
	Source          *Resource
	DestinationNode string
	Destination     *Resource
	Decision        bool
}

// ReferencesRequest queries a resource's lineage.
type ReferencesRequest struct {
	Resource *Resource
}

// References is the lineage answer.
type References struct {
	References []*Id
}

// PoliciesRequest queries policy labels for a set of resources.
type PoliciesRequest struct {
	Resources []*Resource
}

// PolicyList is the policy answer.
type PolicyList struct {
	Policies []*ComplianceLabel
}
