// Package naming defines the canonical resource identities tracked by the
// middleware: files by path, streams by socket pair, processes by
// (pid, starttime, exe). Resources are plain comparable values so they can
// key registry, sequencer, and provenance maps directly.
package naming

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
)

// Kind discriminates the resource variants.
type Kind uint8

const (
	KindNone Kind = iota
	KindFile
	KindStream
	KindProcess
)

// Resource is a tagged variant over the three resource shapes. Two
// resources are the same entity iff the struct values are equal; the zero
// value means "no resource".
type Resource struct {
	Kind Kind

	// File fields.
	Path string

	// Stream fields, "host:port" on both sides.
	LocalSocket string
	PeerSocket  string

	// Process fields.
	Pid       int32
	Starttime uint64
	ExePath   string
}

// NewFile returns a file resource. The path is stored as given, without
// normalization, so enrollments and operator commands must agree on it.
func NewFile(path string) Resource {
	return Resource{Kind: KindFile, Path: path}
}

// NewStream returns a stream resource for the ordered socket pair.
func NewStream(localSocket, peerSocket string) Resource {
	return Resource{Kind: KindStream, LocalSocket: localSocket, PeerSocket: peerSocket}
}

// NewProcess returns a process resource, filling starttime and executable
// path from /proc. A process that cannot be inspected (already gone, or no
// procfs) gets zero metadata, matching the enrollment-time best effort.
func NewProcess(pid int32) Resource {
	r := Resource{Kind: KindProcess, Pid: pid}
	if st, err := procStarttime(pid); err == nil {
		r.Starttime = st
	}
	if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid)); err == nil {
		r.ExePath = exe
	}
	return r
}

// NewProcessMock returns a process resource with zero metadata. Test use.
func NewProcessMock(pid int32) Resource {
	return Resource{Kind: KindProcess, Pid: pid}
}

// IsZero reports whether r is the "no resource" value.
func (r Resource) IsZero() bool { return r.Kind == KindNone }

// IsFile reports whether r is a file resource.
func (r Resource) IsFile() bool { return r.Kind == KindFile }

// IsStream reports whether r is a stream resource.
func (r Resource) IsStream() bool { return r.Kind == KindStream }

// IsProcess reports whether r is a process resource.
func (r Resource) IsProcess() bool { return r.Kind == KindProcess }

// Flip returns the peer's view of a stream (sockets swapped) and true, or
// the zero resource and false for non-streams.
func (r Resource) Flip() (Resource, bool) {
	if r.Kind != KindStream {
		return Resource{}, false
	}
	return NewStream(r.PeerSocket, r.LocalSocket), true
}

// PeerHost returns the host part of a stream's peer socket, or "" for
// non-streams and malformed sockets.
func (r Resource) PeerHost() string {
	if r.Kind != KindStream {
		return ""
	}
	return SocketHost(r.PeerSocket)
}

func (r Resource) String() string {
	switch r.Kind {
	case KindFile:
		return "file:" + r.Path
	case KindStream:
		return "stream:" + r.LocalSocket + "<->" + r.PeerSocket
	case KindProcess:
		return fmt.Sprintf("process:%d@%d:%s", r.Pid, r.Starttime, r.ExePath)
	default:
		return "none"
	}
}

// LocalizedResource qualifies a resource with its owning node.
type LocalizedResource struct {
	Node     string
	Resource Resource
}

func (l LocalizedResource) String() string {
	return l.Node + "/" + l.Resource.String()
}

// ValidSocket reports whether s parses as "host:port" with a numeric
// address on either IP family.
func ValidSocket(s string) bool {
	_, err := netip.ParseAddrPort(s)
	return err == nil
}

// SocketHost returns the address part of "host:port", or "" if malformed.
func SocketHost(s string) string {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return ""
	}
	return ap.Addr().String()
}

// procStarttime reads field 22 (starttime, clock ticks since boot) from
// /proc/<pid>/stat. The comm field may contain spaces and parentheses, so
// parsing starts after the last ')'.
func procStarttime(pid int32) (uint64, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, err
	}
	s := string(data)
	i := strings.LastIndexByte(s, ')')
	if i < 0 {
		return 0, fmt.Errorf("naming: malformed stat for pid %d", pid)
	}
	fields := strings.Fields(s[i+1:])
	// fields[0] is state (field 3); starttime is field 22.
	if len(fields) < 20 {
		return 0, fmt.Errorf("naming: short stat for pid %d", pid)
	}
	return strconv.ParseUint(fields[19], 10, 64)
}
