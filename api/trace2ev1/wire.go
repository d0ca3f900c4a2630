package trace2ev1

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"
)

// wireMessage is implemented by every message in this package. appendWire
// serializes in protobuf wire format per trace2e.proto; unmarshalWire is
// lenient about unknown fields, as proto3 decoders are.
type wireMessage interface {
	appendWire(b []byte) []byte
	unmarshalWire(b []byte) error
}

var errWireType = errors.New("trace2ev1: unexpected wire type")

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendInt32(b []byte, num protowire.Number, v int32) []byte {
	return appendVarintField(b, num, uint64(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendVarintField(b, num, 1)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, m wireMessage) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.appendWire(nil))
}

// decoder walks one message body field by field.
type decoder struct {
	buf []byte
	typ protowire.Type
	err error
}

func (d *decoder) next() (protowire.Number, bool) {
	if d.err != nil || len(d.buf) == 0 {
		return 0, false
	}
	num, typ, n := protowire.ConsumeTag(d.buf)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return 0, false
	}
	d.buf = d.buf[n:]
	d.typ = typ
	return num, true
}

func (d *decoder) varint() uint64 {
	if d.err != nil {
		return 0
	}
	if d.typ != protowire.VarintType {
		d.err = errWireType
		return 0
	}
	v, n := protowire.ConsumeVarint(d.buf)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

func (d *decoder) int32() int32 {
	return int32(int64(d.varint()))
}

func (d *decoder) bool() bool {
	return d.varint() != 0
}

func (d *decoder) bytes() []byte {
	if d.err != nil {
		return nil
	}
	if d.typ != protowire.BytesType {
		d.err = errWireType
		return nil
	}
	v, n := protowire.ConsumeBytes(d.buf)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return nil
	}
	d.buf = d.buf[n:]
	return v
}

func (d *decoder) string() string {
	return string(d.bytes())
}

func (d *decoder) message(m wireMessage) {
	body := d.bytes()
	if d.err != nil {
		return
	}
	if err := m.unmarshalWire(body); err != nil {
		d.err = err
	}
}

func (d *decoder) skip(num protowire.Number) {
	if d.err != nil {
		return
	}
	n := protowire.ConsumeFieldValue(num, d.typ, d.buf)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return
	}
	d.buf = d.buf[n:]
}

func (m *LocalCt) appendWire(b []byte) []byte {
	b = appendInt32(b, 1, m.ProcessId)
	b = appendInt32(b, 2, m.FileDescriptor)
	b = appendString(b, 3, m.Path)
	return b
}

func (m *LocalCt) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.ProcessId = d.int32()
		case 2:
			m.FileDescriptor = d.int32()
		case 3:
			m.Path = d.string()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *RemoteCt) appendWire(b []byte) []byte {
	b = appendInt32(b, 1, m.ProcessId)
	b = appendInt32(b, 2, m.FileDescriptor)
	b = appendString(b, 3, m.LocalSocket)
	b = appendString(b, 4, m.PeerSocket)
	return b
}

func (m *RemoteCt) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.ProcessId = d.int32()
		case 2:
			m.FileDescriptor = d.int32()
		case 3:
			m.LocalSocket = d.string()
		case 4:
			m.PeerSocket = d.string()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *IoInfo) appendWire(b []byte) []byte {
	b = appendInt32(b, 1, m.ProcessId)
	b = appendInt32(b, 2, m.FileDescriptor)
	b = appendVarintField(b, 3, uint64(m.Flow))
	return b
}

func (m *IoInfo) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.ProcessId = d.int32()
		case 2:
			m.FileDescriptor = d.int32()
		case 3:
			m.Flow = Flow(d.int32())
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *IoResult) appendWire(b []byte) []byte {
	b = appendInt32(b, 1, m.ProcessId)
	b = appendInt32(b, 2, m.FileDescriptor)
	b = appendVarintField(b, 3, m.GrantId)
	b = appendBool(b, 4, m.Result)
	return b
}

func (m *IoResult) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.ProcessId = d.int32()
		case 2:
			m.FileDescriptor = d.int32()
		case 3:
			m.GrantId = d.varint()
		case 4:
			m.Result = d.bool()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *Grant) appendWire(b []byte) []byte {
	return appendVarintField(b, 1, m.Id)
}

func (m *Grant) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Id = d.varint()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *Ack) appendWire(b []byte) []byte { return b }

func (m *Ack) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		d.skip(num)
	}
	return d.err
}

func (m *HandleRef) appendWire(b []byte) []byte {
	b = appendInt32(b, 1, m.ProcessId)
	b = appendInt32(b, 2, m.FileDescriptor)
	return b
}

func (m *HandleRef) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.ProcessId = d.int32()
		case 2:
			m.FileDescriptor = d.int32()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *File) appendWire(b []byte) []byte {
	return appendString(b, 1, m.Path)
}

func (m *File) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Path = d.string()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *Stream) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.LocalSocket)
	b = appendString(b, 2, m.PeerSocket)
	return b
}

func (m *Stream) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.LocalSocket = d.string()
		case 2:
			m.PeerSocket = d.string()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *Process) appendWire(b []byte) []byte {
	b = appendInt32(b, 1, m.Pid)
	b = appendVarintField(b, 2, m.Starttime)
	b = appendString(b, 3, m.ExePath)
	return b
}

func (m *Process) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Pid = d.int32()
		case 2:
			m.Starttime = d.varint()
		case 3:
			m.ExePath = d.string()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *Resource) appendWire(b []byte) []byte {
	switch {
	case m.File != nil:
		b = appendMessage(b, 1, m.File)
	case m.Stream != nil:
		b = appendMessage(b, 2, m.Stream)
	case m.Process != nil:
		b = appendMessage(b, 3, m.Process)
	}
	return b
}

func (m *Resource) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.File, m.Stream, m.Process = new(File), nil, nil
			d.message(m.File)
		case 2:
			m.File, m.Stream, m.Process = nil, new(Stream), nil
			d.message(m.Stream)
		case 3:
			m.File, m.Stream, m.Process = nil, nil, new(Process)
			d.message(m.Process)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *Id) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Node)
	if m.Resource != nil {
		b = appendMessage(b, 2, m.Resource)
	}
	return b
}

func (m *Id) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Node = d.string()
		case 2:
			m.Resource = new(Resource)
			d.message(m.Resource)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *ComplianceLabel) appendWire(b []byte) []byte {
	if m.Identifier != nil {
		b = appendMessage(b, 1, m.Identifier)
	}
	b = appendBool(b, 2, m.LocalConfidentiality)
	b = appendBool(b, 3, m.LocalIntegrity)
	b = appendVarintField(b, 4, uint64(m.Deleted))
	b = appendBool(b, 5, m.ConsentRequired)
	return b
}

func (m *ComplianceLabel) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Identifier = new(Id)
			d.message(m.Identifier)
		case 2:
			m.LocalConfidentiality = d.bool()
		case 3:
			m.LocalIntegrity = d.bool()
		case 4:
			m.Deleted = uint32(d.varint())
		case 5:
			m.ConsentRequired = d.bool()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *Labels) appendWire(b []byte) []byte {
	if m.Compliance != nil {
		b = appendMessage(b, 1, m.Compliance)
	}
	for _, l := range m.Provenance {
		b = appendMessage(b, 2, l)
	}
	return b
}

func (m *Labels) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Compliance = new(ComplianceLabel)
			d.message(m.Compliance)
		case 2:
			l := new(ComplianceLabel)
			d.message(l)
			m.Provenance = append(m.Provenance, l)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *ReserveRequest) appendWire(b []byte) []byte {
	if m.Stream != nil {
		b = appendMessage(b, 1, m.Stream)
	}
	return b
}

func (m *ReserveRequest) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Stream = new(Stream)
			d.message(m.Stream)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *StreamProv) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.LocalSocket)
	b = appendString(b, 2, m.PeerSocket)
	for _, id := range m.Provenance {
		b = appendMessage(b, 3, id)
	}
	return b
}

func (m *StreamProv) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.LocalSocket = d.string()
		case 2:
			m.PeerSocket = d.string()
		case 3:
			id := new(Id)
			d.message(id)
			m.Provenance = append(m.Provenance, id)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *EvalRequest) appendWire(b []byte) []byte {
	for _, id := range m.Ancestors {
		b = appendMessage(b, 1, id)
	}
	if m.Destination != nil {
		b = appendMessage(b, 2, m.Destination)
	}
	return b
}

func (m *EvalRequest) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			id := new(Id)
			d.message(id)
			m.Ancestors = append(m.Ancestors, id)
		case 2:
			m.Destination = new(Id)
			d.message(m.Destination)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *Verdict) appendWire(b []byte) []byte {
	b = appendBool(b, 1, m.Allow)
	b = appendString(b, 2, m.Reason)
	return b
}

func (m *Verdict) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Allow = d.bool()
		case 2:
			m.Reason = d.string()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *DeletionNotice) appendWire(b []byte) []byte {
	if m.Resource != nil {
		b = appendMessage(b, 1, m.Resource)
	}
	return b
}

func (m *DeletionNotice) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Resource = new(Id)
			d.message(m.Resource)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *ConsentNotice) appendWire(b []byte) []byte {
	if m.Source != nil {
		b = appendMessage(b, 1, m.Source)
	}
	if m.Destination != nil {
		b = appendMessage(b, 2, m.Destination)
	}
	return b
}

func (m *ConsentNotice) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Source = new(Id)
			d.message(m.Source)
		case 2:
			m.Destination = new(Id)
			d.message(m.Destination)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *ConsentVerdict) appendWire(b []byte) []byte {
	return appendVarintField(b, 1, uint64(m.Decision))
}

func (m *ConsentVerdict) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Decision = uint32(d.varint())
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *PolicyFlagRequest) appendWire(b []byte) []byte {
	if m.Resource != nil {
		b = appendMessage(b, 1, m.Resource)
	}
	b = appendBool(b, 2, m.Enabled)
	return b
}

func (m *PolicyFlagRequest) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Resource = new(Resource)
			d.message(m.Resource)
		case 2:
			m.Enabled = d.bool()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *DeleteRequest) appendWire(b []byte) []byte {
	if m.Resource != nil {
		b = appendMessage(b, 1, m.Resource)
	}
	return b
}

func (m *DeleteRequest) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Resource = new(Resource)
			d.message(m.Resource)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *ConsentEnforceRequest) appendWire(b []byte) []byte {
	if m.Resource != nil {
		b = appendMessage(b, 1, m.Resource)
	}
	return b
}

func (m *ConsentEnforceRequest) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Resource = new(Resource)
			d.message(m.Resource)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *ConsentDecisionRequest) appendWire(b []byte) []byte {
	if m.Source != nil {
		b = appendMessage(b, 1, m.Source)
	}
	b = appendString(b, 2, m.DestinationNode)
	if m.Destination != nil {
		b = appendMessage(b, 3, m.Destination)
	}
	b = appendBool(b, 4, m.Decision)
	return b
}

func (m *ConsentDecisionRequest) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Source = new(Resource)
			d.message(m.Source)
		case 2:
			m.DestinationNode = d.string()
		case 3:
			m.Destination = new(Resource)
			d.message(m.Destination)
		case 4:
			m.Decision = d.bool()
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *ReferencesRequest) appendWire(b []byte) []byte {
	if m.Resource != nil {
		b = appendMessage(b, 1, m.Resource)
	}
	return b
}

func (m *ReferencesRequest) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m.Resource = new(Resource)
			d.message(m.Resource)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *References) appendWire(b []byte) []byte {
	for _, id := range m.References {
		b = appendMessage(b, 1, id)
	}
	return b
}

func (m *References) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			id := new(Id)
			d.message(id)
			m.References = append(m.References, id)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *PoliciesRequest) appendWire(b []byte) []byte {
	for _, r := range m.Resources {
		b = appendMessage(b, 1, r)
	}
	return b
}

func (m *PoliciesRequest) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			r := new(Resource)
			d.message(r)
			m.Resources = append(m.Resources, r)
		default:
			d.skip(num)
		}
	}
	return d.err
}

func (m *PolicyList) appendWire(b []byte) []byte {
	for _, l := range m.Policies {
		b = appendMessage(b, 1, l)
	}
	return b
}

func (m *PolicyList) unmarshalWire(b []byte) error {
	d := decoder{buf: b}
	for {
		num, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			l := new(ComplianceLabel)
			d.message(l)
			m.Policies = append(m.Policies, l)
		default:
			d.skip(num)
		}
	}
	return d.err
}
