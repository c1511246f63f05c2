//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/encoder.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/query.go
//

package mdnsquery

import (
	"fmt"

	"github.com/bassosimone/runtimex"
	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

const (
	// ServiceName is the fully qualified name of the discovered service.
	ServiceName = "_p2p._udp.local."

	// QueryPacketSize is the size of the packet emitted by [BuildQuery].
	QueryPacketSize = 33
)

const (
	// QueryFlagUnicastResponse sets the unicast-response bit in the question
	// class, asking responders to reply directly (RFC 6762 Section 5.4).
	QueryFlagUnicastResponse = 1 << iota
)

// classUnicastResponse is the top bit of the question class.
const classUnicastResponse = 1 << 15

// IDSource returns a 16-bit transaction ID for each query.
//
// Implementations used across goroutines must be safe for concurrent use.
type IDSource func() uint16

// RandomID is the default [IDSource], which uses [dns.Id].
var RandomID IDSource = dns.Id

// FixedID returns an [IDSource] always returning value.
func FixedID(value uint16) IDSource {
	return func() uint16 {
		return value
	}
}

// Query is a single-question DNS query.
//
// Construct using [NewQuery] or set the MANDATORY fields.
type Query struct {
	// Flags OPTIONALLY modify the query.
	//
	// Use [QueryFlagUnicastResponse].
	Flags uint16

	// ID is the OPTIONAL query ID.
	ID uint16

	// Name is the MANDATORY ASCII domain name to query.
	Name string

	// Type is the MANDATORY query type.
	Type uint16

	// Class is the MANDATORY query class.
	Class uint16
}

// NewQuery constructs a new [*Query] for the PTR records of the given service.
//
// The query uses a randomized ID and the IN class.
func NewQuery(service string) *Query {
	return &Query{
		Flags: 0,
		ID:    dns.Id(),
		Name:  service,
		Type:  dns.TypePTR,
		Class: dns.ClassINET,
	}
}

// Clone returns a deep copy of the query.
func (q *Query) Clone() *Query {
	return &Query{
		Flags: q.Flags,
		ID:    q.ID,
		Name:  q.Name,
		Type:  q.Type,
		Class: q.Class,
	}
}

// Pack serializes the query to its wire format.
//
// The header carries the query ID, zero flags, one question and no
// answer, authority or additional records.
func (q *Query) Pack() ([]byte, error) {
	out := make([]byte, 0, QueryPacketSize)

	// 1. header
	out = appendUint16(out, q.ID)
	out = appendUint16(out, 0x0000) // standard query
	out = appendUint16(out, 1)      // questions
	out = appendUint16(out, 0)      // answers
	out = appendUint16(out, 0)      // authorities
	out = appendUint16(out, 0)      // additionals

	// 2. question
	out, err := AppendQName(out, q.Name)
	if err != nil {
		return nil, err
	}
	out = appendUint16(out, q.Type)
	out = appendUint16(out, q.wireClass())

	return out, nil
}

// NewMsg packs the query and decodes it again as a [*dns.Msg].
//
// Decoding through an independent parser checks that the packed
// query is well formed and has the expected shape. The decoded
// question must match the query and the decoder must consume the
// whole packet, otherwise this method returns [ErrInvalidQuery].
func (q *Query) NewMsg() (*dns.Msg, error) {
	raw, err := q.Pack()
	if err != nil {
		return nil, err
	}
	msg := new(dns.Msg)
	if err := msg.Unpack(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotUnmarshalMessage, err)
	}
	if err := ValidateQuery(msg); err != nil {
		return nil, err
	}
	if !q.matchesMsg(msg, len(raw)) {
		return nil, ErrInvalidQuery
	}
	return msg, nil
}

// matchesMsg returns whether msg, decoded from size bytes, carries
// the same question that [*Query.Pack] emitted.
func (q *Query) matchesMsg(msg *dns.Msg, size int) bool {
	q0 := msg.Question[0]
	return responseEqualASCIIName(q0.Name, dns.Fqdn(q.Name)) &&
		q0.Qtype == q.Type &&
		q0.Qclass == q.wireClass() &&
		msg.Len() == size
}

// wireClass returns the question class including the flag bits.
func (q *Query) wireClass() uint16 {
	class := q.Class
	if q.Flags&QueryFlagUnicastResponse != 0 {
		class |= classUnicastResponse
	}
	return class
}

// ValidateQuery returns [ErrInvalidQuery] unless msg is a query
// containing exactly one question and no other records.
func ValidateQuery(msg *dns.Msg) error {
	switch {
	case msg.Response,
		msg.Opcode != dns.OpcodeQuery,
		len(msg.Question) != 1,
		len(msg.Answer) != 0,
		len(msg.Ns) != 0,
		len(msg.Extra) != 0:
		return ErrInvalidQuery
	default:
		return nil
	}
}

// BuildQuery builds the PTR query for [ServiceName] using a
// transaction ID obtained by calling newID exactly once.
//
// Apart from the first two bytes, the output is always the same.
func BuildQuery(newID IDSource) ([]byte, error) {
	query := &Query{
		ID:    newID(),
		Name:  ServiceName,
		Type:  dns.TypePTR,
		Class: dns.ClassINET,
	}
	return query.Pack()
}

// MustBuildQuery is like [BuildQuery] but panics on error.
func MustBuildQuery(newID IDSource) []byte {
	return runtimex.PanicOnError1(BuildQuery(newID))
}

// NormalizeServiceName converts name to its ASCII form and
// ensures that it is fully qualified.
//
// Service labels start with an underscore, which the STD3 rules
// reject, hence we use the plain punycode profile.
func NormalizeServiceName(name string) (string, error) {
	asciiName, err := idna.Punycode.ToASCII(name)
	if err != nil {
		return "", err
	}
	return dns.Fqdn(asciiName), nil
}
