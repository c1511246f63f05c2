//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/decoder.go
// Adapted from: https://github.com/golang/go/blob/go1.21.10/src/net/dnsclient_unix.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/response.go
//

package mdnsquery

import (
	"errors"
	"fmt"

	"github.com/miekg/dns"
)

// ErrInvalidQuery means that the query does not contain a single question,
// contains answer, authority or additional records, or does not decode
// to the question that was encoded.
var ErrInvalidQuery = errors.New("invalid query")

// These error messages use the same suffixes used by the Go standard library.
var (
	// ErrCannotUnmarshalMessage indicates that we cannot unmarshal a DNS message.
	ErrCannotUnmarshalMessage = errors.New("cannot unmarshal DNS message")

	// ErrInvalidResponse means that the message is not a standard query response.
	ErrInvalidResponse = errors.New("invalid DNS response")

	// ErrServerMisbehaving indicates that the response code is not zero.
	ErrServerMisbehaving = errors.New("server misbehaving")

	// ErrNoData indicates that there is no pertinent answer in the response.
	ErrNoData = errors.New("no answer from DNS server")
)

// classCacheFlush is the top bit of a multicast resource record class.
const classCacheFlush = 1 << 15

// ValidateResponse validates a multicast DNS response.
//
// Multicast responses are not required to echo the query ID or
// question, so we only check the header (RFC 6762 Section 18).
func ValidateResponse(resp *dns.Msg) error {
	if !resp.Response {
		return ErrInvalidResponse
	}
	if resp.Opcode != dns.OpcodeQuery {
		return ErrInvalidResponse
	}
	return ResponseErrorFromRCODE(resp)
}

// ResponseErrorFromRCODE returns [ErrServerMisbehaving] if the
// response code is not zero and nil otherwise.
//
// Responders MUST send a zero RCODE, so there is no point in mapping
// the various unicast DNS failure codes to distinct errors.
func ResponseErrorFromRCODE(resp *dns.Msg) error {
	if resp.Rcode != dns.RcodeSuccess {
		return ErrServerMisbehaving
	}
	return nil
}

// SPDX-License-Identifier: BSD-3-Clause
//
// Borrowed from Go src/net package.
func responseEqualASCIIName(x, y string) bool {
	if len(x) != len(y) {
		return false
	}
	for i := 0; i < len(x); i++ {
		a := x[i]
		b := y[i]
		if 'A' <= a && a <= 'Z' {
			a += 0x20
		}
		if 'A' <= b && b <= 'Z' {
			b += 0x20
		}
		if a != b {
			return false
		}
	}
	return true
}

func responseCanonicalName(name string) string {
	return dns.CanonicalName(name)
}

// responseClassIsINET returns whether the record class, ignoring
// the cache-flush bit, is the IN class.
func responseClassIsINET(header *dns.RR_Header) bool {
	return header.Class&^classCacheFlush == dns.ClassINET
}

// ResponseExtractValidAnswers extracts the records pertinent to the
// given service from both the answer and additional sections.
//
// The PTR records owned by the service name determine the service
// instances. Then we keep the SRV and TXT records owned by an instance
// and the A and AAAA records owned by an SRV target.
//
// The list of valid RRs is returned in the same order as they appear
// in the response message, answers first. If the response does not
// contain any PTR record for the service, this function returns [ErrNoData].
func ResponseExtractValidAnswers(service string, resp *dns.Msg) ([]dns.RR, error) {
	records := make([]dns.RR, 0, len(resp.Answer)+len(resp.Extra))
	records = append(records, resp.Answer...)
	records = append(records, resp.Extra...)
	service = dns.Fqdn(service)

	// 1. Find the service instances.
	instances := make(map[string]bool)
	for _, rr := range records {
		if ptr, ok := rr.(*dns.PTR); ok {
			header := ptr.Header()
			if responseEqualASCIIName(service, header.Name) && responseClassIsINET(header) {
				instances[responseCanonicalName(ptr.Ptr)] = true
			}
		}
	}
	if len(instances) < 1 {
		return nil, ErrNoData
	}

	// 2. Find the hosts providing the instances.
	targets := make(map[string]bool)
	for _, rr := range records {
		if srv, ok := rr.(*dns.SRV); ok {
			header := srv.Header()
			if instances[responseCanonicalName(header.Name)] && responseClassIsINET(header) {
				targets[responseCanonicalName(srv.Target)] = true
			}
		}
	}

	// 3. Keep only the pertinent records.
	valid := []dns.RR{}
	for _, rr := range records {
		header := rr.Header()
		if !responseClassIsINET(header) {
			continue
		}
		owner := responseCanonicalName(header.Name)
		switch rr.(type) {
		case *dns.PTR:
			if !responseEqualASCIIName(service, header.Name) {
				continue
			}
		case *dns.SRV, *dns.TXT:
			if !instances[owner] {
				continue
			}
		case *dns.A, *dns.AAAA:
			if !targets[owner] {
				continue
			}
		default:
			continue
		}
		valid = append(valid, rr)
	}
	return valid, nil
}

// Response is a multicast DNS response.
//
// Construct a new instance using [ParseResponse].
type Response struct {
	// Response is the response message.
	Response *dns.Msg

	// Service is the fully qualified service name.
	Service string

	// ValidRRs contains the valid RRs for the service.
	ValidRRs []dns.RR
}

// ParseResponse unpacks raw and returns a [*Response] containing the
// records pertinent to service or an error if raw is not a valid response.
func ParseResponse(service string, raw []byte) (*Response, error) {
	resp := new(dns.Msg)
	if err := resp.Unpack(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotUnmarshalMessage, err)
	}

	if err := ValidateResponse(resp); err != nil {
		return nil, err
	}

	rrs, err := ResponseExtractValidAnswers(service, resp)
	if err != nil {
		return nil, err
	}

	rp := &Response{
		Response: resp,
		Service:  dns.Fqdn(service),
		ValidRRs: rrs,
	}
	return rp, nil
}

// RecordsPTR returns the service instance names in the response.
func (r *Response) RecordsPTR() ([]string, error) {
	out := make([]string, 0, len(r.ValidRRs))
	for _, rr := range r.ValidRRs {
		switch rr := rr.(type) {
		case *dns.PTR:
			out = append(out, rr.Ptr)
		}
	}
	if len(out) < 1 {
		return nil, ErrNoData
	}
	return out, nil
}

// RecordsSRV returns all the SRV records in the response.
func (r *Response) RecordsSRV() ([]*dns.SRV, error) {
	out := make([]*dns.SRV, 0, len(r.ValidRRs))
	for _, rr := range r.ValidRRs {
		switch rr := rr.(type) {
		case *dns.SRV:
			out = append(out, rr)
		}
	}
	if len(out) < 1 {
		return nil, ErrNoData
	}
	return out, nil
}

// RecordsA returns all the A records in the response.
func (r *Response) RecordsA() ([]string, error) {
	out := make([]string, 0, len(r.ValidRRs))
	for _, rr := range r.ValidRRs {
		switch rr := rr.(type) {
		case *dns.A:
			out = append(out, rr.A.String())
		}
	}
	if len(out) < 1 {
		return nil, ErrNoData
	}
	return out, nil
}

// RecordsAAAA returns all the AAAA records in the response.
func (r *Response) RecordsAAAA() ([]string, error) {
	out := make([]string, 0, len(r.ValidRRs))
	for _, rr := range r.ValidRRs {
		switch rr := rr.(type) {
		case *dns.AAAA:
			out = append(out, rr.AAAA.String())
		}
	}
	if len(out) < 1 {
		return nil, ErrNoData
	}
	return out, nil
}
