// SPDX-License-Identifier: GPL-3.0-or-later

// Package mdnsquery builds and exchanges multicast DNS service discovery queries.
//
// [BuildQuery] and [*Query] construct the wire bytes of a single-question
// PTR query, by default for [ServiceName]. The encoder is written by hand so
// that the output is byte-exact and allocation-bounded. [ParseResponse] and
// [*Response] unpack and validate the answers, and [Exchange] sends a query
// over a [net.PacketConn] and collects the responses.
//
// Decoding uses [github.com/miekg/dns] types. We also use miekg/dns to
// decode our own queries in [*Query.NewMsg] as an independent self-check.
package mdnsquery
