// SPDX-License-Identifier: GPL-3.0-or-later

package mdnsquery

import (
	"context"
	"errors"
	"net"
	"os"
	"time"
)

// MulticastAddrIPv4 is the IPv4 multicast DNS group address and port.
var MulticastAddrIPv4 = &net.UDPAddr{
	IP:   net.IPv4(224, 0, 0, 251),
	Port: 5353,
}

// maxMessageSize is the maximum size of a multicast DNS message
// including the IP and UDP headers (RFC 6762 Section 17).
const maxMessageSize = 9000

// Exchange sends query to addr using conn and collects the responses
// pertinent to service until the context is done.
//
// Datagrams that cannot be parsed, that are not valid responses, or
// that do not answer for the service are silently ignored.
//
// When the context has a deadline, reaching it is the normal way to
// terminate and this function returns the collected responses with a nil
// error. Otherwise, this function returns the collected responses along
// with the context error once the context is done.
//
// This function does not close conn and clears its read deadline
// before returning, hence conn may be reused for further exchanges.
func Exchange(ctx context.Context, conn net.PacketConn,
	addr net.Addr, service string, query []byte) ([]*Response, error) {
	// 1. honour the context while blocked in I/O
	deadline, _ := ctx.Deadline()
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer func() {
		if !stop() {
			<-fired
		}
		conn.SetReadDeadline(time.Time{})
	}()

	// 2. send the query
	if _, err := conn.WriteTo(query, addr); err != nil {
		return nil, err
	}

	// 3. collect the responses
	responses := []*Response{}
	buffer := make([]byte, maxMessageSize)
	for {
		count, _, err := conn.ReadFrom(buffer)
		if err != nil {
			if !errors.Is(err, os.ErrDeadlineExceeded) {
				return responses, err
			}
			if ctx.Err() == nil || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return responses, nil
			}
			return responses, ctx.Err()
		}
		resp, err := ParseResponse(service, buffer[:count])
		if err != nil {
			continue
		}
		responses = append(responses, resp)
	}
}
