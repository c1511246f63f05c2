// SPDX-License-Identifier: GPL-3.0-or-later

// Command mdnsquery builds a multicast DNS service discovery query,
// prints it and optionally sends it to the local network.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/bassosimone/mdnsquery"
	"golang.org/x/net/ipv4"
)

func main() {
	service := flag.String("service", mdnsquery.ServiceName, "service name to discover")
	send := flag.Bool("send", false, "send the query and print the responses")
	timeout := flag.Duration("timeout", 2*time.Second, "time to wait for responses")
	unicast := flag.Bool("unicast", false, "ask responders for unicast responses")
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("mdnsquery: ")

	name, err := mdnsquery.NormalizeServiceName(*service)
	if err != nil {
		log.Fatalf("invalid service name %q: %s", *service, err)
	}

	query := mdnsquery.NewQuery(name)
	query.ID = mdnsquery.RandomID()
	if *unicast {
		query.Flags |= mdnsquery.QueryFlagUnicastResponse
	}
	msg, err := query.NewMsg()
	if err != nil {
		log.Fatalf("cannot build query: %s", err)
	}
	packet, err := query.Pack()
	if err != nil {
		log.Fatalf("cannot build query: %s", err)
	}
	fmt.Printf("%x\n\n%s\n", packet, msg.String())

	if !*send {
		return
	}
	if err := discover(name, packet, *timeout); err != nil {
		log.Fatal(err)
	}
}

// discover sends packet to the IPv4 multicast group and
// prints the responses received before the timeout.
func discover(service string, packet []byte, timeout time.Duration) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return err
	}
	defer conn.Close()

	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.SetMulticastTTL(255); err != nil {
		return err
	}
	if err := pconn.SetMulticastLoopback(true); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	responses, err := mdnsquery.Exchange(ctx, conn, mdnsquery.MulticastAddrIPv4, service, packet)
	if err != nil {
		return err
	}
	log.Printf("got %d response(s)", len(responses))

	for _, resp := range responses {
		lines, err := describe(resp)
		if err != nil {
			log.Print(err)
		}
		for _, line := range lines {
			fmt.Println(line)
		}
	}
	return nil
}

// errNoAddresses indicates that a response names instances without
// carrying any address for them.
var errNoAddresses = errors.New("no addresses for the discovered instances")

// describe returns one line per instance in resp. When resp carries
// no address, it also returns an error wrapping [errNoAddresses].
func describe(resp *mdnsquery.Response) ([]string, error) {
	instances, err := resp.RecordsPTR()
	if err != nil {
		return nil, err
	}
	addrs, errA := resp.RecordsA()
	addrs6, errAAAA := resp.RecordsAAAA()
	lines := make([]string, 0, len(instances))
	for _, instance := range instances {
		lines = append(lines, fmt.Sprintf("%s %v %v", instance, addrs, addrs6))
	}
	if errors.Is(errA, mdnsquery.ErrNoData) && errors.Is(errAAAA, mdnsquery.ErrNoData) {
		return lines, fmt.Errorf("%w: %v", errNoAddresses, instances)
	}
	return lines, nil
}
