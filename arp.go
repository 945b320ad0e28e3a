// Package arptest implements a single-shot ARP probe, as described in RFC 826.
//
// A probe broadcasts one ARP request for an IPv4 address on a link-layer
// datagram socket and waits a bounded time for the reply which answers it.
package arptest

import (
	"errors"
	"strconv"
)

// An Operation is an ARP operation, such as request or reply.
type Operation uint16

// Operation constants which indicate an ARP request or reply.
const (
	OperationRequest Operation = 1
	OperationReply   Operation = 2
)

const (
	// hardwareTypeEthernet is the IANA-assigned hardware type for Ethernet.
	hardwareTypeEthernet = 1

	// macLen and ipLen are the address lengths of an Ethernet/IPv4 packet.
	macLen = 6
	ipLen  = 4

	// packetLen is the encoded length of an Ethernet/IPv4 ARP packet.
	packetLen = 2 + 2 + 1 + 1 + 2 + macLen + ipLen + macLen + ipLen
)

var (
	// ErrInvalidHardwareAddr is returned when a hardware address is not a
	// 6 byte Ethernet MAC address.
	ErrInvalidHardwareAddr = errors.New("invalid hardware address")

	// ErrInvalidIP is returned when an IP address is not an IPv4 address.
	ErrInvalidIP = errors.New("invalid IPv4 address")

	// ErrNoHardwareAddr is returned by Listen when the kernel reports no
	// link-layer address for the interface.
	ErrNoHardwareAddr = errors.New("interface has no link-layer address")

	// ErrNotFound is returned by Probe when no matching reply arrived before
	// the timeout expired.
	ErrNotFound = errors.New("no ARP reply")

	// ErrEmptyRead is returned by Probe when a receive completes with zero
	// bytes.
	ErrEmptyRead = errors.New("empty read")
)

// String returns the name of an Operation.
func (o Operation) String() string {
	switch o {
	case OperationRequest:
		return "request"
	case OperationReply:
		return "reply"
	}
	return "Operation(" + strconv.Itoa(int(o)) + ")"
}
