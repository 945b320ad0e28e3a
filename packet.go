package arptest

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"net/netip"

	"github.com/mdlayher/ethernet"
)

// A Packet is an Ethernet/IPv4 ARP packet, as described in RFC 826.
type Packet struct {
	// HardwareType specifies an IANA-assigned hardware type, as described
	// in RFC 826.
	HardwareType uint16

	// ProtocolType specifies the internetwork protocol for which the ARP
	// request is intended.  Typically, this is the IPv4 EtherType.
	ProtocolType uint16

	// HardwareAddrLength specifies the length of the sender and target
	// hardware addresses included in a Packet.
	HardwareAddrLength uint8

	// IPLength specifies the length of the sender and target IPv4 addresses
	// included in a Packet.
	IPLength uint8

	// Operation specifies the ARP operation being performed, such as request
	// or reply.
	Operation Operation

	// SenderHardwareAddr specifies the hardware address of the sender of this
	// Packet.
	SenderHardwareAddr net.HardwareAddr

	// SenderIP specifies the IPv4 address of the sender of this Packet.
	SenderIP netip.Addr

	// TargetHardwareAddr specifies the hardware address of the target of this
	// Packet.
	TargetHardwareAddr net.HardwareAddr

	// TargetIP specifies the IPv4 address of the target of this Packet.
	TargetIP netip.Addr
}

// NewPacket creates a new Ethernet/IPv4 Packet from an input Operation and
// hardware/IPv4 address values for both a sender and target.
//
// If either hardware address is not 6 bytes in length, ErrInvalidHardwareAddr
// is returned.
//
// If either IP address is not an IPv4 address, ErrInvalidIP is returned.
func NewPacket(op Operation, srcHW net.HardwareAddr, srcIP netip.Addr, dstHW net.HardwareAddr, dstIP netip.Addr) (*Packet, error) {
	if len(srcHW) != macLen || len(dstHW) != macLen {
		return nil, ErrInvalidHardwareAddr
	}
	if !srcIP.Is4() || !dstIP.Is4() {
		return nil, ErrInvalidIP
	}

	return &Packet{
		HardwareType:       hardwareTypeEthernet,
		ProtocolType:       uint16(ethernet.EtherTypeIPv4),
		HardwareAddrLength: macLen,
		IPLength:           ipLen,
		Operation:          op,
		SenderHardwareAddr: srcHW,
		SenderIP:           srcIP,
		TargetHardwareAddr: dstHW,
		TargetIP:           dstIP,
	}, nil
}

// NewRequest creates an ARP request asking for the hardware address of ip,
// sent from srcHW.  The sender IPv4 address is 0.0.0.0 and the target
// hardware address is all zero.
func NewRequest(srcHW net.HardwareAddr, ip netip.Addr) (*Packet, error) {
	return NewPacket(
		OperationRequest,
		srcHW,
		netip.IPv4Unspecified(),
		make(net.HardwareAddr, macLen),
		ip,
	)
}

// MarshalBinary allocates a byte slice containing the data from a Packet.
// The result is always 28 bytes long.
//
// If the Packet's addresses are not Ethernet/IPv4 addresses, an error is
// returned.
func (p *Packet) MarshalBinary() ([]byte, error) {
	if len(p.SenderHardwareAddr) != macLen || len(p.TargetHardwareAddr) != macLen {
		return nil, ErrInvalidHardwareAddr
	}
	if !p.SenderIP.Is4() || !p.TargetIP.Is4() {
		return nil, ErrInvalidIP
	}

	// 2 bytes: hardware type
	// 2 bytes: protocol type
	// 1 byte : hardware address length
	// 1 byte : protocol length
	// 2 bytes: operation
	// 6 bytes: sender hardware address
	// 4 bytes: sender protocol address
	// 6 bytes: target hardware address
	// 4 bytes: target protocol address
	b := make([]byte, packetLen)

	binary.BigEndian.PutUint16(b[0:2], p.HardwareType)
	binary.BigEndian.PutUint16(b[2:4], p.ProtocolType)

	b[4] = p.HardwareAddrLength
	b[5] = p.IPLength

	binary.BigEndian.PutUint16(b[6:8], uint16(p.Operation))

	spa := p.SenderIP.As4()
	tpa := p.TargetIP.As4()

	copy(b[8:14], p.SenderHardwareAddr)
	copy(b[14:18], spa[:])
	copy(b[18:24], p.TargetHardwareAddr)
	copy(b[24:28], tpa[:])

	return b, nil
}

// UnmarshalBinary unmarshals a raw byte slice into a Packet.
//
// The address fields are always read at their Ethernet/IPv4 offsets; the
// length fields are preserved as received so that IsReplyTo can reject
// packets for other hardware or protocol types.  Bytes past the first 28
// are ignored.
func (p *Packet) UnmarshalBinary(b []byte) error {
	if len(b) < packetLen {
		return io.ErrUnexpectedEOF
	}

	p.HardwareType = binary.BigEndian.Uint16(b[0:2])
	p.ProtocolType = binary.BigEndian.Uint16(b[2:4])

	p.HardwareAddrLength = b[4]
	p.IPLength = b[5]

	p.Operation = Operation(binary.BigEndian.Uint16(b[6:8]))

	sha := make(net.HardwareAddr, macLen)
	copy(sha, b[8:14])
	p.SenderHardwareAddr = sha

	p.SenderIP = netip.AddrFrom4([4]byte(b[14:18]))

	tha := make(net.HardwareAddr, macLen)
	copy(tha, b[18:24])
	p.TargetHardwareAddr = tha

	p.TargetIP = netip.AddrFrom4([4]byte(b[24:28]))

	return nil
}

// IsReplyTo reports whether p is an Ethernet/IPv4 ARP reply which answers
// request q: it must come from q's target IP address and be addressed to
// q's sender hardware and IP addresses.
func (p *Packet) IsReplyTo(q *Packet) bool {
	if p.HardwareType != hardwareTypeEthernet ||
		p.ProtocolType != uint16(ethernet.EtherTypeIPv4) ||
		p.HardwareAddrLength != macLen ||
		p.IPLength != ipLen ||
		p.Operation != OperationReply {
		return false
	}

	return p.SenderIP == q.TargetIP &&
		bytes.Equal(p.TargetHardwareAddr, q.SenderHardwareAddr) &&
		p.TargetIP == q.SenderIP
}
