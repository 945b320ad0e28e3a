package arptest

import (
	"net"
	"os"
	"time"

	"github.com/mdlayher/ethernet"
	"github.com/mdlayher/packet"
	"github.com/pkg/errors"
)

// A Conn is a link-layer datagram endpoint bound to a single network
// interface, which only sends and receives ARP packets.  The kernel handles
// Ethernet framing, so a Conn deals only in ARP payloads.
type Conn struct {
	ifi *net.Interface
	p   net.PacketConn
	hw  net.HardwareAddr
}

// Listen opens a link-layer datagram socket on the network interface ifi,
// bound to the ARP EtherType.  The hardware address used for outgoing
// requests is queried from the kernel once the socket is bound.
//
// If the kernel reports no link-layer address for ifi, ErrNoHardwareAddr is
// returned.
func Listen(ifi *net.Interface) (*Conn, error) {
	p, err := packet.Listen(ifi, packet.Datagram, int(ethernet.EtherTypeARP), nil)
	if err != nil {
		return nil, errors.Wrap(err, "listen")
	}

	c, err := New(ifi, p)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	return c, nil
}

// New creates a Conn using the specified network interface and an existing
// net.PacketConn, such as a mock in tests.  p's LocalAddr must report the
// bound hardware address as a *packet.Addr.
//
// Most callers should use Listen instead.
func New(ifi *net.Interface, p net.PacketConn) (*Conn, error) {
	var hw net.HardwareAddr
	if a, ok := p.LocalAddr().(*packet.Addr); ok && a != nil {
		hw = a.HardwareAddr
	}

	switch {
	case len(hw) == 0:
		return nil, ErrNoHardwareAddr
	case len(hw) != macLen:
		return nil, ErrInvalidHardwareAddr
	}

	return &Conn{
		ifi: ifi,
		p:   p,
		hw:  hw,
	}, nil
}

// Close closes the Conn's socket.
func (c *Conn) Close() error {
	return c.p.Close()
}

// HardwareAddr fetches the hardware address bound to the Conn.
func (c *Conn) HardwareAddr() net.HardwareAddr {
	return c.hw
}

// Interface returns the network interface the Conn is bound to.
func (c *Conn) Interface() *net.Interface {
	return c.ifi
}

// SetReadDeadline sets the deadline for future ReadFrom calls.  Once the
// deadline passes, ReadFrom returns an error for which IsTimeout is true.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.p.SetReadDeadline(t)
}

// WriteTo marshals and writes an ARP packet to the destination hardware
// address addr.  The source hardware address of the frame is supplied by
// the kernel.
func (c *Conn) WriteTo(p *Packet, addr net.HardwareAddr) error {
	pb, err := p.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = c.p.WriteTo(pb, &packet.Addr{HardwareAddr: addr})
	return err
}

// ReadFrom reads a single ARP payload into b, blocking until one arrives
// or the read deadline passes.  It returns the number of bytes read and the
// hardware address of the frame's sender.
func (c *Conn) ReadFrom(b []byte) (int, net.HardwareAddr, error) {
	n, addr, err := c.p.ReadFrom(b)
	if err != nil {
		return n, nil, err
	}

	var from net.HardwareAddr
	if a, ok := addr.(*packet.Addr); ok && a != nil {
		from = a.HardwareAddr
	}

	return n, from, nil
}

// IsTimeout reports whether err was caused by a read deadline expiring.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
