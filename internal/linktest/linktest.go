// Package linktest provides an in-memory link-layer net.PacketConn for
// exercising ARP probes without a real network interface.
package linktest

import (
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/mdlayher/packet"
)

// errNoDeadline is returned by ReadFrom when no frames are queued and no
// read deadline is set, since such a read would block forever.
var errNoDeadline = errors.New("linktest: read with no queued frames and no deadline")

var _ net.PacketConn = &PacketConn{}

// A PacketConn is a net.PacketConn which delivers queued frames to ReadFrom
// and records every frame passed to WriteTo.  Once the queue is empty,
// ReadFrom blocks until the read deadline and then fails with a timeout
// error, like a packet socket would.
//
// The zero value reports no local hardware address.
type PacketConn struct {
	// Local is the hardware address reported by LocalAddr.
	Local net.HardwareAddr

	// Source is the sender hardware address reported for queued frames.
	Source net.HardwareAddr

	// ReadErr and WriteErr, if set, are returned by every ReadFrom and
	// WriteTo call.
	ReadErr  error
	WriteErr error

	mu       sync.Mutex
	frames   [][]byte
	deadline time.Time
	writes   []Write
	closed   bool
}

// A Write is a frame captured by PacketConn.WriteTo.
type Write struct {
	B    []byte
	Addr net.HardwareAddr
}

// Queue appends frames to be returned, in order, by ReadFrom.
func (p *PacketConn) Queue(frames ...[]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, f := range frames {
		b := make([]byte, len(f))
		copy(b, f)
		p.frames = append(p.frames, b)
	}
}

// Writes returns the frames written so far.
func (p *PacketConn) Writes() []Write {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]Write(nil), p.writes...)
}

// Closed reports whether Close was called.
func (p *PacketConn) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

// ReadFrom implements the net.PacketConn ReadFrom method.
func (p *PacketConn) ReadFrom(b []byte) (int, net.Addr, error) {
	p.mu.Lock()
	if p.ReadErr != nil {
		p.mu.Unlock()
		return 0, nil, p.ReadErr
	}
	if len(p.frames) > 0 {
		f := p.frames[0]
		p.frames = p.frames[1:]
		p.mu.Unlock()

		n := copy(b, f)
		return n, &packet.Addr{HardwareAddr: p.Source}, nil
	}
	deadline := p.deadline
	p.mu.Unlock()

	if deadline.IsZero() {
		return 0, nil, errNoDeadline
	}

	time.Sleep(time.Until(deadline))
	return 0, nil, &net.OpError{
		Op:  "read",
		Net: "packet",
		Err: os.ErrDeadlineExceeded,
	}
}

// WriteTo implements the net.PacketConn WriteTo method.
func (p *PacketConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.WriteErr != nil {
		return 0, p.WriteErr
	}

	w := Write{B: make([]byte, len(b))}
	copy(w.B, b)
	if a, ok := addr.(*packet.Addr); ok {
		w.Addr = a.HardwareAddr
	}
	p.writes = append(p.writes, w)

	return len(b), nil
}

// Close implements the net.PacketConn Close method.
func (p *PacketConn) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}

// LocalAddr implements the net.PacketConn LocalAddr method.
func (p *PacketConn) LocalAddr() net.Addr {
	return &packet.Addr{HardwareAddr: p.Local}
}

// SetDeadline implements the net.PacketConn SetDeadline method.
func (p *PacketConn) SetDeadline(t time.Time) error {
	return p.SetReadDeadline(t)
}

// SetReadDeadline implements the net.PacketConn SetReadDeadline method.
func (p *PacketConn) SetReadDeadline(t time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.deadline = t
	return nil
}

// SetWriteDeadline implements the net.PacketConn SetWriteDeadline method.
func (p *PacketConn) SetWriteDeadline(t time.Time) error { return nil }
