package arptest

import (
	"net"
	"net/netip"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/mdlayher/ethernet"
	"github.com/pkg/errors"
)

// readBufferLen is large enough for any ARP payload the kernel delivers.
const readBufferLen = 128

// ProbeConfig specifies optional behavior for Probe.
type ProbeConfig struct {
	// Logger receives debug-level events for the sent request and for every
	// frame which is ignored.  If nil, nothing is logged.
	Logger log.Logger
}

// Probe broadcasts a single ARP request for ip on c and waits up to timeout
// for the reply which answers it, returning the responder's hardware
// address.
//
// Frames which are too short or which do not answer the request are
// ignored.  If no matching reply arrives before timeout, ErrNotFound is
// returned.  Any other error is a failure of the underlying socket.
//
// Probe sets a read deadline on c and does not close it.
func Probe(c *Conn, ip netip.Addr, timeout time.Duration, cfg *ProbeConfig) (net.HardwareAddr, error) {
	if timeout <= 0 {
		return nil, errors.Errorf("invalid probe timeout %v", timeout)
	}

	logger := log.NewNopLogger()
	if cfg != nil && cfg.Logger != nil {
		logger = cfg.Logger
	}

	req, err := NewRequest(c.HardwareAddr(), ip)
	if err != nil {
		return nil, err
	}

	// The deadline covers the whole exchange, so it is armed before the
	// request is sent.
	if err := c.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, errors.Wrap(err, "set read deadline")
	}

	if err := c.WriteTo(req, ethernet.Broadcast); err != nil {
		return nil, errors.Wrap(err, "send")
	}
	level.Debug(logger).Log("msg", "sent request", "who-has", ip, "tell", req.SenderHardwareAddr)

	buf := make([]byte, readBufferLen)
	for {
		n, from, err := c.ReadFrom(buf)
		if err != nil {
			if IsTimeout(err) {
				return nil, ErrNotFound
			}
			return nil, errors.Wrap(err, "receive")
		}
		if n == 0 {
			return nil, errors.Wrap(ErrEmptyRead, "receive")
		}

		var reply Packet
		if err := reply.UnmarshalBinary(buf[:n]); err != nil {
			level.Debug(logger).Log("msg", "ignoring short frame", "from", from, "len", n)
			continue
		}

		if !reply.IsReplyTo(req) {
			level.Debug(logger).Log(
				"msg", "ignoring frame",
				"from", from,
				"op", reply.Operation,
				"sender_ip", reply.SenderIP,
				"sender_mac", reply.SenderHardwareAddr,
				"target_ip", reply.TargetIP,
				"target_mac", reply.TargetHardwareAddr,
			)
			continue
		}

		return reply.SenderHardwareAddr, nil
	}
}
