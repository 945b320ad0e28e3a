package arptest

import (
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/arptest/internal/linktest"
	"github.com/mdlayher/ethernet"
)

func TestNew(t *testing.T) {
	tests := []struct {
		desc  string
		local net.HardwareAddr
		err   error
	}{
		{
			desc: "no link-layer address",
			err:  ErrNoHardwareAddr,
		},
		{
			desc:  "non-Ethernet link-layer address",
			local: net.HardwareAddr{0, 1, 2, 3, 4, 5, 6, 7},
			err:   ErrInvalidHardwareAddr,
		},
		{
			desc:  "OK",
			local: testLocalMAC,
		},
	}

	for i, tt := range tests {
		ifi := &net.Interface{Index: 2, Name: "eth0"}
		c, err := New(ifi, &linktest.PacketConn{Local: tt.local})
		if err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error: %v != %v",
					i, tt.desc, want, got)
			}

			continue
		}
		if tt.err != nil {
			t.Fatalf("[%02d] test %q, expected error %v", i, tt.desc, tt.err)
		}

		if diff := cmp.Diff(tt.local, c.HardwareAddr()); diff != "" {
			t.Fatalf("[%02d] test %q, unexpected hardware address (-want +got):\n%s",
				i, tt.desc, diff)
		}
		if c.Interface() != ifi {
			t.Fatalf("[%02d] test %q, unexpected interface: %v", i, tt.desc, c.Interface())
		}
	}
}

func TestConnClose(t *testing.T) {
	p := &linktest.PacketConn{Local: testLocalMAC}
	c, err := New(&net.Interface{}, p)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	if !p.Closed() {
		t.Fatal("conn was not closed")
	}
}

func TestConnWriteTo(t *testing.T) {
	p := &linktest.PacketConn{Local: testLocalMAC}
	c, err := New(&net.Interface{}, p)
	if err != nil {
		t.Fatal(err)
	}

	req, err := NewRequest(c.HardwareAddr(), testTargetIP)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.WriteTo(req, ethernet.Broadcast); err != nil {
		t.Fatal(err)
	}

	b, err := req.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	want := []linktest.Write{{B: b, Addr: ethernet.Broadcast}}
	if diff := cmp.Diff(want, p.Writes()); diff != "" {
		t.Fatalf("unexpected writes (-want +got):\n%s", diff)
	}
}

func TestConnWriteToInvalidPacket(t *testing.T) {
	p := &linktest.PacketConn{Local: testLocalMAC}
	c, err := New(&net.Interface{}, p)
	if err != nil {
		t.Fatal(err)
	}

	if want, got := ErrInvalidIP, c.WriteTo(&Packet{
		SenderHardwareAddr: testLocalMAC,
		TargetHardwareAddr: testRemoteMAC,
	}, ethernet.Broadcast); want != got {
		t.Fatalf("unexpected error: %v != %v", want, got)
	}
	if n := len(p.Writes()); n != 0 {
		t.Fatalf("expected no writes, got %d", n)
	}
}

func TestConnReadFrom(t *testing.T) {
	p := &linktest.PacketConn{
		Local:  testLocalMAC,
		Source: testRemoteMAC,
	}
	p.Queue([]byte{1, 2, 3})

	c, err := New(&net.Interface{}, p)
	if err != nil {
		t.Fatal(err)
	}

	b := make([]byte, 8)
	n, from, err := c.ReadFrom(b)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]byte{1, 2, 3}, b[:n]); diff != "" {
		t.Fatalf("unexpected bytes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(testRemoteMAC, from); diff != "" {
		t.Fatalf("unexpected sender (-want +got):\n%s", diff)
	}
}

func TestConnReadFromDeadline(t *testing.T) {
	c, err := New(&net.Interface{}, &linktest.PacketConn{Local: testLocalMAC})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.SetReadDeadline(time.Now().Add(10 * time.Millisecond)); err != nil {
		t.Fatal(err)
	}

	_, _, err = c.ReadFrom(make([]byte, 8))
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got: %v", err)
	}
}

func TestIsTimeout(t *testing.T) {
	tests := []struct {
		desc string
		err  error
		ok   bool
	}{
		{
			desc: "nil",
		},
		{
			desc: "other error",
			err:  errors.New("test error"),
		},
		{
			desc: "deadline exceeded",
			err:  os.ErrDeadlineExceeded,
			ok:   true,
		},
		{
			desc: "wrapped deadline exceeded",
			err:  &net.OpError{Op: "read", Net: "packet", Err: os.ErrDeadlineExceeded},
			ok:   true,
		},
	}

	for i, tt := range tests {
		if want, got := tt.ok, IsTimeout(tt.err); want != got {
			t.Fatalf("[%02d] test %q, unexpected result: %v != %v",
				i, tt.desc, want, got)
		}
	}
}
