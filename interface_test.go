package arptest

import (
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vishvananda/netlink"
)

func Test_linkInterface(t *testing.T) {
	attrs := &netlink.LinkAttrs{
		Index:        2,
		MTU:          1500,
		Name:         "eth0",
		HardwareAddr: net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		Flags:        net.FlagUp | net.FlagBroadcast,
	}

	want := &net.Interface{
		Index:        2,
		MTU:          1500,
		Name:         "eth0",
		HardwareAddr: net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		Flags:        net.FlagUp | net.FlagBroadcast,
	}

	ifi := linkInterface(attrs)
	if diff := cmp.Diff(want, ifi); diff != "" {
		t.Fatalf("unexpected interface (-want +got):\n%s", diff)
	}

	// The result must not alias netlink's buffer.
	attrs.HardwareAddr[5] = 0xff
	if ifi.HardwareAddr[5] != 0x01 {
		t.Fatal("interface hardware address aliases link attributes")
	}
}

func TestInterfaceByNameUnknown(t *testing.T) {
	if _, err := InterfaceByName("arptest-does-not-exist0"); err == nil {
		t.Fatal("expected an error for an unknown interface")
	}
}
