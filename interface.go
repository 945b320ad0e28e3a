package arptest

import (
	"net"

	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
)

// InterfaceByName resolves a network interface name into the index and
// hardware address needed to open a Conn, using a netlink link query.
func InterfaceByName(name string) (*net.Interface, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return nil, errors.Wrapf(err, "lookup %q", name)
	}

	return linkInterface(link.Attrs()), nil
}

// linkInterface converts netlink link attributes into a net.Interface.
func linkInterface(attrs *netlink.LinkAttrs) *net.Interface {
	hw := make(net.HardwareAddr, len(attrs.HardwareAddr))
	copy(hw, attrs.HardwareAddr)

	return &net.Interface{
		Index:        attrs.Index,
		MTU:          attrs.MTU,
		Name:         attrs.Name,
		HardwareAddr: hw,
		Flags:        attrs.Flags,
	}
}
