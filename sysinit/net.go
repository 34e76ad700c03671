// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/vishvananda/netlink"
)

// Interface is the static configuration of a network interface.
type Interface struct {
	// Name of the interface, like "lo" or "eth0".
	Name string `yaml:"name"`

	// Address is an optional address in CIDR notation, like "10.0.0.2/24".
	Address string `yaml:"address"`

	// Broadcast is an optional broadcast address. If empty, it is derived
	// from Address.
	Broadcast string `yaml:"broadcast"`

	// Gateway is an optional default gateway reachable via this interface.
	Gateway string `yaml:"gateway"`
}

func (i Interface) validate() error {
	if i.Name == "" {
		return errors.New("interface without name")
	}

	if i.Address != "" {
		if _, err := netlink.ParseAddr(i.Address); err != nil {
			return fmt.Errorf("interface %s: address: %w", i.Name, err)
		}
	}

	for field, value := range map[string]string{
		"broadcast": i.Broadcast,
		"gateway":   i.Gateway,
	} {
		if value != "" && net.ParseIP(value) == nil {
			return fmt.Errorf("interface %s: invalid %s %q", i.Name, field, value)
		}
	}

	return nil
}

func (i Interface) addr() (*netlink.Addr, error) {
	addr, err := netlink.ParseAddr(i.Address)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	if i.Broadcast != "" {
		addr.Broadcast = net.ParseIP(i.Broadcast)
	}

	return addr, nil
}

// ConfigureNetwork applies the given interface configurations via rtnetlink.
//
// All addresses are assigned first, then all interfaces are brought up and
// finally the default routes are added, since a route needs its interface to
// be up. A failing interface does not stop the others from being configured.
// All errors are returned joined.
func ConfigureNetwork(interfaces []Interface) error {
	var errs []error

	links := make(map[string]netlink.Link, len(interfaces))

	for _, iface := range interfaces {
		link, err := netlink.LinkByName(iface.Name)
		if err != nil {
			errs = append(errs, networkError(iface, "get link", err))
			continue
		}

		links[iface.Name] = link

		if iface.Address == "" {
			continue
		}

		addr, err := iface.addr()
		if err == nil {
			err = netlink.AddrReplace(link, addr)
		}

		if err != nil {
			errs = append(errs, networkError(iface, "add address", err))
		}
	}

	for _, iface := range interfaces {
		link, exists := links[iface.Name]
		if !exists {
			continue
		}

		if err := netlink.LinkSetUp(link); err != nil {
			errs = append(errs, networkError(iface, "set up", err))
		}
	}

	for _, iface := range interfaces {
		link, exists := links[iface.Name]
		if !exists || iface.Gateway == "" {
			continue
		}

		route := &netlink.Route{
			LinkIndex: link.Attrs().Index,
			Gw:        net.ParseIP(iface.Gateway),
			Scope:     netlink.SCOPE_UNIVERSE,
		}

		if err := netlink.RouteReplace(route); err != nil {
			errs = append(errs, networkError(iface, "add route", err))
		}
	}

	return errors.Join(errs...)
}

func networkError(iface Interface, op string, err error) error {
	slog.Warn("Network configuration failed",
		slog.String("interface", iface.Name),
		slog.String("op", op),
		slog.Any("error", err),
	)

	return fmt.Errorf("interface %s: %s: %w", iface.Name, op, err)
}
