// netif.go: Network interface address lookup
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"net"

	"github.com/agilira/go-errors"
)

// resolveInterfaceIP returns the first unicast address of ifname,
// preferring IPv4.
func resolveInterfaceIP(ifname string) (string, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return "", errors.Wrap(err, ErrCodeInterfaceLookup, "no such interface").
			WithContext("interface", ifname)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", errors.Wrap(err, ErrCodeInterfaceLookup, "cannot list interface addresses").
			WithContext("interface", ifname)
	}

	var v6 string
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsUnspecified() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
		if v6 == "" {
			v6 = ipnet.IP.String()
		}
	}
	if v6 != "" {
		return v6, nil
	}
	return "", errors.New(ErrCodeInterfaceLookup, "interface has no usable address").
		WithContext("interface", ifname)
}
