// netif_test.go: Interface address lookup tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"net"
	"testing"
)

func TestResolveInterfaceIPUnknown(t *testing.T) {
	_, err := resolveInterfaceIP("hestia-no-such-if0")
	expectCode(t, err, ErrCodeInterfaceLookup)
}

func TestResolveInterfaceIPLoopback(t *testing.T) {
	if _, err := net.InterfaceByName("lo"); err != nil {
		t.Skip("no loopback interface named lo")
	}
	ip, err := resolveInterfaceIP("lo")
	if err != nil {
		t.Fatalf("resolveInterfaceIP(lo): %v", err)
	}
	if ip != "127.0.0.1" && ip != "::1" {
		t.Errorf("loopback address: %q", ip)
	}
}
