// flags_test.go: Daemon command-line tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	goerrors "errors"
	"testing"
)

func TestApplyCommandLine(t *testing.T) {
	r, _ := newTestRegistry(t)

	cl, err := r.ApplyCommandLine([]string{
		"--config", "/etc/hestia.yaml",
		"--debug-level", "2",
		"--disable-dns",
		"--no-disallow-warning",
		"--ipv6-only",
		"--strip-domains", "example.com,example.org",
		"--local-hosts", "relay1",
	})
	if err != nil {
		t.Fatalf("ApplyCommandLine: %v", err)
	}

	if cl.ConfigFile != "/etc/hestia.yaml" || cl.Format != "auto" || cl.LoadFormat() != FormatYAML {
		t.Errorf("command line: %+v", cl)
	}
	if r.DebugMode() != DebugFull || !r.DisableDNS() || r.DisallowWarning() {
		t.Errorf("settings: debug=%s dns=%v warn=%v", r.DebugMode(), r.DisableDNS(), r.DisallowWarning())
	}
	if r.DefPFFamily() != FamilyInet6 {
		t.Errorf("family: %s", r.DefPFFamily())
	}
	if d := r.StripDomains(); len(d) != 2 || d[1] != "example.org" {
		t.Errorf("strip domains: %v", d)
	}
	if h := r.LocalHosts(); len(h) != 1 || h[0] != "relay1" {
		t.Errorf("local hosts: %v", h)
	}
	if !r.ParseHostnameAndTag() {
		t.Error("untouched option changed")
	}
}

func TestApplyCommandLineDefaultsLeaveStore(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.SetDebugLevel(1)

	cl, err := r.ApplyCommandLine(nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.DebugLevel() != 1 || r.DefPFFamily() != FamilyUnspec {
		t.Error("defaults overwrote store entries")
	}
	if cl.ConfigFile != "" || cl.LoadFormat() != FormatNative {
		t.Errorf("command line: %+v", cl)
	}

	found := false
	for _, name := range cl.Options() {
		if name == "no-parse-hostname" {
			found = true
		}
	}
	if !found {
		t.Errorf("options: %v", cl.Options())
	}
}

func TestApplyCommandLineErrors(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.ApplyCommandLine([]string{"--ipv4-only", "--ipv6-only", "--disable-dns"})
	expectCode(t, err, ErrCodeConflictingFamilies)
	if r.DisableDNS() {
		t.Error("options applied despite conflict")
	}

	_, err = r.ApplyCommandLine([]string{"--format", "toml"})
	expectCode(t, err, ErrCodeInvalidCommandLine)

	_, err = r.ApplyCommandLine([]string{"--debug-level", "high"})
	expectCode(t, err, ErrCodeInvalidCommandLine)

	cl, err := r.ApplyCommandLine([]string{"--disable-dns", "-h"})
	if !goerrors.Is(err, ErrHelpRequested) || cl == nil {
		t.Errorf("help: %v", err)
	}
	if r.DisableDNS() {
		t.Error("options applied with --help")
	}
}

func TestLoadFormatExplicit(t *testing.T) {
	cl := &CommandLine{ConfigFile: "/etc/hestia.conf", Format: "json"}
	if cl.LoadFormat() != FormatJSON {
		t.Error("explicit format ignored")
	}
}
