// hestia_test.go: Registry lifecycle and termination tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestTerminationFlag(t *testing.T) {
	r, _ := newTestRegistry(t)
	if r.IsTerminationRequested() {
		t.Fatal("termination requested on a fresh registry")
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RequestGlobalTermination()
		}()
	}
	wg.Wait()

	if !r.IsTerminationRequested() {
		t.Fatal("termination flag not set")
	}
	r.RequestGlobalTermination()
	if !r.IsTerminationRequested() {
		t.Fatal("termination flag must stay set")
	}
}

func TestTerminationAuditedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	r := New(Config{
		Audit: AuditConfig{Enabled: true, OutputFile: path, BufferSize: 1},
	})

	r.RequestGlobalTermination()
	r.RequestGlobalTermination()
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, err := QueryAuditTrail(path, AuditFilter{Event: "termination_requested"})
	if err != nil {
		t.Fatalf("QueryAuditTrail: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected one termination event, got %d", len(events))
	}
}

func TestCloseIdempotent(t *testing.T) {
	r := New(Config{})
	r.SetLocalHostNameOverride("x")
	if err := r.GenerateLocalHostNameProperty(); err != nil {
		t.Fatal(err)
	}
	prop := r.LocalHostNameProp()

	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if !prop.Destructed() {
		t.Error("Close should release the hostname property")
	}
}

func TestNewFallsBackWhenAuditFails(t *testing.T) {
	sink := &errorSink{}
	// the parent of the audit file is a regular file
	parent := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(parent, nil, 0600); err != nil {
		t.Fatal(err)
	}
	r := New(Config{
		Audit:        AuditConfig{Enabled: true, OutputFile: filepath.Join(parent, "audit.jsonl")},
		ErrorHandler: sink.handle,
	})
	defer r.Close()

	if r.AuditLogger().Enabled() {
		t.Fatal("audit logger should be disabled after a backend failure")
	}
	if sink.count() != 1 {
		t.Errorf("backend failure should be reported once, got %d", sink.count())
	}
	// the registry is still usable
	r.SetMaxMessageSize(100)
	if r.MaxMessageSize() != 100 {
		t.Error("registry unusable after audit failure")
	}
}
