// audit_test.go: Audit trail tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/agilira/go-timecache"
	"go.uber.org/goleak"
)

func TestParseAuditLevel(t *testing.T) {
	for _, l := range []AuditLevel{AuditInfo, AuditWarn, AuditCritical, AuditSecurity} {
		got, ok := ParseAuditLevel(l.String())
		if !ok || got != l {
			t.Errorf("ParseAuditLevel(%s) = %v, %v", l, got, ok)
		}
	}
	if _, ok := ParseAuditLevel("info"); ok {
		t.Error("level names are case-sensitive")
	}
	if AuditLevel(42).String() != "UNKNOWN" {
		t.Error("unknown level name")
	}
}

func TestDisabledAuditLogger(t *testing.T) {
	var nilLogger *AuditLogger
	nilLogger.Log(AuditInfo, "x", "y", "", nil, nil, nil)
	if nilLogger.Enabled() || nilLogger.Flush() != nil || nilLogger.Close() != nil {
		t.Error("nil logger must be a no-op")
	}

	al, err := NewAuditLogger(AuditConfig{})
	if err != nil {
		t.Fatal(err)
	}
	al.Log(AuditCritical, "x", "y", "", nil, nil, nil)
	if al.Enabled() {
		t.Error("disabled logger reports enabled")
	}
	if _, err := al.Stats(); codeOf(err) != ErrCodeInvalidAuditConfig {
		t.Errorf("Stats on disabled logger: %v", err)
	}
}

func TestJSONLAuditTrail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	al, err := NewAuditLogger(AuditConfig{Enabled: true, OutputFile: path, BufferSize: 10, MinLevel: AuditWarn})
	if err != nil {
		t.Fatal(err)
	}

	al.Log(AuditInfo, "setting_changed", "store", "", "a", "b", nil)
	al.Log(AuditWarn, "directive_rejected", "binder", "", nil, nil, map[string]interface{}{"directive": "x"})
	al.Log(AuditCritical, "termination_requested", "registry", "", nil, nil, nil)
	al.Log(AuditWarn, "setting_changed", "store", "cli", "64k", "128k", nil)

	stats, err := al.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEvents != 3 {
		t.Errorf("events below MinLevel recorded: %d", stats.TotalEvents)
	}
	if stats.EventsByComponent["store"] != 1 || stats.EventsByLevel["WARN"] != 2 {
		t.Errorf("stats: %+v", stats)
	}
	if err := al.Close(); err != nil {
		t.Fatal(err)
	}

	events, err := QueryAuditTrail(path, AuditFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 || events[0].Event != "setting_changed" {
		t.Fatalf("expected newest first, got %+v", events)
	}
	for _, e := range events {
		if !VerifyChecksum(e) {
			t.Errorf("checksum mismatch for %s", e.Event)
		}
	}
	if events[0].Source != "cli" || events[0].NewValue != "128k" {
		t.Errorf("event fields: %+v", events[0])
	}

	events, err = QueryAuditTrail(path, AuditFilter{Component: "binder", Limit: 5})
	if err != nil || len(events) != 1 || events[0].Context["directive"] != "x" {
		t.Errorf("component filter: %+v %v", events, err)
	}
	events, _ = QueryAuditTrail(path, AuditFilter{Since: time.Now().Add(time.Hour)})
	if len(events) != 0 {
		t.Errorf("since filter: %d events", len(events))
	}

	if VerifyChecksum(AuditEvent{Event: "forged", Checksum: "00"}) {
		t.Error("forged event verified")
	}

	if n, err := PruneAuditTrail(path, time.Hour); err != nil || n != 0 {
		t.Errorf("JSONL prune: %d %v", n, err)
	}
}

func TestSQLiteAuditTrail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	al, err := NewAuditLogger(AuditConfig{Enabled: true, OutputFile: path, BufferSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		al.Log(AuditInfo, "setting_changed", "store", "", i, i+1, map[string]interface{}{"setting": "maxmessagesize"})
	}
	al.Log(AuditSecurity, "directive_rejected", "binder", "", nil, nil, nil)
	if err := al.Close(); err != nil {
		t.Fatal(err)
	}

	stats, err := AuditTrailStats(path)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEvents != 6 || stats.EventsByLevel["SECURITY"] != 1 || stats.SchemaVersion != 1 {
		t.Errorf("stats: %+v", stats)
	}
	if stats.OldestEvent == nil || stats.NewestEvent == nil || stats.StorageSize == 0 {
		t.Errorf("stats time range or size missing: %+v", stats)
	}

	events, err := QueryAuditTrail(path, AuditFilter{Event: "setting_changed", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].Context["setting"] != "maxmessagesize" {
		t.Errorf("query: %+v", events)
	}

	if n, err := PruneAuditTrail(path, time.Hour); err != nil || n != 0 {
		t.Errorf("prune recent events: %d %v", n, err)
	}
	time.Sleep(20 * time.Millisecond)
	if n, err := PruneAuditTrail(path, 0); err != nil || n != 6 {
		t.Errorf("prune all: %d %v", n, err)
	}
}

func TestAuditStoreMissing(t *testing.T) {
	_, err := QueryAuditTrail(filepath.Join(t.TempDir(), "none.db"), AuditFilter{})
	expectCode(t, err, ErrCodeIOError)
}

func TestAuditFlushLoopStops(t *testing.T) {
	timecache.CachedTime()
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := filepath.Join(t.TempDir(), "audit.jsonl")
	al, err := NewAuditLogger(AuditConfig{Enabled: true, OutputFile: path, BufferSize: 100, FlushInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	al.Log(AuditInfo, "setting_changed", "store", "", nil, "x", nil)

	deadline := time.Now().Add(2 * time.Second)
	for {
		events, _ := QueryAuditTrail(path, AuditFilter{})
		if len(events) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("periodic flush did not write the event")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := al.Close(); err != nil {
		t.Fatal(err)
	}
}
