// env_config_test.go: Environment configuration tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	for _, key := range []string{EnvAuditEnabled, EnvAuditOutputFile, EnvAuditMinLevel, EnvAuditBufferSize, EnvAuditFlushInterval} {
		t.Setenv(key, "")
	}

	config, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if config.Audit.Enabled {
		t.Error("audit enabled without HESTIA_AUDIT_ENABLED")
	}
	if config.ErrorHandler == nil || config.HostnameFunc == nil || config.InterfaceResolver == nil {
		t.Error("defaults not filled in")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(EnvAuditEnabled, "yes")
	t.Setenv(EnvAuditOutputFile, "/var/lib/hestia/audit.jsonl")
	t.Setenv(EnvAuditMinLevel, "warn")
	t.Setenv(EnvAuditBufferSize, "32")
	t.Setenv(EnvAuditFlushInterval, "250ms")

	config, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	a := config.Audit
	if !a.Enabled || a.OutputFile != "/var/lib/hestia/audit.jsonl" || a.MinLevel != AuditWarn {
		t.Errorf("audit config: %+v", a)
	}
	if a.BufferSize != 32 || a.FlushInterval != 250*time.Millisecond {
		t.Errorf("buffer or interval: %+v", a)
	}
}

func TestLoadConfigFromEnvRejects(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvAuditEnabled, "maybe"},
		{EnvAuditMinLevel, "verbose"},
		{EnvAuditBufferSize, "0"},
		{EnvAuditBufferSize, "lots"},
		{EnvAuditFlushInterval, "-1s"},
		{EnvAuditFlushInterval, "soon"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := LoadConfigFromEnv()
			expectCode(t, err, ErrCodeInvalidConfig)
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"true", "1", "YES", " on ", "Enabled"} {
		if b, ok := parseBool(v); !ok || !b {
			t.Errorf("parseBool(%q) = %v, %v", v, b, ok)
		}
	}
	for _, v := range []string{"false", "0", "no", "OFF", "disabled"} {
		if b, ok := parseBool(v); !ok || b {
			t.Errorf("parseBool(%q) = %v, %v", v, b, ok)
		}
	}
	if _, ok := parseBool("2"); ok {
		t.Error("parseBool accepted 2")
	}
}
