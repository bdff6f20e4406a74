// env_config.go: Registry options from environment variables
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/go-errors"
)

// Environment variables read by LoadConfigFromEnv
const (
	EnvAuditEnabled       = "HESTIA_AUDIT_ENABLED"
	EnvAuditOutputFile    = "HESTIA_AUDIT_OUTPUT_FILE"
	EnvAuditMinLevel      = "HESTIA_AUDIT_MIN_LEVEL"
	EnvAuditBufferSize    = "HESTIA_AUDIT_BUFFER_SIZE"
	EnvAuditFlushInterval = "HESTIA_AUDIT_FLUSH_INTERVAL"
)

// LoadConfigFromEnv builds registry options from HESTIA_AUDIT_*
// variables. Unset variables keep their defaults; malformed values are
// errors so a typo in a deployment manifest is not silently ignored.
func LoadConfigFromEnv() (*Config, error) {
	config := &Config{}

	if v := os.Getenv(EnvAuditEnabled); v != "" {
		enabled, ok := parseBool(v)
		if !ok {
			return nil, envError(EnvAuditEnabled, v)
		}
		if enabled {
			config.Audit = DefaultAuditConfig()
		}
	}

	if v := os.Getenv(EnvAuditOutputFile); v != "" {
		config.Audit.OutputFile = v
	}

	if v := os.Getenv(EnvAuditMinLevel); v != "" {
		level, ok := ParseAuditLevel(strings.ToUpper(v))
		if !ok {
			return nil, envError(EnvAuditMinLevel, v)
		}
		config.Audit.MinLevel = level
	}

	if v := os.Getenv(EnvAuditBufferSize); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return nil, envError(EnvAuditBufferSize, v)
		}
		config.Audit.BufferSize = size
	}

	if v := os.Getenv(EnvAuditFlushInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, envError(EnvAuditFlushInterval, v)
		}
		config.Audit.FlushInterval = d
	}

	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func envError(key, value string) error {
	return errors.New(ErrCodeInvalidConfig, "invalid environment value").
		WithContext("variable", key).
		WithContext("value", value)
}

// parseBool accepts true/false, 1/0, yes/no, on/off and enabled/disabled.
func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on", "enabled":
		return true, true
	case "false", "0", "no", "off", "disabled":
		return false, true
	}
	return false, false
}
