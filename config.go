// config.go: Registry options for Hestia
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"fmt"
	"io"
	"os"

	"github.com/agilira/go-errors"
)

// ErrorHandler receives operator-facing configuration problems.
// directive names the setting involved, or the subsystem when no
// directive applies.
type ErrorHandler func(err error, directive string)

// InterfaceResolver maps a network interface name to the textual IP
// address that should be used as the local host IP.
type InterfaceResolver func(ifname string) (string, error)

// Validation errors
var (
	ErrInvalidBufferSize    = errors.New(ErrCodeInvalidAuditConfig, "audit buffer size must not be negative")
	ErrInvalidFlushInterval = errors.New(ErrCodeInvalidAuditConfig, "audit flush interval must not be negative")
	ErrInvalidAuditLevel    = errors.New(ErrCodeInvalidAuditConfig, "unknown audit level")
)

// Config configures a Registry
type Config struct {
	// Audit configures the audit trail of setting changes.
	// The zero value keeps auditing disabled.
	Audit AuditConfig

	// ErrorHandler is called for every rejected directive and every
	// validation failure. Default: print to stderr.
	ErrorHandler ErrorHandler

	// InterfaceResolver resolves localhostipif. Default: the first
	// address of the named system interface.
	InterfaceResolver InterfaceResolver

	// HostnameFunc returns the system hostname. Default: os.Hostname.
	HostnameFunc func() (string, error)

	// DebugWriter receives debug output in addition to the debug files.
	// Default: none.
	DebugWriter io.Writer
}

// WithDefaults returns a copy of the configuration with unset fields filled in
func (c *Config) WithDefaults() *Config {
	config := *c

	if config.ErrorHandler == nil {
		config.ErrorHandler = func(err error, directive string) {
			fmt.Fprintf(os.Stderr, "hestia: %s: %v\n", directive, err)
		}
	}

	if config.InterfaceResolver == nil {
		config.InterfaceResolver = resolveInterfaceIP
	}

	if config.HostnameFunc == nil {
		config.HostnameFunc = os.Hostname
	}

	if config.Audit.Enabled {
		if config.Audit.BufferSize == 0 {
			config.Audit.BufferSize = 256
		}
	}

	return &config
}

// Validate checks the registry options
func (c *Config) Validate() error {
	if c.Audit.BufferSize < 0 {
		return ErrInvalidBufferSize
	}
	if c.Audit.FlushInterval < 0 {
		return ErrInvalidFlushInterval
	}
	if c.Audit.MinLevel < AuditInfo || c.Audit.MinLevel > AuditSecurity {
		return ErrInvalidAuditLevel
	}
	return nil
}
