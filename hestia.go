// hestia.go: Process-wide configuration and global-state registry
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"sync"
	"sync/atomic"
)

// Error codes for Hestia operations
const (
	ErrCodeInvalidConfig        = "HESTIA_INVALID_CONFIG"
	ErrCodeInvalidAuditConfig   = "HESTIA_INVALID_AUDIT_CONFIG"
	ErrCodeWorkDirInvalid       = "HESTIA_WORKDIR_INVALID"
	ErrCodeLocalIPAlreadySet    = "HESTIA_LOCALIP_ALREADY_SET"
	ErrCodeInterfaceLookup      = "HESTIA_INTERFACE_LOOKUP"
	ErrCodeMainQueueAlreadySet  = "HESTIA_MAINQ_ALREADY_SET"
	ErrCodeUnknownParam         = "HESTIA_UNKNOWN_PARAM"
	ErrCodeUnknownDirective     = "HESTIA_UNKNOWN_DIRECTIVE"
	ErrCodeTypeMismatch         = "HESTIA_TYPE_MISMATCH"
	ErrCodeUnhandledParam       = "HESTIA_UNHANDLED_PARAM"
	ErrCodeDuplicateDirective   = "HESTIA_DUPLICATE_DIRECTIVE"
	ErrCodeRegistrySealed       = "HESTIA_REGISTRY_SEALED"
	ErrCodePropFinalized        = "HESTIA_PROP_FINALIZED"
	ErrCodeDebugFile            = "HESTIA_DEBUG_FILE"
	ErrCodeIOError              = "HESTIA_IO_ERROR"
	ErrCodeSyntaxError          = "HESTIA_SYNTAX_ERROR"
	ErrCodeUnsupportedFormat    = "HESTIA_UNSUPPORTED_FORMAT"
	ErrCodeReloaderBusy         = "HESTIA_RELOADER_BUSY"
	ErrCodeInvalidCommandLine   = "HESTIA_INVALID_COMMAND_LINE"
	ErrCodeConflictingFamilies  = "HESTIA_CONFLICTING_FAMILIES"
	ErrCodeTerminationRequested = "HESTIA_TERMINATION_REQUESTED"
)

// Registry owns every process-wide setting of the daemon runtime.
//
// A Registry is created once at startup and shared by reference with every
// component that needs to read settings. Getters never block and may be
// called from any goroutine. LoadConfig and LoadConfigData run the whole
// load cycle under one lock; callers driving PrepareLoad through DoneLoad
// by hand must not overlap their cycles.
type Registry struct {
	config Config
	audit  *AuditLogger

	s     store
	host  hostIdentity
	debug debugState

	// cycleMu is held for a complete load cycle by LoadConfigData
	cycleMu sync.Mutex

	// binding engine state, guarded by loadMu
	loadMu    sync.Mutex
	loadID    string
	params    *paramTable
	bound     *boundValues
	mainQueue atomic.Pointer[Block]

	legacy *directiveTable

	terminate atomic.Bool
	closed    atomic.Bool
}

// New creates a Registry with every setting at its documented default.
//
// A failing audit backend never prevents construction: the registry falls
// back to a disabled audit logger.
func New(config Config) *Registry {
	cfg := config.WithDefaults()

	auditLogger, err := NewAuditLogger(cfg.Audit)
	if err != nil {
		cfg.ErrorHandler(err, "audit")
		auditLogger, _ = NewAuditLogger(AuditConfig{Enabled: false})
	}

	r := &Registry{
		config: *cfg,
		audit:  auditLogger,
		params: globalParams,
		legacy: newLegacyTable(),
	}
	r.s.initDefaults()
	r.debug.init(cfg.DebugWriter)
	return r
}

// RequestGlobalTermination signals every input component to stop.
// The flag never returns to false; calling it again is a no-op.
func (r *Registry) RequestGlobalTermination() {
	if r.terminate.CompareAndSwap(false, true) {
		r.audit.Log(AuditCritical, "termination_requested", "registry", "", false, true, nil)
	}
}

// IsTerminationRequested reports whether RequestGlobalTermination was called.
func (r *Registry) IsTerminationRequested() bool {
	return r.terminate.Load()
}

// AuditLogger returns the audit logger used by the registry.
func (r *Registry) AuditLogger() *AuditLogger {
	return r.audit
}

// Close releases the debug files, the main queue object and the audit
// trail. It is safe to call more than once.
func (r *Registry) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.DestructMainQueueConfig()
	r.host.release()
	derr := r.debug.close()
	if err := r.audit.Close(); err != nil {
		return err
	}
	return derr
}

// report routes an operator-facing problem to the configured error
// handler and to the audit trail.
func (r *Registry) report(err error, directive string) {
	if err == nil {
		return
	}
	r.config.ErrorHandler(err, directive)
	r.audit.Log(AuditWarn, "directive_rejected", "binder", "", nil, nil,
		map[string]interface{}{"directive": directive, "error": err.Error()})
}

// changed records a setting transition in the audit trail.
func (r *Registry) changed(name string, oldVal, newVal interface{}) {
	r.audit.Log(AuditInfo, "setting_changed", "store", "", oldVal, newVal,
		map[string]interface{}{"setting": name})
}
