// audit.go: Audit trail of registry changes
//
// Every setting change, rejected directive, hostname regeneration and
// termination request can be recorded with a SHA-256 checksum so that an
// operator can reconstruct how the running configuration came to be.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// AuditLevel represents the severity of audit events
type AuditLevel int

const (
	AuditInfo AuditLevel = iota
	AuditWarn
	AuditCritical
	AuditSecurity
)

func (al AuditLevel) String() string {
	switch al {
	case AuditInfo:
		return "INFO"
	case AuditWarn:
		return "WARN"
	case AuditCritical:
		return "CRITICAL"
	case AuditSecurity:
		return "SECURITY"
	default:
		return "UNKNOWN"
	}
}

// ParseAuditLevel is the inverse of AuditLevel.String. It is
// case-sensitive and accepts the four level names.
func ParseAuditLevel(s string) (AuditLevel, bool) {
	switch s {
	case "INFO":
		return AuditInfo, true
	case "WARN":
		return AuditWarn, true
	case "CRITICAL":
		return AuditCritical, true
	case "SECURITY":
		return AuditSecurity, true
	}
	return AuditInfo, false
}

// AuditEvent is one recorded registry event
type AuditEvent struct {
	Timestamp   time.Time              `json:"timestamp"`
	Level       AuditLevel             `json:"level"`
	Event       string                 `json:"event"`
	Component   string                 `json:"component"`
	Source      string                 `json:"source,omitempty"`
	OldValue    interface{}            `json:"old_value,omitempty"`
	NewValue    interface{}            `json:"new_value,omitempty"`
	ProcessID   int                    `json:"process_id"`
	ProcessName string                 `json:"process_name"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Checksum    string                 `json:"checksum"`
}

// AuditConfig configures the audit trail
type AuditConfig struct {
	Enabled bool `json:"enabled"`

	// OutputFile selects the backend by extension: ".jsonl" writes JSON
	// lines, anything else an SQLite database. Empty uses the default
	// database path.
	OutputFile    string        `json:"output_file"`
	MinLevel      AuditLevel    `json:"min_level"`
	BufferSize    int           `json:"buffer_size"`
	FlushInterval time.Duration `json:"flush_interval"`
}

// DefaultAuditConfig returns an enabled audit configuration writing to
// the default SQLite database.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:       true,
		MinLevel:      AuditInfo,
		BufferSize:    256,
		FlushInterval: 5 * time.Second,
	}
}

// AuditLogger buffers audit events and hands them to a storage backend
// in batches. A nil or disabled logger drops every event.
type AuditLogger struct {
	config      AuditConfig
	backend     auditBackend
	buffer      []AuditEvent
	bufferMu    sync.Mutex
	flushTicker *time.Ticker
	stopCh      chan struct{}
	closeOnce   sync.Once
	processID   int
	processName string
}

// NewAuditLogger creates an audit logger. A disabled configuration
// yields a logger without backend.
func NewAuditLogger(config AuditConfig) (*AuditLogger, error) {
	if !config.Enabled {
		return &AuditLogger{config: config}, nil
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1
	}

	backend, err := createAuditBackend(config)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidAuditConfig, "failed to initialize audit backend")
	}

	logger := &AuditLogger{
		config:      config,
		backend:     backend,
		buffer:      make([]AuditEvent, 0, config.BufferSize),
		stopCh:      make(chan struct{}),
		processID:   os.Getpid(),
		processName: filepath.Base(os.Args[0]),
	}

	if config.FlushInterval > 0 {
		logger.flushTicker = time.NewTicker(config.FlushInterval)
		go logger.flushLoop()
	}

	return logger, nil
}

// Log records an audit event
func (al *AuditLogger) Log(level AuditLevel, event, component, source string, oldVal, newVal interface{}, context map[string]interface{}) {
	if al == nil || al.backend == nil || !al.config.Enabled || level < al.config.MinLevel {
		return
	}

	auditEvent := AuditEvent{
		Timestamp:   timecache.CachedTime(),
		Level:       level,
		Event:       event,
		Component:   component,
		Source:      source,
		OldValue:    oldVal,
		NewValue:    newVal,
		ProcessID:   al.processID,
		ProcessName: al.processName,
		Context:     context,
	}
	auditEvent.Checksum = checksum(auditEvent)

	al.bufferMu.Lock()
	al.buffer = append(al.buffer, auditEvent)
	if len(al.buffer) >= al.config.BufferSize {
		_ = al.flushBufferUnsafe()
	}
	al.bufferMu.Unlock()
}

// Enabled reports whether events are recorded.
func (al *AuditLogger) Enabled() bool {
	return al != nil && al.backend != nil && al.config.Enabled
}

// Flush writes all buffered events
func (al *AuditLogger) Flush() error {
	if !al.Enabled() {
		return nil
	}
	al.bufferMu.Lock()
	defer al.bufferMu.Unlock()
	return al.flushBufferUnsafe()
}

// Stats returns backend statistics.
func (al *AuditLogger) Stats() (*AuditStats, error) {
	if !al.Enabled() {
		return nil, errors.New(ErrCodeInvalidAuditConfig, "audit logging not enabled")
	}
	if err := al.Flush(); err != nil {
		return nil, err
	}
	return al.backend.GetStats()
}

// Close flushes pending events and releases the backend
func (al *AuditLogger) Close() error {
	if !al.Enabled() {
		return nil
	}

	var err error
	al.closeOnce.Do(func() {
		close(al.stopCh)
		if al.flushTicker != nil {
			al.flushTicker.Stop()
		}
		if ferr := al.Flush(); ferr != nil {
			err = errors.Wrap(ferr, ErrCodeIOError, "failed to flush audit logger during close")
			_ = al.backend.Close()
			return
		}
		if cerr := al.backend.Close(); cerr != nil {
			err = errors.Wrap(cerr, ErrCodeIOError, "failed to close audit backend")
		}
	})
	return err
}

func (al *AuditLogger) flushLoop() {
	for {
		select {
		case <-al.flushTicker.C:
			_ = al.Flush()
		case <-al.stopCh:
			return
		}
	}
}

// flushBufferUnsafe writes the buffer to the backend (caller holds bufferMu)
func (al *AuditLogger) flushBufferUnsafe() error {
	if len(al.buffer) == 0 {
		return nil
	}
	if err := al.backend.Write(al.buffer); err != nil {
		return errors.Wrap(err, ErrCodeIOError, "failed to write audit events")
	}
	al.buffer = al.buffer[:0]
	return nil
}

func checksum(event AuditEvent) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%v:%v",
		event.Timestamp.Format(time.RFC3339Nano),
		event.Level, event.Event, event.Component, event.OldValue, event.NewValue)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(data)))
}

// VerifyChecksum reports whether the event matches its checksum. Values
// read back from storage must have the types they were recorded with.
func VerifyChecksum(event AuditEvent) bool {
	return checksum(event) == event.Checksum
}
