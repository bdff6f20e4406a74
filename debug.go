// debug.go: Debug level and debug output files
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/agilira/go-errors"
	"golang.org/x/sys/unix"
)

// DebugMode is the effective debugging state
type DebugMode int32

const (
	// DebugOff disables debug output.
	DebugOff DebugMode = iota
	// DebugOnDemand keeps debug output off until ToggleDebug is called.
	DebugOnDemand
	// DebugFull writes debug output.
	DebugFull
)

func (m DebugMode) String() string {
	switch m {
	case DebugOnDemand:
		return "on-demand"
	case DebugFull:
		return "full"
	default:
		return "off"
	}
}

const debugFileFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC | unix.O_NOCTTY | unix.O_CLOEXEC

type debugState struct {
	level atomic.Int32
	mode  atomic.Int32

	mu      sync.Mutex
	stderr  io.Writer
	file    *os.File // debugfile, replaceable
	altFile *os.File // debug.logfile, opened once
	altPath string   // first debug.logfile requested, even if the open failed
	logger  atomic.Pointer[slog.Logger]
}

func (d *debugState) init(w io.Writer) {
	d.stderr = w
	d.rebuild()
}

// rebuild points the logger at the current set of writers. Caller holds mu
// or has exclusive access.
func (d *debugState) rebuild() {
	var writers []io.Writer
	if d.stderr != nil {
		writers = append(writers, d.stderr)
	}
	if d.file != nil {
		writers = append(writers, d.file)
	}
	if d.altFile != nil {
		writers = append(writers, d.altFile)
	}
	if len(writers) == 0 {
		d.logger.Store(nil)
		return
	}
	h := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: slog.LevelDebug})
	d.logger.Store(slog.New(h).With("component", "hestia"))
}

func (d *debugState) enterOnDemand() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode.Store(int32(DebugOnDemand))
	d.stderr = nil
	d.rebuild()
}

func (d *debugState) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var err error
	if d.file != nil {
		err = d.file.Close()
		d.file = nil
	}
	if d.altFile != nil {
		if cerr := d.altFile.Close(); err == nil {
			err = cerr
		}
		d.altFile = nil
	}
	d.logger.Store(nil)
	return err
}

// SetDebugLevel sets the debug level: 0 is off, 1 on demand, 2 and
// above full debugging.
func (r *Registry) SetDebugLevel(level int) {
	old := r.debug.level.Swap(int32(level))
	mode := DebugOff
	switch {
	case level >= 2:
		mode = DebugFull
	case level == 1:
		mode = DebugOnDemand
	}
	r.debug.mode.Store(int32(mode))
	r.changed("debug.level", int(old), level)
}

func (r *Registry) DebugLevel() int { return int(r.debug.level.Load()) }

func (r *Registry) DebugMode() DebugMode { return DebugMode(r.debug.mode.Load()) }

// ToggleDebug switches between on-demand and full debugging. It has no
// effect while debugging is off.
func (r *Registry) ToggleDebug() DebugMode {
	for {
		cur := DebugMode(r.debug.mode.Load())
		next := cur
		switch cur {
		case DebugOnDemand:
			next = DebugFull
		case DebugFull:
			next = DebugOnDemand
		default:
			return cur
		}
		if r.debug.mode.CompareAndSwap(int32(cur), int32(next)) {
			return next
		}
	}
}

// SetDebugFile directs debug output to path, replacing a file set
// earlier. An empty path closes the current file.
func (r *Registry) SetDebugFile(path string) error {
	r.debug.mu.Lock()
	defer r.debug.mu.Unlock()

	var f *os.File
	if path != "" {
		var err error
		f, err = os.OpenFile(path, debugFileFlags, 0600)
		if err != nil {
			return errors.Wrap(err, ErrCodeDebugFile, "cannot open debug file").
				WithContext("path", path)
		}
	}
	if r.debug.file != nil {
		_ = r.debug.file.Close()
	}
	r.debug.file = f
	r.debug.rebuild()
	return nil
}

// OpenAltDebugFile opens the debug.logfile target. Only the first call
// attempts the open; later calls are no-ops, also when that attempt
// failed.
func (r *Registry) OpenAltDebugFile(path string) error {
	r.debug.mu.Lock()
	defer r.debug.mu.Unlock()

	if r.debug.altPath != "" {
		return nil
	}
	r.debug.altPath = path
	f, err := os.OpenFile(path, debugFileFlags, 0600)
	if err != nil {
		return errors.Wrap(err, ErrCodeDebugFile, "cannot open debug log file, debug output disabled").
			WithContext("path", path)
	}
	r.debug.altFile = f
	r.debug.rebuild()
	return nil
}

// Debugf writes a debug message when full debugging is active.
func (r *Registry) Debugf(format string, args ...interface{}) {
	if DebugMode(r.debug.mode.Load()) != DebugFull {
		return
	}
	if l := r.debug.logger.Load(); l != nil {
		l.Debug(fmt.Sprintf(format, args...))
	}
}
