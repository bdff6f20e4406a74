// parsers.go: Configuration front-ends and the load cycle
//
// A configuration is read by one of three front-ends:
// - Native (.conf and anything unrecognised): legacy $Directive lines and
//   global(...)/main_queue(...) objects
// - YAML (.yaml, .yml)
// - JSON (.json)
//
// Each front-end turns the text into a list of statements which LoadConfig
// runs through PrepareLoad, the legacy and block handlers, DoneLoad and
// hostname regeneration.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/agilira/go-errors"
)

// ConfigFormat is a configuration file syntax
type ConfigFormat int

const (
	FormatNative ConfigFormat = iota
	FormatYAML
	FormatJSON
)

func (f ConfigFormat) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "native"
	}
}

// DetectFormat selects the format from the file extension.
func DetectFormat(path string) ConfigFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatNative
	}
}

// ParseFormat maps a format name to a ConfigFormat. "auto" and "" are
// reported as not ok so callers can fall back to DetectFormat.
func ParseFormat(name string) (ConfigFormat, bool) {
	switch strings.ToLower(name) {
	case "native", "conf":
		return FormatNative, true
	case "yaml", "yml":
		return FormatYAML, true
	case "json":
		return FormatJSON, true
	}
	return FormatNative, false
}

type stmtKind int

const (
	stmtLegacy stmtKind = iota
	stmtGlobal
	stmtMainQueue
	stmtOther
)

// statement is one top-level element of a configuration.
type statement struct {
	kind  stmtKind
	line  int
	name  string // directive or object name
	arg   string // legacy argument
	block Block
}

// LoadReport summarizes a configuration load. Directive errors do not
// fail a load; they are listed here.
type LoadReport struct {
	LoadID  string   `json:"load_id"`
	Format  string   `json:"format"`
	Applied int      `json:"applied"`
	Legacy  int      `json:"legacy"`
	Errors  []error  `json:"-"`
	Skipped []string `json:"skipped,omitempty"`
}

// OK reports whether every directive was accepted.
func (lr *LoadReport) OK() bool {
	return len(lr.Errors) == 0
}

// ErrorStrings returns the directive errors as text.
func (lr *LoadReport) ErrorStrings() []string {
	out := make([]string, len(lr.Errors))
	for i, err := range lr.Errors {
		out[i] = err.Error()
	}
	return out
}

func (lr *LoadReport) add(err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		lr.Errors = append(lr.Errors, joined.Unwrap()...)
		return
	}
	lr.Errors = append(lr.Errors, err)
}

// LoadConfig reads and applies the configuration file at path. The
// returned error covers I/O and syntax problems only; in that case no
// setting was touched.
func (r *Registry) LoadConfig(path string) (*LoadReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOError, "cannot read configuration").
			WithContext("path", path)
	}
	return r.LoadConfigData(data, DetectFormat(path))
}

// LoadConfigData applies configuration text in the given format.
// Concurrent loads on one registry run one after the other.
func (r *Registry) LoadConfigData(data []byte, format ConfigFormat) (*LoadReport, error) {
	stmts, err := parseConfig(data, format)
	if err != nil {
		return nil, err
	}

	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	report := &LoadReport{LoadID: r.PrepareLoad(), Format: format.String()}
	for _, st := range stmts {
		switch st.kind {
		case stmtLegacy:
			report.Legacy++
			report.add(r.ExecLegacy(st.name, st.arg))
		case stmtGlobal:
			report.add(r.ProcessGlobalBlock(st.block))
		case stmtMainQueue:
			report.add(r.ProcessMainQueueBlock(st.block))
		default:
			report.Skipped = append(report.Skipped, st.name)
		}
	}

	applied, err := r.doneLoad()
	report.Applied = applied
	report.add(err)
	report.add(r.GenerateLocalHostNameProperty())
	return report, nil
}

// CheckConfig parses a configuration without applying it and returns
// the number of statements found.
func CheckConfig(data []byte, format ConfigFormat) (int, error) {
	stmts, err := parseConfig(data, format)
	return len(stmts), err
}

func parseConfig(data []byte, format ConfigFormat) ([]statement, error) {
	switch format {
	case FormatNative:
		return parseNative(string(data))
	case FormatYAML:
		return parseYAML(data)
	case FormatJSON:
		return parseJSON(data)
	}
	return nil, errors.New(ErrCodeUnsupportedFormat, "unsupported configuration format")
}
