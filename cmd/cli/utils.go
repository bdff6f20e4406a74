// Utility functions for the hestia CLI
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/hestia"
)

var extendedDuration = regexp.MustCompile(`^(\d+)(d|w)$`)

// detectFormat honours an explicit --format and falls back to the file
// extension for "auto".
func detectFormat(filePath, explicitFormat string) (hestia.ConfigFormat, error) {
	if explicitFormat == "" || explicitFormat == "auto" {
		return hestia.DetectFormat(filePath), nil
	}
	format, ok := hestia.ParseFormat(explicitFormat)
	if !ok {
		return format, errors.New(hestia.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported format: %s", explicitFormat))
	}
	return format, nil
}

// newScratchRegistry builds a registry whose directive errors are only
// collected in load reports.
func newScratchRegistry() *hestia.Registry {
	return hestia.New(hestia.Config{
		ErrorHandler: func(error, string) {},
	})
}

func loadFile(reg *hestia.Registry, filePath string, format hestia.ConfigFormat) (*hestia.LoadReport, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(hestia.ErrCodeIOError,
				fmt.Sprintf("configuration file does not exist: %s", filePath))
		}
		return nil, errors.Wrap(err, hestia.ErrCodeIOError, "failed to read configuration")
	}
	return reg.LoadConfigData(data, format)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func describeChange(e hestia.AuditEvent) string {
	subject := e.Source
	if name, ok := e.Context["setting"]; ok {
		subject = fmt.Sprint(name)
	}
	if directive, ok := e.Context["directive"]; ok {
		return fmt.Sprintf("%v: %v", directive, e.Context["error"])
	}
	if e.OldValue != nil || e.NewValue != nil {
		return fmt.Sprintf("%s: %v -> %v", subject, e.OldValue, e.NewValue)
	}
	return subject
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseExtendedDuration parses Go durations plus d (days) and w (weeks),
// e.g. "30d", "2w", "24h".
func parseExtendedDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	matches := extendedDuration.FindStringSubmatch(s)
	if len(matches) != 3 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	value, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value: %s", matches[1])
	}

	day := 24 * time.Hour
	if matches[2] == "w" {
		return time.Duration(value) * 7 * day, nil
	}
	return time.Duration(value) * day, nil
}
