// Command handlers for the hestia CLI
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/hestia"
	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/dustin/go-humanize"
	"go.yaml.in/yaml/v3"
)

// handleCheck loads a configuration into a scratch registry and lists
// every rejected directive.
func (m *Manager) handleCheck(ctx *orpheus.Context) error {
	filePath := ctx.GetArg(0)
	if filePath == "" {
		return errors.New(hestia.ErrCodeInvalidConfig, "missing configuration file argument")
	}
	m.logCommand("cli_check", filePath)

	format, err := detectFormat(filePath, ctx.GetFlagString("format"))
	if err != nil {
		return err
	}

	reg := newScratchRegistry()
	defer reg.Close()

	report, err := loadFile(reg, filePath, format)
	if err != nil {
		fmt.Fprintf(m.out, "Invalid %s configuration: %v\n", format, err)
		return err
	}

	for _, name := range report.Skipped {
		fmt.Fprintf(m.out, "  skipped: %s\n", name)
	}
	if !report.OK() {
		for _, msg := range report.ErrorStrings() {
			fmt.Fprintf(m.out, "  error: %s\n", msg)
		}
		return errors.New(hestia.ErrCodeInvalidConfig,
			fmt.Sprintf("%d directive(s) rejected in %s", len(report.Errors), filePath))
	}

	fmt.Fprintf(m.out, "Valid %s configuration: %s (%d applied, %d legacy)\n",
		format, filePath, report.Applied, report.Legacy)
	return nil
}

// handleShow prints the settings a configuration produces.
func (m *Manager) handleShow(ctx *orpheus.Context) error {
	filePath := ctx.GetArg(0)
	if filePath == "" {
		return errors.New(hestia.ErrCodeInvalidConfig, "missing configuration file argument")
	}
	m.logCommand("cli_show", filePath)

	format, err := detectFormat(filePath, ctx.GetFlagString("format"))
	if err != nil {
		return err
	}

	reg := newScratchRegistry()
	defer reg.Close()

	if _, err := loadFile(reg, filePath, format); err != nil {
		return err
	}
	settings := reg.Snapshot()

	switch output := ctx.GetFlagString("output"); output {
	case "json":
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return errors.Wrap(err, hestia.ErrCodeIOError, "failed to encode settings")
		}
		fmt.Fprintln(m.out, string(data))
	case "yaml":
		data, err := yaml.Marshal(settings)
		if err != nil {
			return errors.Wrap(err, hestia.ErrCodeIOError, "failed to encode settings")
		}
		fmt.Fprint(m.out, string(data))
	case "text", "":
		m.printSettings(settings)
	default:
		return errors.New(hestia.ErrCodeInvalidConfig, fmt.Sprintf("unsupported output format: %s", output))
	}
	return nil
}

func (m *Manager) printSettings(s hestia.Settings) {
	row := func(name string, value interface{}) {
		fmt.Fprintf(m.out, "%-28s %v\n", name, value)
	}
	row("work directory", orNone(s.WorkDir))
	row("local hostname", s.LocalHostName)
	row("preserve fqdn", s.PreserveFQDN)
	row("max message size", fmt.Sprintf("%d (%s)", s.MaxMessageSize, humanize.IBytes(uint64(s.MaxMessageSize))))
	row("protocol family", s.DefPFFamily)
	row("drop malicious ptr", s.DropMalPTRMsgs)
	row("escape prefix", s.EscapePrefix)
	row("drop trailing lf", s.DropTrailingLF)
	row("escape control chars", s.EscapeControlChars)
	row("space lf", s.SpaceLF)
	row("escape 8bit", s.Escape8Bit)
	row("escape tab", s.EscapeTab)
	row("escape c style", s.EscapeCStyle)
	row("netstream driver", s.NetstreamDriver)
	row("netstream ca file", orNone(s.NetstreamCAFile))
	row("netstream key file", orNone(s.NetstreamKeyFile))
	row("netstream cert file", orNone(s.NetstreamCertFile))
	row("action report suspension", s.ActionReportSuspension)
	row("process internal messages", s.ProcessInternalMessages)
	row("debug on shutdown", s.DebugOnShutdown)
	row("debug level", s.DebugLevel)
	row("main queue configured", s.MainQueueConfigured)
}

// handleDirectives lists structured parameters, or legacy directives
// with --legacy.
func (m *Manager) handleDirectives(ctx *orpheus.Context) error {
	if ctx.GetFlagBool("legacy") {
		reg := newScratchRegistry()
		defer reg.Close()
		for _, d := range reg.LegacyDirectives() {
			fmt.Fprintf(m.out, "$%-40s %s\n", d.Name, d.Type)
		}
		return nil
	}

	for _, d := range hestia.GlobalDirectives() {
		mark := ""
		if d.Immediate {
			mark = " (immediate)"
		}
		fmt.Fprintf(m.out, "%-41s %s%s\n", d.Name, d.Type, mark)
	}
	return nil
}

// handleHostname prints the identity the daemon would use on this host.
func (m *Manager) handleHostname(ctx *orpheus.Context) error {
	reg := newScratchRegistry()
	defer reg.Close()

	if err := reg.LoadSystemHostname(); err != nil {
		return err
	}
	reg.SetPreserveFQDN(ctx.GetFlagBool("fqdn"))
	if ifname := ctx.GetFlagString("interface"); ifname != "" {
		if err := reg.SetLocalHostIPIF(ifname); err != nil {
			return err
		}
	}
	if err := reg.GenerateLocalHostNameProperty(); err != nil {
		return err
	}

	fmt.Fprintf(m.out, "hostname: %s\n", reg.LocalHostNameProp())
	fmt.Fprintf(m.out, "fqdn:     %s\n", reg.LocalFQDNName())
	fmt.Fprintf(m.out, "domain:   %s\n", orNone(reg.LocalDomain()))
	fmt.Fprintf(m.out, "ip:       %s\n", reg.LocalHostIP())
	return nil
}

// handleAuditQuery prints matching events, newest first.
func (m *Manager) handleAuditQuery(ctx *orpheus.Context) error {
	path := ctx.GetArg(0)
	if path == "" {
		return errors.New(hestia.ErrCodeInvalidAuditConfig, "missing audit trail argument")
	}

	since, err := parseExtendedDuration(ctx.GetFlagString("since"))
	if err != nil {
		return errors.Wrap(err, hestia.ErrCodeInvalidConfig, "invalid --since value")
	}

	events, err := hestia.QueryAuditTrail(path, hestia.AuditFilter{
		Since:     time.Now().Add(-since),
		Event:     ctx.GetFlagString("event"),
		Component: ctx.GetFlagString("component"),
		Limit:     ctx.GetFlagInt("limit"),
	})
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Fprintln(m.out, "No audit events found")
		return nil
	}
	for _, e := range events {
		fmt.Fprintf(m.out, "%s %-8s %-22s %-10s %s\n",
			e.Timestamp.Format(time.RFC3339), e.Level, e.Event, e.Component, describeChange(e))
	}
	return nil
}

func (m *Manager) handleAuditStats(ctx *orpheus.Context) error {
	path := ctx.GetArg(0)
	if path == "" {
		return errors.New(hestia.ErrCodeInvalidAuditConfig, "missing audit trail argument")
	}

	stats, err := hestia.AuditTrailStats(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "events:  %d\n", stats.TotalEvents)
	fmt.Fprintf(m.out, "storage: %s\n", humanize.IBytes(uint64(stats.StorageSize)))
	if stats.OldestEvent != nil && stats.NewestEvent != nil {
		fmt.Fprintf(m.out, "oldest:  %s (%s)\n", stats.OldestEvent.Format(time.RFC3339), humanize.Time(*stats.OldestEvent))
		fmt.Fprintf(m.out, "newest:  %s (%s)\n", stats.NewestEvent.Format(time.RFC3339), humanize.Time(*stats.NewestEvent))
	}
	for _, level := range sortedKeys(stats.EventsByLevel) {
		fmt.Fprintf(m.out, "  %-10s %d\n", level, stats.EventsByLevel[level])
	}
	return nil
}

// handleAuditCleanup deletes events older than --older-than.
func (m *Manager) handleAuditCleanup(ctx *orpheus.Context) error {
	path := ctx.GetArg(0)
	if path == "" {
		return errors.New(hestia.ErrCodeInvalidAuditConfig, "missing audit trail argument")
	}

	retention, err := parseExtendedDuration(ctx.GetFlagString("older-than"))
	if err != nil {
		return errors.Wrap(err, hestia.ErrCodeInvalidConfig, "invalid --older-than value")
	}

	if ctx.GetFlagBool("dry-run") {
		stats, err := hestia.AuditTrailStats(path)
		if err != nil {
			return err
		}
		kept, err := hestia.QueryAuditTrail(path, hestia.AuditFilter{Since: time.Now().Add(-retention)})
		if err != nil {
			return err
		}
		fmt.Fprintf(m.out, "Would delete %d of %d events\n", stats.TotalEvents-int64(len(kept)), stats.TotalEvents)
		return nil
	}

	deleted, err := hestia.PruneAuditTrail(path, retention)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Deleted %d events older than %s\n", deleted, retention)
	return nil
}

func (m *Manager) logCommand(event, path string) {
	if m.auditLogger == nil {
		return
	}
	m.auditLogger.Log(hestia.AuditInfo, event, "cli", path, nil, nil,
		map[string]interface{}{"args": strings.Join(os.Args[1:], " ")})
}
