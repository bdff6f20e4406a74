// Package cli provides the command-line interface for inspecting Hestia
// configurations and audit trails.
//
// Commands:
//   - check: parse a configuration and list rejected directives
//   - show: print the settings a configuration produces
//   - directives: list the known directives
//   - hostname: print the local host identity
//   - audit query|stats|cleanup: read and prune an audit trail
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"io"
	"os"

	"github.com/agilira/hestia"
	"github.com/agilira/orpheus/pkg/orpheus"
)

// Version of the hestia command.
const Version = "1.0.0"

// Manager wires the hestia commands into an Orpheus application.
type Manager struct {
	app         *orpheus.App
	auditLogger *hestia.AuditLogger // optional
	out         io.Writer
}

// NewManager creates a CLI manager writing to stdout.
func NewManager() *Manager {
	app := orpheus.New("hestia").
		SetDescription("Inspect daemon configurations and audit trails").
		SetVersion(Version)

	manager := &Manager{
		app: app,
		out: os.Stdout,
	}

	manager.setupConfigCommands()
	manager.setupAuditCommands()

	return manager
}

// WithAudit records every registry built by a command in the given
// audit trail.
func (m *Manager) WithAudit(auditLogger *hestia.AuditLogger) *Manager {
	m.auditLogger = auditLogger
	return m
}

// WithOutput redirects command output.
func (m *Manager) WithOutput(w io.Writer) *Manager {
	m.out = w
	return m
}

// Run executes the command line, without the program name.
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

func (m *Manager) setupConfigCommands() {
	// check <file> [--format=auto]
	checkCmd := orpheus.NewCommand("check", "Validate a configuration file").
		AddFlag("format", "f", "auto", "File format (auto|native|yaml|json)").
		SetHandler(m.handleCheck)
	m.app.AddCommand(checkCmd)

	// show <file> [--format=auto] [--output=text]
	showCmd := orpheus.NewCommand("show", "Show the settings produced by a configuration").
		AddFlag("format", "f", "auto", "File format (auto|native|yaml|json)").
		AddFlag("output", "o", "text", "Output format (text|json|yaml)").
		SetHandler(m.handleShow)
	m.app.AddCommand(showCmd)

	directivesCmd := orpheus.NewCommand("directives", "List configuration directives")
	directivesCmd.SetHandler(m.handleDirectives)
	directivesCmd.AddBoolFlag("legacy", "l", false, "List legacy $Directive names")
	m.app.AddCommand(directivesCmd)

	hostnameCmd := orpheus.NewCommand("hostname", "Show the local host identity")
	hostnameCmd.SetHandler(m.handleHostname)
	hostnameCmd.AddBoolFlag("fqdn", "", false, "Prefer the fully qualified name")
	hostnameCmd.AddFlag("interface", "i", "", "Take the local IP from this interface")
	m.app.AddCommand(hostnameCmd)
}

func (m *Manager) setupAuditCommands() {
	auditCmd := orpheus.NewCommand("audit", "Audit trail management")

	queryCmd := auditCmd.Subcommand("query", "Query an audit trail", m.handleAuditQuery)
	queryCmd.AddFlag("since", "s", "24h", "Time range (e.g., 24h, 7d, 2w)")
	queryCmd.AddFlag("event", "e", "", "Event type filter")
	queryCmd.AddFlag("component", "c", "", "Component filter")
	queryCmd.AddIntFlag("limit", "l", 100, "Maximum results")

	auditCmd.Subcommand("stats", "Show audit trail statistics", m.handleAuditStats)

	cleanupCmd := auditCmd.Subcommand("cleanup", "Delete old audit events", m.handleAuditCleanup)
	cleanupCmd.AddFlag("older-than", "o", "30d", "Delete entries older than")
	cleanupCmd.AddBoolFlag("dry-run", "d", false, "Show what would be deleted")

	m.app.AddCommand(auditCmd)
}
