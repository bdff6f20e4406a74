// Package hestia is the process-wide configuration and global-state
// registry of a log-processing daemon.
//
// A Registry holds the settings every part of the daemon reads at run
// time: hostname identity, the maximum message size, parser escaping
// rules, netstream driver defaults, the working directory and the
// termination flag. Settings reach the registry through configuration
// directives, daemon command-line options or direct setter calls.
//
// # Architecture Overview
//
// The registry is built from these parts:
//  1. Scalar store: typed cells with lock-free getters and documented defaults
//  2. Parameter table and binding engine: structured global() parameters,
//     legacy $Directive lines and the PrepareLoad / DoneLoad cycle
//  3. Hostname identity: display-name selection and publication of the
//     current name as an immutable Prop
//  4. Debug sink: debug level, debug files and on-demand debugging
//  5. Config loader: native, YAML and JSON front-ends
//  6. Audit trail: buffered record of every change, SQLite or JSON lines
//  7. Reloader: SIGHUP and file-change triggered reloads
//
// # Quick Start
//
//	reg := hestia.New(hestia.Config{})
//	defer reg.Close()
//
//	if err := reg.LoadSystemHostname(); err != nil {
//		log.Printf("hostname: %v", err)
//	}
//	report, err := reg.LoadConfig("/etc/hestia.conf")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, e := range report.Errors {
//		log.Printf("config: %v", e)
//	}
//
//	max := reg.MaxMessageSize()
//	host := reg.LocalHostNameProp()
//
// # Configuration Syntax
//
// The native syntax mixes legacy directives with structured objects:
//
//	$WorkDirectory /var/spool/hestia
//	$PreserveFQDN on
//	global(maxMessageSize="64k" debug.onShutdown="on")
//	main_queue(queue.size="100000")
//
// The same configuration in YAML:
//
//	legacy:
//	  - "$WorkDirectory /var/spool/hestia"
//	  - "$PreserveFQDN on"
//	global:
//	  maxMessageSize: 64k
//	  debug.onShutdown: on
//	main_queue:
//	  queue.size: 100000
//
// Size values accept k, m, g and t suffixes; lowercase suffixes are
// powers of 1024, uppercase ones powers of 1000.
//
// # Error Handling
//
// Directive problems never abort a load. Each one is passed to
// Config.ErrorHandler, recorded in the audit trail and listed in the
// LoadReport. Errors carry go-errors codes such as ErrCodeUnknownParam
// and ErrCodeTypeMismatch.
//
// # Concurrency
//
// Getters may be called from any goroutine at any time. LoadConfig and
// LoadConfigData hold a registry lock for the whole load cycle, so
// concurrent loads run one after the other. Hostname publication replaces the current
// Prop atomically, so a reader always sees either the old or the new
// name.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package hestia
