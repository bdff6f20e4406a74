// main.go: hestia command
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/agilira/hestia"
	"github.com/agilira/hestia/cmd/cli"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the exit status. The audit logger is closed before run
// returns so buffered events reach the trail.
func run(args []string, stdout, stderr io.Writer) int {
	manager := cli.NewManager().WithOutput(stdout)

	// HESTIA_AUDIT_* also records CLI usage
	if cfg, err := hestia.LoadConfigFromEnv(); err == nil && cfg.Audit.Enabled {
		if logger, err := hestia.NewAuditLogger(cfg.Audit); err == nil {
			defer func() {
				if cerr := logger.Close(); cerr != nil {
					fmt.Fprintf(stderr, "hestia: %v\n", cerr)
				}
			}()
			manager.WithAudit(logger)
		}
	}

	if err := manager.Run(args); err != nil {
		fmt.Fprintf(stderr, "hestia: %v\n", err)
		return 1
	}
	return 0
}
