// main.go: registry host process
//
// hestiad builds a registry from the environment and the command line,
// loads the configuration and keeps it current until SIGINT or SIGTERM.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	goerrors "errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/agilira/hestia"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Printf("hestiad: %v", err)
		os.Exit(1)
	}
}

// run owns the registry, so every return path closes it and flushes the
// audit trail before the process exits.
func run(ctx context.Context, args []string) error {
	cfg, err := hestia.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	cfg.DebugWriter = os.Stderr

	reg := hestia.New(*cfg)
	defer func() {
		if cerr := reg.Close(); cerr != nil {
			log.Printf("hestiad: %v", cerr)
		}
	}()

	cl, err := reg.ApplyCommandLine(args)
	if err != nil {
		if goerrors.Is(err, hestia.ErrHelpRequested) {
			cl.PrintHelp()
			return nil
		}
		return err
	}

	if err := reg.LoadSystemHostname(); err != nil {
		log.Printf("hestiad: %v", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cl.ConfigFile == "" {
		if err := reg.GenerateLocalHostNameProperty(); err != nil {
			log.Printf("hestiad: %v", err)
		}
		log.Printf("hestiad: no configuration file, running with defaults as %s", reg.LocalHostName())
		<-ctx.Done()
		reg.RequestGlobalTermination()
		return nil
	}

	reloader := hestia.NewReloader(reg, cl.ConfigFile,
		hestia.WithFormat(cl.LoadFormat()),
		hestia.WithReloadCallback(func(report *hestia.LoadReport, err error) {
			if err != nil {
				log.Printf("hestiad: reload failed: %v", err)
				return
			}
			log.Printf("hestiad: load %s applied %d settings, %d errors",
				report.LoadID, report.Applied, len(report.Errors))
		}))
	if _, err := reloader.Reload(); err != nil {
		return err
	}
	log.Printf("hestiad: running as %s", reg.LocalHostName())

	go func() {
		<-ctx.Done()
		reg.RequestGlobalTermination()
	}()

	return reloader.Run(context.Background())
}
