// flags.go: Daemon command-line options
//
// The daemon accepts a handful of options that set store entries which
// no configuration directive reaches. Every option can also be given as
// a HESTIA_* environment variable, e.g. HESTIA_DISABLE_DNS=true.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	flashflags "github.com/agilira/flash-flags"
	"github.com/agilira/go-errors"
)

// ErrHelpRequested is returned by ApplyCommandLine when -h or --help is
// present. Nothing has been applied in that case.
var ErrHelpRequested = errors.New(ErrCodeInvalidCommandLine, "help requested")

// CommandLine holds the parsed daemon options that are not store entries.
type CommandLine struct {
	ConfigFile string
	Format     string

	flags *flashflags.FlagSet
}

// PrintHelp prints the option summary.
func (cl *CommandLine) PrintHelp() {
	cl.flags.PrintHelp()
}

// Options lists every option name.
func (cl *CommandLine) Options() []string {
	var names []string
	cl.flags.VisitAll(func(f *flashflags.Flag) {
		names = append(names, f.Name())
	})
	return names
}

func newDaemonFlags() *flashflags.FlagSet {
	fs := flashflags.New("hestia")
	fs.SetDescription("process-wide configuration registry of the log daemon")
	fs.String("config", "", "configuration file to load")
	fs.String("format", "auto", "configuration format: auto, native, yaml or json")
	fs.Int("debug-level", -1, "debug level: 0 off, 1 on demand, 2 full")
	fs.Bool("disable-dns", false, "never resolve sender addresses")
	fs.Bool("no-disallow-warning", false, "do not warn about disallowed senders")
	fs.StringSlice("strip-domains", nil, "domains stripped from sender hostnames")
	fs.StringSlice("local-hosts", nil, "hosts reported without domain")
	fs.Bool("ipv4-only", false, "use IPv4 only")
	fs.Bool("ipv6-only", false, "use IPv6 only")
	fs.Bool("no-parse-hostname", false, "do not parse hostname and tag from messages")
	fs.SetEnvPrefix("HESTIA")
	return fs
}

// ApplyCommandLine parses daemon options and writes them to the store.
// args excludes the program name. Options are validated as a whole
// before any store entry changes.
func (r *Registry) ApplyCommandLine(args []string) (*CommandLine, error) {
	fs := newDaemonFlags()
	cl := &CommandLine{flags: fs}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return cl, ErrHelpRequested
		}
	}

	if err := fs.Parse(args); err != nil {
		return cl, errors.Wrap(err, ErrCodeInvalidCommandLine, "failed to parse command line")
	}

	ipv4, ipv6 := fs.GetBool("ipv4-only"), fs.GetBool("ipv6-only")
	if ipv4 && ipv6 {
		return cl, errors.New(ErrCodeConflictingFamilies, "--ipv4-only and --ipv6-only are mutually exclusive")
	}

	cl.Format = fs.GetString("format")
	if cl.Format != "auto" {
		if _, ok := ParseFormat(cl.Format); !ok {
			return cl, errors.New(ErrCodeInvalidCommandLine, "unknown configuration format").
				WithContext("format", cl.Format)
		}
	}
	cl.ConfigFile = fs.GetString("config")

	switch {
	case ipv4:
		r.SetDefPFFamily(FamilyInet)
	case ipv6:
		r.SetDefPFFamily(FamilyInet6)
	}
	if level := fs.GetInt("debug-level"); level >= 0 {
		r.SetDebugLevel(level)
	}
	if fs.GetBool("disable-dns") {
		r.SetDisableDNS(true)
	}
	if fs.GetBool("no-disallow-warning") {
		r.SetDisallowWarning(false)
	}
	if fs.GetBool("no-parse-hostname") {
		r.SetParseHostnameAndTag(false)
	}
	if domains := fs.GetStringSlice("strip-domains"); len(domains) > 0 {
		r.SetStripDomains(domains)
	}
	if hosts := fs.GetStringSlice("local-hosts"); len(hosts) > 0 {
		r.SetLocalHosts(hosts)
	}
	return cl, nil
}

// LoadFormat returns the configuration format selected on the command
// line, detecting it from the file name for "auto".
func (cl *CommandLine) LoadFormat() ConfigFormat {
	if f, ok := ParseFormat(cl.Format); ok {
		return f
	}
	return DetectFormat(cl.ConfigFile)
}
