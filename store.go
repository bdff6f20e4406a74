// store.go: Scalar global store
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import "sync/atomic"

// DefaultMaxMessageSize is the maximum message size used until the
// configuration sets maxmessagesize.
const DefaultMaxMessageSize = 8096

// DefaultNetstreamDriverName is reported when no driver was configured.
const DefaultNetstreamDriverName = "ptcp"

// DefaultEscapePrefix replaces control characters on reception.
const DefaultEscapePrefix byte = '#'

// ProtocolFamily restricts the address family used for network lookups
type ProtocolFamily int

const (
	FamilyUnspec ProtocolFamily = iota
	FamilyInet
	FamilyInet6
)

func (f ProtocolFamily) String() string {
	switch f {
	case FamilyInet:
		return "inet"
	case FamilyInet6:
		return "inet6"
	default:
		return "unspec"
	}
}

// setting is one typed cell of the store. Readers load the current
// pointer; writers publish a fresh value, never mutating a published one.
// A nil pointer means "unset" and reads as the default.
type setting[T any] struct {
	p   atomic.Pointer[T]
	def T
}

func (s *setting[T]) Get() T {
	if v := s.p.Load(); v != nil {
		return *v
	}
	return s.def
}

// Set publishes v and returns the value it replaced.
func (s *setting[T]) Set(v T) T {
	if prev := s.p.Swap(&v); prev != nil {
		return *prev
	}
	return s.def
}

func (s *setting[T]) Reset() {
	s.p.Store(nil)
}

func (s *setting[T]) IsSet() bool {
	return s.p.Load() != nil
}

type store struct {
	workDir             setting[string]
	optimizeUniProc     setting[bool]
	parseHostnameAndTag setting[bool]
	preserveFQDN        setting[bool]
	maxMessageSize      setting[int]
	defPFFamily         setting[ProtocolFamily]
	dropMalPTRMsgs      setting[bool]
	disallowWarning     setting[bool]
	disableDNS          setting[bool]
	stripDomains        setting[[]string]
	localHosts          setting[[]string]

	escapePrefix    setting[byte]
	dropTrailingLF  setting[bool]
	escapeCCOnRcv   setting[bool]
	spaceLFOnRcv    setting[bool]
	escape8BitOnRcv setting[bool]
	escapeTab       setting[bool]
	escapeCCCStyle  setting[bool]

	netstrmDriver   setting[string]
	netstrmCAFile   setting[string]
	netstrmKeyFile  setting[string]
	netstrmCertFile setting[string]

	sourceIPOfLocalClient   setting[string]
	actionReportSuspension  setting[bool]
	processInternalMessages setting[bool]
	debugOnShutdown         setting[bool]
}

func (s *store) initDefaults() {
	s.optimizeUniProc.def = true
	s.parseHostnameAndTag.def = true
	s.maxMessageSize.def = DefaultMaxMessageSize
	s.disallowWarning.def = true
	s.escapePrefix.def = DefaultEscapePrefix
	s.dropTrailingLF.def = true
	s.escapeCCOnRcv.def = true
	s.escapeTab.def = true
	s.netstrmDriver.def = DefaultNetstreamDriverName
	s.actionReportSuspension.def = true
	s.processInternalMessages.def = true
}

// WorkDir returns the working directory, or "" when none was set.
func (r *Registry) WorkDir() string { return r.s.workDir.Get() }

func (r *Registry) OptimizeUniProc() bool { return r.s.optimizeUniProc.Get() }

func (r *Registry) SetOptimizeUniProc(v bool) {
	r.changed("optimizeforuniprocessor", r.s.optimizeUniProc.Set(v), v)
}

func (r *Registry) ParseHostnameAndTag() bool { return r.s.parseHostnameAndTag.Get() }

func (r *Registry) SetParseHostnameAndTag(v bool) {
	r.changed("parsehostnameandtag", r.s.parseHostnameAndTag.Set(v), v)
}

// PreserveFQDN reports whether the FQDN is used as display name.
func (r *Registry) PreserveFQDN() bool { return r.s.preserveFQDN.Get() }

func (r *Registry) SetPreserveFQDN(v bool) {
	r.changed("preservefqdn", r.s.preserveFQDN.Set(v), v)
}

// MaxMessageSize returns the maximum size of a message in bytes.
func (r *Registry) MaxMessageSize() int { return r.s.maxMessageSize.Get() }

func (r *Registry) SetMaxMessageSize(v int) {
	r.changed("maxmessagesize", r.s.maxMessageSize.Set(v), v)
}

func (r *Registry) DefPFFamily() ProtocolFamily { return r.s.defPFFamily.Get() }

func (r *Registry) SetDefPFFamily(v ProtocolFamily) {
	r.changed("defpffamily", r.s.defPFFamily.Set(v).String(), v.String())
}

// DropMalPTRMsgs reports whether messages with malicious PTR records are dropped.
func (r *Registry) DropMalPTRMsgs() bool { return r.s.dropMalPTRMsgs.Get() }

func (r *Registry) SetDropMalPTRMsgs(v bool) {
	r.changed("dropmsgswithmaliciousdnsptrrecords", r.s.dropMalPTRMsgs.Set(v), v)
}

func (r *Registry) DisallowWarning() bool { return r.s.disallowWarning.Get() }

func (r *Registry) SetDisallowWarning(v bool) {
	r.changed("disallowwarning", r.s.disallowWarning.Set(v), v)
}

func (r *Registry) DisableDNS() bool { return r.s.disableDNS.Get() }

func (r *Registry) SetDisableDNS(v bool) {
	r.changed("disabledns", r.s.disableDNS.Set(v), v)
}

// StripDomains returns the domains stripped from remote host names.
// The returned slice must not be modified.
func (r *Registry) StripDomains() []string { return r.s.stripDomains.Get() }

func (r *Registry) SetStripDomains(domains []string) {
	v := append([]string(nil), domains...)
	r.changed("stripdomains", r.s.stripDomains.Set(v), v)
}

// LocalHosts returns the hosts logged with their short name.
// The returned slice must not be modified.
func (r *Registry) LocalHosts() []string { return r.s.localHosts.Get() }

func (r *Registry) SetLocalHosts(hosts []string) {
	v := append([]string(nil), hosts...)
	r.changed("localhosts", r.s.localHosts.Set(v), v)
}

func (r *Registry) ParserControlCharacterEscapePrefix() byte { return r.s.escapePrefix.Get() }

func (r *Registry) SetParserControlCharacterEscapePrefix(c byte) {
	r.changed("parser.controlcharacterescapeprefix", string(r.s.escapePrefix.Set(c)), string(c))
}

func (r *Registry) ParserDropTrailingLFOnReception() bool { return r.s.dropTrailingLF.Get() }

func (r *Registry) SetParserDropTrailingLFOnReception(v bool) {
	r.changed("parser.droptrailinglfonreception", r.s.dropTrailingLF.Set(v), v)
}

func (r *Registry) ParserEscapeControlCharactersOnReceive() bool { return r.s.escapeCCOnRcv.Get() }

func (r *Registry) SetParserEscapeControlCharactersOnReceive(v bool) {
	r.changed("parser.escapecontrolcharactersonreceive", r.s.escapeCCOnRcv.Set(v), v)
}

func (r *Registry) ParserSpaceLFOnReceive() bool { return r.s.spaceLFOnRcv.Get() }

func (r *Registry) SetParserSpaceLFOnReceive(v bool) {
	r.changed("parser.spacelfonreceive", r.s.spaceLFOnRcv.Set(v), v)
}

func (r *Registry) ParserEscape8BitCharactersOnReceive() bool { return r.s.escape8BitOnRcv.Get() }

func (r *Registry) SetParserEscape8BitCharactersOnReceive(v bool) {
	r.changed("parser.escape8bitcharactersonreceive", r.s.escape8BitOnRcv.Set(v), v)
}

func (r *Registry) ParserEscapeControlCharacterTab() bool { return r.s.escapeTab.Get() }

func (r *Registry) SetParserEscapeControlCharacterTab(v bool) {
	r.changed("parser.escapecontrolcharactertab", r.s.escapeTab.Set(v), v)
}

func (r *Registry) ParserEscapeControlCharactersCStyle() bool { return r.s.escapeCCCStyle.Get() }

func (r *Registry) SetParserEscapeControlCharactersCStyle(v bool) {
	r.changed("parser.escapecontrolcharacterscstyle", r.s.escapeCCCStyle.Set(v), v)
}

// DefaultNetstreamDriver returns the configured driver name, "ptcp" if unset.
func (r *Registry) DefaultNetstreamDriver() string { return r.s.netstrmDriver.Get() }

func (r *Registry) SetDefaultNetstreamDriver(name string) {
	r.changed("defaultnetstreamdriver", r.s.netstrmDriver.Set(name), name)
}

func (r *Registry) DefaultNetstreamDriverCAFile() string { return r.s.netstrmCAFile.Get() }

func (r *Registry) SetDefaultNetstreamDriverCAFile(path string) {
	r.changed("defaultnetstreamdrivercafile", r.s.netstrmCAFile.Set(path), path)
}

func (r *Registry) DefaultNetstreamDriverKeyFile() string { return r.s.netstrmKeyFile.Get() }

func (r *Registry) SetDefaultNetstreamDriverKeyFile(path string) {
	r.changed("defaultnetstreamdriverkeyfile", r.s.netstrmKeyFile.Set(path), path)
}

func (r *Registry) DefaultNetstreamDriverCertFile() string { return r.s.netstrmCertFile.Get() }

func (r *Registry) SetDefaultNetstreamDriverCertFile(path string) {
	r.changed("defaultnetstreamdrivercertfile", r.s.netstrmCertFile.Set(path), path)
}

// SourceIPOfLocalClient returns the source IP to report for messages
// from local clients, or "" when none was set.
func (r *Registry) SourceIPOfLocalClient() string { return r.s.sourceIPOfLocalClient.Get() }

func (r *Registry) SetSourceIPOfLocalClient(ip string) {
	r.changed("sourceipoflocalclient", r.s.sourceIPOfLocalClient.Set(ip), ip)
}

func (r *Registry) ActionReportSuspension() bool { return r.s.actionReportSuspension.Get() }

func (r *Registry) SetActionReportSuspension(v bool) {
	r.changed("action.reportsuspension", r.s.actionReportSuspension.Set(v), v)
}

// ProcessInternalMessages reports whether internal messages go through
// the regular message pipeline.
func (r *Registry) ProcessInternalMessages() bool { return r.s.processInternalMessages.Get() }

func (r *Registry) SetProcessInternalMessages(v bool) {
	r.changed("processinternalmessages", r.s.processInternalMessages.Set(v), v)
}

func (r *Registry) DebugOnShutdown() bool { return r.s.debugOnShutdown.Get() }

func (r *Registry) SetDebugOnShutdown(v bool) {
	r.changed("debug.onshutdown", r.s.debugOnShutdown.Set(v), v)
}

// ResetConfigVariables restores the settings controlled by legacy
// directives to their defaults.
func (r *Registry) ResetConfigVariables() {
	r.s.netstrmDriver.Reset()
	r.s.netstrmCAFile.Reset()
	r.s.netstrmKeyFile.Reset()
	r.s.netstrmCertFile.Reset()
	r.host.override.Reset()
	r.s.workDir.Reset()
	r.s.dropMalPTRMsgs.Reset()
	r.s.optimizeUniProc.Reset()
	r.s.preserveFQDN.Reset()
	r.s.maxMessageSize.Reset()
	r.s.escapePrefix.Reset()
	r.s.dropTrailingLF.Reset()
	r.s.escapeCCOnRcv.Reset()
	r.s.spaceLFOnRcv.Reset()
	r.s.escape8BitOnRcv.Reset()
	r.s.escapeTab.Reset()
	r.s.escapeCCCStyle.Reset()

	r.audit.Log(AuditWarn, "config_reset", "store", "", nil, nil, nil)
}

// Settings is a point-in-time copy of every registry value.
type Settings struct {
	WorkDir                 string         `json:"work_dir" yaml:"work_dir"`
	LocalHostName           string         `json:"local_host_name" yaml:"local_host_name"`
	LocalFQDN               string         `json:"local_fqdn" yaml:"local_fqdn"`
	LocalDomain             string         `json:"local_domain" yaml:"local_domain"`
	LocalHostIP             string         `json:"local_host_ip" yaml:"local_host_ip"`
	PreserveFQDN            bool           `json:"preserve_fqdn" yaml:"preserve_fqdn"`
	OptimizeUniProc         bool           `json:"optimize_uni_proc" yaml:"optimize_uni_proc"`
	ParseHostnameAndTag     bool           `json:"parse_hostname_and_tag" yaml:"parse_hostname_and_tag"`
	MaxMessageSize          int            `json:"max_message_size" yaml:"max_message_size"`
	DefPFFamily             ProtocolFamily `json:"def_pf_family" yaml:"def_pf_family"`
	DropMalPTRMsgs          bool           `json:"drop_mal_ptr_msgs" yaml:"drop_mal_ptr_msgs"`
	DisallowWarning         bool           `json:"disallow_warning" yaml:"disallow_warning"`
	DisableDNS              bool           `json:"disable_dns" yaml:"disable_dns"`
	StripDomains            []string       `json:"strip_domains,omitempty" yaml:"strip_domains,omitempty"`
	LocalHosts              []string       `json:"local_hosts,omitempty" yaml:"local_hosts,omitempty"`
	EscapePrefix            string         `json:"escape_prefix" yaml:"escape_prefix"`
	DropTrailingLF          bool           `json:"drop_trailing_lf" yaml:"drop_trailing_lf"`
	EscapeControlChars      bool           `json:"escape_control_chars" yaml:"escape_control_chars"`
	SpaceLF                 bool           `json:"space_lf" yaml:"space_lf"`
	Escape8Bit              bool           `json:"escape_8bit" yaml:"escape_8bit"`
	EscapeTab               bool           `json:"escape_tab" yaml:"escape_tab"`
	EscapeCStyle            bool           `json:"escape_c_style" yaml:"escape_c_style"`
	NetstreamDriver         string         `json:"netstream_driver" yaml:"netstream_driver"`
	NetstreamCAFile         string         `json:"netstream_ca_file,omitempty" yaml:"netstream_ca_file,omitempty"`
	NetstreamKeyFile        string         `json:"netstream_key_file,omitempty" yaml:"netstream_key_file,omitempty"`
	NetstreamCertFile       string         `json:"netstream_cert_file,omitempty" yaml:"netstream_cert_file,omitempty"`
	SourceIPOfLocalClient   string         `json:"source_ip_of_local_client,omitempty" yaml:"source_ip_of_local_client,omitempty"`
	ActionReportSuspension  bool           `json:"action_report_suspension" yaml:"action_report_suspension"`
	ProcessInternalMessages bool           `json:"process_internal_messages" yaml:"process_internal_messages"`
	DebugOnShutdown         bool           `json:"debug_on_shutdown" yaml:"debug_on_shutdown"`
	DebugLevel              int            `json:"debug_level" yaml:"debug_level"`
	MainQueueConfigured     bool           `json:"main_queue_configured" yaml:"main_queue_configured"`
	TerminationRequested    bool           `json:"termination_requested" yaml:"termination_requested"`
}

// Snapshot copies every setting. Values set concurrently with the call
// may or may not be reflected.
func (r *Registry) Snapshot() Settings {
	return Settings{
		WorkDir:                 r.WorkDir(),
		LocalHostName:           r.LocalHostName(),
		LocalFQDN:               r.LocalFQDNName(),
		LocalDomain:             r.LocalDomain(),
		LocalHostIP:             r.peekLocalHostIP(),
		PreserveFQDN:            r.PreserveFQDN(),
		OptimizeUniProc:         r.OptimizeUniProc(),
		ParseHostnameAndTag:     r.ParseHostnameAndTag(),
		MaxMessageSize:          r.MaxMessageSize(),
		DefPFFamily:             r.DefPFFamily(),
		DropMalPTRMsgs:          r.DropMalPTRMsgs(),
		DisallowWarning:         r.DisallowWarning(),
		DisableDNS:              r.DisableDNS(),
		StripDomains:            r.StripDomains(),
		LocalHosts:              r.LocalHosts(),
		EscapePrefix:            string(r.ParserControlCharacterEscapePrefix()),
		DropTrailingLF:          r.ParserDropTrailingLFOnReception(),
		EscapeControlChars:      r.ParserEscapeControlCharactersOnReceive(),
		SpaceLF:                 r.ParserSpaceLFOnReceive(),
		Escape8Bit:              r.ParserEscape8BitCharactersOnReceive(),
		EscapeTab:               r.ParserEscapeControlCharacterTab(),
		EscapeCStyle:            r.ParserEscapeControlCharactersCStyle(),
		NetstreamDriver:         r.DefaultNetstreamDriver(),
		NetstreamCAFile:         r.DefaultNetstreamDriverCAFile(),
		NetstreamKeyFile:        r.DefaultNetstreamDriverKeyFile(),
		NetstreamCertFile:       r.DefaultNetstreamDriverCertFile(),
		SourceIPOfLocalClient:   r.SourceIPOfLocalClient(),
		ActionReportSuspension:  r.ActionReportSuspension(),
		ProcessInternalMessages: r.ProcessInternalMessages(),
		DebugOnShutdown:         r.DebugOnShutdown(),
		DebugLevel:              r.DebugLevel(),
		MainQueueConfigured:     r.MainQueueConfig() != nil,
		TerminationRequested:    r.IsTerminationRequested(),
	}
}
