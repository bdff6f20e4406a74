// directives.go: Directive descriptor tables
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/agilira/go-errors"
)

// Handler applies a coerced directive value to the registry.
type Handler func(r *Registry, v Value) error

// Directive describes one configuration directive.
type Directive struct {
	Name string
	Type ParamType

	// Immediate directives take effect while their block is processed
	// instead of at DoneLoad.
	Immediate bool

	Handler Handler
	Usage   string
}

func setBool(set func(*Registry, bool)) Handler {
	return func(r *Registry, v Value) error {
		set(r, v.Bool())
		return nil
	}
}

func setString(set func(*Registry, string)) Handler {
	return func(r *Registry, v Value) error {
		set(r, v.Str())
		return nil
	}
}

func setMaxMessageSize(r *Registry, v Value) error {
	if v.Int() <= 0 {
		return errors.New(ErrCodeInvalidConfig, "maxmessagesize must be positive").
			WithContext("value", v.Int())
	}
	r.SetMaxMessageSize(int(v.Int()))
	return nil
}

func setDebugLevel(r *Registry, v Value) error {
	r.SetDebugLevel(int(v.Int()))
	return nil
}

// globalDirectives lists the directives of the global() block in the
// order DoneLoad applies them.
var globalDirectives = []Directive{
	{Name: "workdirectory", Type: ParamString, Usage: "directory for spool and state files",
		Handler: func(r *Registry, v Value) error { return r.SetWorkDir(v.Str()) }},
	{Name: "dropmsgswithmaliciousdnsptrrecords", Type: ParamBinary, Usage: "drop messages whose PTR record looks malicious",
		Handler: setBool((*Registry).SetDropMalPTRMsgs)},
	{Name: "localhostname", Type: ParamWord, Usage: "override the local host name",
		Handler: setString((*Registry).SetLocalHostNameOverride)},
	{Name: "preservefqdn", Type: ParamBinary, Usage: "report the fully qualified host name",
		Handler: setBool((*Registry).SetPreserveFQDN)},
	{Name: "debug.onshutdown", Type: ParamBinary, Usage: "enable on-demand debugging during shutdown",
		Handler: setBool((*Registry).SetDebugOnShutdown)},
	{Name: "debug.logfile", Type: ParamString, Usage: "file receiving debug output",
		Handler: func(r *Registry, v Value) error { return r.OpenAltDebugFile(v.Str()) }},
	{Name: "debug.level", Type: ParamInt, Usage: "debug level (0 off, 1 on demand, 2 full)",
		Handler: setDebugLevel},
	{Name: "defaultnetstreamdrivercafile", Type: ParamString, Usage: "CA file of the default netstream driver",
		Handler: setString((*Registry).SetDefaultNetstreamDriverCAFile)},
	{Name: "defaultnetstreamdriverkeyfile", Type: ParamString, Usage: "key file of the default netstream driver",
		Handler: setString((*Registry).SetDefaultNetstreamDriverKeyFile)},
	{Name: "defaultnetstreamdrivercertfile", Type: ParamString, Usage: "certificate file of the default netstream driver",
		Handler: setString((*Registry).SetDefaultNetstreamDriverCertFile)},
	{Name: "defaultnetstreamdriver", Type: ParamString, Usage: "default netstream driver",
		Handler: setString((*Registry).SetDefaultNetstreamDriver)},
	{Name: "maxmessagesize", Type: ParamSize, Usage: "maximum message size",
		Handler: setMaxMessageSize},
	{Name: "action.reportsuspension", Type: ParamBinary, Usage: "report action suspension",
		Handler: setBool((*Registry).SetActionReportSuspension)},
	{Name: "parser.controlcharacterescapeprefix", Type: ParamChar, Usage: "escape prefix for control characters",
		Handler: func(r *Registry, v Value) error { r.SetParserControlCharacterEscapePrefix(v.Char()); return nil }},
	{Name: "parser.droptrailinglfonreception", Type: ParamBinary, Usage: "drop trailing LF on reception",
		Handler: setBool((*Registry).SetParserDropTrailingLFOnReception)},
	{Name: "parser.escapecontrolcharactersonreceive", Type: ParamBinary, Usage: "escape control characters on reception",
		Handler: setBool((*Registry).SetParserEscapeControlCharactersOnReceive)},
	{Name: "parser.spacelfonreceive", Type: ParamBinary, Usage: "replace LF with space on reception",
		Handler: setBool((*Registry).SetParserSpaceLFOnReceive)},
	{Name: "parser.escape8bitcharactersonreceive", Type: ParamBinary, Usage: "escape 8-bit characters on reception",
		Handler: setBool((*Registry).SetParserEscape8BitCharactersOnReceive)},
	{Name: "parser.escapecontrolcharactertab", Type: ParamBinary, Usage: "escape the tab character",
		Handler: setBool((*Registry).SetParserEscapeControlCharacterTab)},
	{Name: "parser.escapecontrolcharacterscstyle", Type: ParamBinary, Usage: "use C-style escapes for control characters",
		Handler: setBool((*Registry).SetParserEscapeControlCharactersCStyle)},
	{Name: "processinternalmessages", Type: ParamBinary, Immediate: true, Usage: "route internal messages through the message pipeline",
		Handler: setBool((*Registry).SetProcessInternalMessages)},
}

// legacyAliases maps legacy directive names onto global() directives.
var legacyAliases = map[string]string{
	"workdirectory":                      "workdirectory",
	"dropmsgswithmaliciousdnsptrrecords": "dropmsgswithmaliciousdnsptrrecords",
	"defaultnetstreamdriver":             "defaultnetstreamdriver",
	"defaultnetstreamdrivercafile":       "defaultnetstreamdrivercafile",
	"defaultnetstreamdriverkeyfile":      "defaultnetstreamdriverkeyfile",
	"defaultnetstreamdrivercertfile":     "defaultnetstreamdrivercertfile",
	"localhostname":                      "localhostname",
	"preservefqdn":                       "preservefqdn",
	"maxmessagesize":                     "maxmessagesize",
	"debuglevel":                         "debug.level",

	// deprecated parser settings
	"controlcharacterescapeprefix":     "parser.controlcharacterescapeprefix",
	"droptrailinglfonreception":        "parser.droptrailinglfonreception",
	"escapecontrolcharactersonreceive": "parser.escapecontrolcharactersonreceive",
	"spacelfonreceive":                 "parser.spacelfonreceive",
	"escape8bitcharactersonreceive":    "parser.escape8bitcharactersonreceive",
	"escapecontrolcharactertab":        "parser.escapecontrolcharactertab",
}

// legacyOnly lists legacy directives without a global() counterpart.
var legacyOnly = []Directive{
	{Name: "debugfile", Type: ParamString, Usage: "file receiving debug output",
		Handler: func(r *Registry, v Value) error { return r.SetDebugFile(v.Str()) }},
	{Name: "localhostipif", Type: ParamWord, Usage: "interface providing the local host IP",
		Handler: func(r *Registry, v Value) error { return r.SetLocalHostIPIF(v.Str()) }},
	{Name: "optimizeforuniprocessor", Type: ParamBinary, Usage: "optimize for uniprocessor systems",
		Handler: setBool((*Registry).SetOptimizeUniProc)},
	{Name: "resetconfigvariables", Type: ParamCustom, Usage: "restore legacy settings to their defaults",
		Handler: func(r *Registry, _ Value) error { r.ResetConfigVariables(); return nil }},
}

// paramTable indexes the immutable global() descriptors.
type paramTable struct {
	descr []Directive
	index map[string]int
}

func newParamTable(descr []Directive) *paramTable {
	t := &paramTable{descr: descr, index: make(map[string]int, len(descr))}
	for i, d := range descr {
		t.index[d.Name] = i
	}
	return t
}

func (t *paramTable) lookup(name string) (int, bool) {
	i, ok := t.index[strings.ToLower(name)]
	return i, ok
}

var globalParams = newParamTable(globalDirectives)

// directiveTable holds legacy directives. Plugins may add entries until
// the table is sealed.
type directiveTable struct {
	mu     sync.RWMutex
	data   map[string]Directive
	sealed atomic.Bool
}

func newLegacyTable() *directiveTable {
	t := &directiveTable{data: make(map[string]Directive)}
	for legacy, target := range legacyAliases {
		i, _ := globalParams.lookup(target)
		d := globalDirectives[i]
		d.Name = legacy
		d.Immediate = true
		_ = t.register(d)
	}
	for _, d := range legacyOnly {
		d.Immediate = true
		_ = t.register(d)
	}
	return t
}

func (t *directiveTable) register(d Directive) error {
	if t.sealed.Load() {
		return errors.New(ErrCodeRegistrySealed, "directive table is sealed").
			WithContext("directive", d.Name)
	}
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d.Name), "$"))
	if name == "" || d.Handler == nil {
		return errors.New(ErrCodeInvalidConfig, "directive needs a name and a handler")
	}
	d.Name = name

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.data[name]; exists {
		return errors.New(ErrCodeDuplicateDirective, "directive already registered").
			WithContext("directive", name)
	}
	t.data[name] = d
	return nil
}

func (t *directiveTable) lookup(name string) (Directive, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.data[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "$"))]
	return d, ok
}

func (t *directiveTable) list() []Directive {
	t.mu.RLock()
	out := make([]Directive, 0, len(t.data))
	for _, d := range t.data {
		out = append(out, d)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RegisterLegacyDirective adds a legacy directive, typically from a
// plugin. Names are case-insensitive and may carry a leading '$'.
func (r *Registry) RegisterLegacyDirective(d Directive) error {
	return r.legacy.register(d)
}

// SealDirectives rejects further RegisterLegacyDirective calls.
func (r *Registry) SealDirectives() {
	r.legacy.sealed.Store(true)
}

// LegacyDirectives returns the legacy directives sorted by name.
func (r *Registry) LegacyDirectives() []Directive {
	return r.legacy.list()
}

// GlobalDirectives returns the global() block descriptors in apply order.
func GlobalDirectives() []Directive {
	return append([]Directive(nil), globalDirectives...)
}

// ExecLegacy runs a legacy directive right away. raw is the text after
// the directive name. Failures are reported and returned; the previous
// value stays in effect.
func (r *Registry) ExecLegacy(name, raw string) error {
	d, ok := r.legacy.lookup(name)
	if !ok {
		err := errors.New(ErrCodeUnknownDirective, "unknown legacy directive").
			WithContext("directive", name)
		r.report(err, name)
		return err
	}

	v, err := Coerce(d.Type, strings.TrimSpace(raw))
	if err != nil {
		r.report(err, d.Name)
		return err
	}
	if err := d.Handler(r, v); err != nil {
		r.report(err, d.Name)
		return err
	}
	return nil
}
