// parsers_test.go: Configuration loader tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := map[string]ConfigFormat{
		"/etc/hestia.conf":  FormatNative,
		"/etc/hestia":       FormatNative,
		"/etc/hestia.yaml":  FormatYAML,
		"/etc/hestia.YML":   FormatYAML,
		"/etc/hestia.json":  FormatJSON,
		"relative/cfg.json": FormatJSON,
	}
	for path, want := range tests {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %s, want %s", path, got, want)
		}
	}

	if f, ok := ParseFormat("YAML"); !ok || f != FormatYAML {
		t.Error("ParseFormat(YAML)")
	}
	if _, ok := ParseFormat("auto"); ok {
		t.Error("auto is not a concrete format")
	}
}

func TestParseNative(t *testing.T) {
	text := `# sample
$WorkDirectory /var/spool/hestia
$PreserveFQDN	on

global(maxMessageSize="64k"
       localHostName="relay # not a comment"   # a comment
       parser.controlCharacterEscapePrefix="\\")
main_queue(queue.size="100000" queue.type=LinkedList)
module(load="imudp")
*.* /var/log/messages
`
	stmts, err := parseNative(text)
	if err != nil {
		t.Fatalf("parseNative: %v", err)
	}
	if len(stmts) != 6 {
		t.Fatalf("expected 6 statements, got %d: %+v", len(stmts), stmts)
	}

	if stmts[0].kind != stmtLegacy || stmts[0].name != "WorkDirectory" || stmts[0].arg != "/var/spool/hestia" {
		t.Errorf("legacy statement: %+v", stmts[0])
	}
	if stmts[1].name != "PreserveFQDN" || stmts[1].arg != "on" {
		t.Errorf("tab separated legacy statement: %+v", stmts[1])
	}

	g := stmts[2]
	if g.kind != stmtGlobal || g.line != 5 {
		t.Fatalf("global statement: %+v", g)
	}
	if g.block["maxmessagesize"] != "64k" {
		t.Errorf("maxmessagesize: %v", g.block["maxmessagesize"])
	}
	if g.block["localhostname"] != "relay # not a comment" {
		t.Errorf("quoted value: %v", g.block["localhostname"])
	}
	if g.block["parser.controlcharacterescapeprefix"] != `\` {
		t.Errorf("escaped value: %v", g.block["parser.controlcharacterescapeprefix"])
	}

	mq := stmts[3]
	if mq.kind != stmtMainQueue || mq.block["queue.type"] != "LinkedList" {
		t.Errorf("main_queue statement: %+v", mq)
	}
	if stmts[4].kind != stmtOther || stmts[4].name != "module" {
		t.Errorf("other object: %+v", stmts[4])
	}
	if stmts[5].kind != stmtOther {
		t.Errorf("selector line: %+v", stmts[5])
	}
}

func TestParseNativeObjectsOnOneLine(t *testing.T) {
	stmts, err := parseNative(`global(maxMessageSize="2k") global(preserveFQDN="on")
main_queue(queue.size="10") global(localHostName="a)b") # trailing comment
global(
  workDirectory="/tmp") module(load="imudp") *.* /var/log/messages
`)
	if err != nil {
		t.Fatalf("parseNative: %v", err)
	}

	want := []struct {
		kind stmtKind
		name string
		line int
	}{
		{stmtGlobal, "global", 1},
		{stmtGlobal, "global", 1},
		{stmtMainQueue, "main_queue", 2},
		{stmtGlobal, "global", 2},
		{stmtGlobal, "global", 3},
		{stmtOther, "module", 4},
		{stmtOther, "*.*", 4},
	}
	if len(stmts) != len(want) {
		t.Fatalf("expected %d statements, got %d: %+v", len(want), len(stmts), stmts)
	}
	for i, w := range want {
		if stmts[i].kind != w.kind || stmts[i].name != w.name || stmts[i].line != w.line {
			t.Errorf("statement %d: got %+v, want %+v", i, stmts[i], w)
		}
	}
	if stmts[1].block["preservefqdn"] != "on" || stmts[3].block["localhostname"] != "a)b" {
		t.Errorf("blocks: %v %v", stmts[1].block, stmts[3].block)
	}
}

func TestLoadConfigObjectsOnOneLine(t *testing.T) {
	r, _ := newTestRegistry(t)

	report, err := r.LoadConfigData([]byte(
		"main_queue(queue.size=\"10\") global(maxMessageSize=\"2k\") global(preserveFQDN=\"on\") module(load=\"imtcp\")\n"),
		FormatNative)
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK() || report.Applied != 2 {
		t.Errorf("report: applied=%d errors=%v", report.Applied, report.ErrorStrings())
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "module" {
		t.Errorf("skipped: %v", report.Skipped)
	}
	if r.MaxMessageSize() != 2048 || !r.PreserveFQDN() || r.MainQueueConfig() == nil {
		t.Errorf("objects after the first were dropped: %+v", r.Snapshot())
	}
}

func TestLoadConfigHostnameSelection(t *testing.T) {
	tests := []struct {
		name   string
		config string
		want   string
	}{
		{"override", `global(localHostName="myhost" preserveFQDN="off")`, "myhost"},
		{"legacy override", "$LocalHostName myhost\n$PreserveFQDN off", "myhost"},
		{"fqdn", `global(preserveFQDN="on")`, "node1.example.com"},
		{"short", `global(preserveFQDN="off")`, "node1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, sink := newTestRegistry(t)
			if err := r.LoadSystemHostname(); err != nil {
				t.Fatal(err)
			}

			report, err := r.LoadConfigData([]byte(tc.config+"\n"), FormatNative)
			if err != nil {
				t.Fatal(err)
			}
			if !report.OK() || sink.count() != 0 {
				t.Fatalf("load errors: %v", report.ErrorStrings())
			}
			if got := r.LocalHostName(); got != tc.want {
				t.Errorf("LocalHostName() = %q, want %q", got, tc.want)
			}
			if got := r.LocalHostNameProp().String(); got != tc.want {
				t.Errorf("LocalHostNameProp() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestConcurrentLoadsAreSerialized(t *testing.T) {
	r, sink := newTestRegistry(t)

	var wg sync.WaitGroup
	for g := 1; g <= 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			conf := fmt.Sprintf("global(maxMessageSize=\"%dk\")\nmain_queue(queue.size=\"%d\")\n", g, g)
			for i := 0; i < 20; i++ {
				report, err := r.LoadConfigData([]byte(conf), FormatNative)
				if err != nil {
					t.Errorf("load: %v", err)
					return
				}
				if !report.OK() || report.Applied != 1 {
					t.Errorf("interleaved load: applied=%d errors=%v", report.Applied, report.ErrorStrings())
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if sink.count() != 0 {
		t.Errorf("concurrent loads reported %d problems, last: %v", sink.count(), sink.last())
	}
	size := r.MaxMessageSize()
	if size%1024 != 0 || size < 1024 || size > 8*1024 {
		t.Errorf("final size %d is not one of the loaded values", size)
	}
}

func TestParseNativeSyntaxErrors(t *testing.T) {
	tests := []string{
		"global(maxMessageSize=\"64k\"\n",
		"global(maxMessageSize)",
		"global(localHostName=\"open)\n",
		"$\n",
	}
	for _, text := range tests {
		_, err := parseNative(text)
		expectCode(t, err, ErrCodeSyntaxError)
	}
}

func TestLoadConfigNative(t *testing.T) {
	r, _ := newTestRegistry(t)
	dir := t.TempDir()
	if err := r.LoadSystemHostname(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "hestia.conf")
	conf := fmt.Sprintf(`$WorkDirectory %s
$NoSuchDirective 1
global(maxMessageSize="2k" preserveFQDN="on")
global(unknownParameter="x")
main_queue(queue.size="10")
`, dir)
	if err := os.WriteFile(path, []byte(conf), 0600); err != nil {
		t.Fatal(err)
	}

	report, err := r.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if report.Format != "native" || report.LoadID == "" {
		t.Errorf("report header: %+v", report)
	}
	if report.Legacy != 2 {
		t.Errorf("legacy count: %d", report.Legacy)
	}
	if len(report.Errors) != 2 || report.OK() {
		t.Errorf("expected 2 directive errors, got %v", report.ErrorStrings())
	}
	if report.Applied != 2 {
		t.Errorf("applied: %d", report.Applied)
	}

	if r.WorkDir() != dir || r.MaxMessageSize() != 2048 || !r.PreserveFQDN() {
		t.Errorf("settings not applied: %+v", r.Snapshot())
	}
	if r.MainQueueConfig()["queue.size"] != "10" {
		t.Errorf("main queue: %v", r.MainQueueConfig())
	}
	if r.LocalHostNameProp().String() != "node1.example.com" {
		t.Errorf("hostname property not regenerated: %q", r.LocalHostNameProp())
	}
}

func TestLoadConfigYAML(t *testing.T) {
	r, _ := newTestRegistry(t)

	data := []byte(`
legacy:
  - "$DefaultNetstreamDriver gtls"
  - "ResetConfigVariables"
  - "$DebugLevel 1"
global:
  - maxMessageSize: 128k
    dropMsgsWithMaliciousDnsPtrRecords: true
  - processInternalMessages: false
main_queue:
  queue.size: 5000
modules:
  - imudp
`)
	report, err := r.LoadConfigData(data, FormatYAML)
	if err != nil {
		t.Fatalf("LoadConfigData: %v", err)
	}
	if !report.OK() {
		t.Fatalf("directive errors: %v", report.ErrorStrings())
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "modules" {
		t.Errorf("skipped: %v", report.Skipped)
	}

	if r.DefaultNetstreamDriver() != DefaultNetstreamDriverName {
		t.Error("legacy lines should run in order: reset after driver")
	}
	if r.DebugMode() != DebugOnDemand {
		t.Errorf("debug mode: %s", r.DebugMode())
	}
	if r.MaxMessageSize() != 128*1024 || !r.DropMalPTRMsgs() || r.ProcessInternalMessages() {
		t.Errorf("global settings: %+v", r.Snapshot())
	}
	if r.MainQueueConfig()["queue.size"] != 5000 {
		t.Errorf("main queue: %v", r.MainQueueConfig())
	}
}

func TestLoadConfigJSON(t *testing.T) {
	r, _ := newTestRegistry(t)

	data := []byte(`{
  "global": {"maxMessageSize": 4096, "parser.escapeControlCharacterTab": "off"},
  "legacy": ["$OptimizeForUniprocessor off"]
}`)
	report, err := r.LoadConfigData(data, FormatJSON)
	if err != nil {
		t.Fatalf("LoadConfigData: %v", err)
	}
	if !report.OK() {
		t.Fatalf("directive errors: %v", report.ErrorStrings())
	}
	if r.MaxMessageSize() != 4096 || r.ParserEscapeControlCharacterTab() || r.OptimizeUniProc() {
		t.Errorf("settings: %+v", r.Snapshot())
	}
}

func TestLoadConfigStructuredErrors(t *testing.T) {
	r, _ := newTestRegistry(t)

	tests := []struct {
		format ConfigFormat
		data   string
	}{
		{FormatJSON, `{"global": `},
		{FormatJSON, `{"legacy": "not a list"}`},
		{FormatYAML, "global: [1, 2]"},
		{FormatYAML, "legacy:\n  - 5\n"},
		{FormatYAML, "main_queue: text"},
	}
	for _, tc := range tests {
		_, err := r.LoadConfigData([]byte(tc.data), tc.format)
		expectCode(t, err, ErrCodeSyntaxError)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.LoadConfig(filepath.Join(t.TempDir(), "missing.conf"))
	expectCode(t, err, ErrCodeIOError)
}

func TestCheckConfig(t *testing.T) {
	n, err := CheckConfig([]byte("$A 1\nglobal(a=\"b\")\n"), FormatNative)
	if err != nil || n != 2 {
		t.Errorf("CheckConfig: %d %v", n, err)
	}
	_, err = CheckConfig([]byte("x"), ConfigFormat(42))
	expectCode(t, err, ErrCodeUnsupportedFormat)
}
