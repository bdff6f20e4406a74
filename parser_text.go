// parser_text.go: Native configuration syntax
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/agilira/go-errors"
)

// parseNative splits native configuration text into statements.
//
//	# comment
//	$WorkDirectory /var/spool/rsyslog
//	global(workDirectory="/var/spool/rsyslog" maxMessageSize="64k")
//	main_queue(queue.size="100000")
//
// Objects may span lines. Any other line or object is returned as
// stmtOther so the caller can list it.
func parseNative(text string) ([]statement, error) {
	var stmts []statement
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		lineNo := i + 1
		if line == "" || line[0] == '#' {
			continue
		}

		if line[0] == '$' {
			name, arg, _ := strings.Cut(line[1:], " ")
			if tab := strings.IndexByte(name, '\t'); tab >= 0 {
				arg = name[tab+1:] + " " + arg
				name = name[:tab]
			}
			if name == "" {
				return nil, syntaxError(lineNo, "legacy directive without name")
			}
			stmts = append(stmts, statement{kind: stmtLegacy, line: lineNo, name: name, arg: strings.TrimSpace(arg)})
			continue
		}

		objName, ok := objectName(line)
		if !ok {
			stmts = append(stmts, statement{kind: stmtOther, line: lineNo, name: firstField(line)})
			continue
		}

		// gather lines until the parenthesis closes
		body := line[strings.IndexByte(line, '(')+1:]
		rest := ""
		for {
			end, closed := scanObjectBody(body)
			if closed {
				rest = body[end+1:]
				body = body[:end]
				break
			}
			i++
			if i >= len(lines) {
				return nil, syntaxError(lineNo, fmt.Sprintf("%s() object is not closed", objName))
			}
			body += "\n" + lines[i]
		}

		st := statement{kind: stmtOther, line: lineNo, name: objName}
		switch strings.ToLower(objName) {
		case "global":
			st.kind = stmtGlobal
		case "main_queue":
			st.kind = stmtMainQueue
		}
		if st.kind != stmtOther {
			block, err := parseObjectParams(body)
			if err != nil {
				return nil, syntaxError(lineNo, err.Error())
			}
			st.block = block
		}
		stmts = append(stmts, st)

		// text after ')' belongs to the last gathered line and is
		// parsed as further statements
		if strings.TrimSpace(rest) != "" {
			lines[i] = rest
			i--
		}
	}
	return stmts, nil
}

func syntaxError(line int, msg string) error {
	return errors.New(ErrCodeSyntaxError, msg).WithContext("line", line)
}

func firstField(line string) string {
	if f := strings.Fields(line); len(f) > 0 {
		return f[0]
	}
	return line
}

// objectName recognises "name(" at the start of line.
func objectName(line string) (string, bool) {
	open := strings.IndexByte(line, '(')
	if open <= 0 {
		return "", false
	}
	name := strings.TrimSpace(line[:open])
	if name == "" {
		return "", false
	}
	for _, c := range name {
		if !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.') {
			return "", false
		}
	}
	return name, true
}

// scanObjectBody finds the closing parenthesis of an object body,
// skipping quoted strings and comments. A quoted value may continue on
// the next line.
func scanObjectBody(body string) (int, bool) {
	inQuote := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '#':
			nl := strings.IndexByte(body[i:], '\n')
			if nl < 0 {
				return 0, false
			}
			i += nl
		case c == ')':
			return i, true
		}
	}
	return 0, false
}

// parseObjectParams parses name="value" pairs. Bare values end at
// whitespace.
func parseObjectParams(body string) (Block, error) {
	block := make(Block)
	i := 0
	n := len(body)
	for {
		for i < n && (unicode.IsSpace(rune(body[i])) || body[i] == ',') {
			i++
		}
		if i >= n {
			return block, nil
		}
		if body[i] == '#' {
			for i < n && body[i] != '\n' {
				i++
			}
			continue
		}

		start := i
		for i < n && body[i] != '=' && !unicode.IsSpace(rune(body[i])) {
			i++
		}
		name := body[start:i]
		for i < n && unicode.IsSpace(rune(body[i])) {
			i++
		}
		if i >= n || body[i] != '=' {
			return nil, fmt.Errorf("parameter %q has no value", name)
		}
		i++
		for i < n && unicode.IsSpace(rune(body[i])) {
			i++
		}
		if name == "" || i >= n {
			return nil, fmt.Errorf("malformed parameter near %q", body[start:])
		}

		var value strings.Builder
		if body[i] == '"' {
			i++
			for ; i < n && body[i] != '"'; i++ {
				if body[i] == '\\' && i+1 < n {
					i++
				}
				value.WriteByte(body[i])
			}
			if i >= n {
				return nil, fmt.Errorf("unterminated string for %q", name)
			}
			i++
		} else {
			for ; i < n && !unicode.IsSpace(rune(body[i])) && body[i] != ','; i++ {
				value.WriteByte(body[i])
			}
		}
		block[strings.ToLower(name)] = value.String()
	}
}
