// parser_structured.go: YAML and JSON configuration documents
//
// Both formats share one document layout:
//
//	legacy:               # optional, list of "$Directive value" lines
//	  - "$WorkDirectory /var/spool/rsyslog"
//	global:               # a single object or a list of objects
//	  maxMessageSize: 64k
//	main_queue:           # optional object, kept for the queue subsystem
//	  queue.size: 100000
//
// Other top-level keys are reported as skipped.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/agilira/go-errors"
	"go.yaml.in/yaml/v3"
)

func parseYAML(data []byte) ([]statement, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, ErrCodeSyntaxError, "invalid YAML configuration")
	}
	return documentStatements(doc)
}

func parseJSON(data []byte) ([]statement, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, ErrCodeSyntaxError, "invalid JSON configuration")
	}
	return documentStatements(doc)
}

// documentStatements orders a decoded document as legacy lines, global
// objects, the main_queue object and finally skipped keys.
func documentStatements(doc map[string]interface{}) ([]statement, error) {
	var stmts []statement
	sections := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		sections[strings.ToLower(k)] = v
	}

	if raw, ok := sections["legacy"]; ok {
		lines, ok := raw.([]interface{})
		if !ok {
			return nil, errors.New(ErrCodeSyntaxError, "legacy must be a list of directive lines")
		}
		for i, l := range lines {
			line, ok := l.(string)
			if !ok {
				return nil, errors.New(ErrCodeSyntaxError, "legacy entry is not a string").
					WithContext("index", i)
			}
			name, arg, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(line), "$"), " ")
			if name == "" {
				return nil, errors.New(ErrCodeSyntaxError, "legacy entry without name").
					WithContext("index", i)
			}
			stmts = append(stmts, statement{kind: stmtLegacy, line: i + 1, name: name, arg: strings.TrimSpace(arg)})
		}
	}

	if raw, ok := sections["global"]; ok {
		var objs []interface{}
		switch g := raw.(type) {
		case []interface{}:
			objs = g
		default:
			objs = []interface{}{g}
		}
		for i, o := range objs {
			block, err := asBlock(o)
			if err != nil {
				return nil, errors.Wrap(err, ErrCodeSyntaxError, "invalid global object").
					WithContext("index", i)
			}
			stmts = append(stmts, statement{kind: stmtGlobal, name: "global", block: block})
		}
	}

	if raw, ok := sections["main_queue"]; ok {
		block, err := asBlock(raw)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeSyntaxError, "invalid main_queue object")
		}
		stmts = append(stmts, statement{kind: stmtMainQueue, name: "main_queue", block: block})
	}

	var other []string
	for k := range sections {
		switch k {
		case "legacy", "global", "main_queue":
		default:
			other = append(other, k)
		}
	}
	sort.Strings(other)
	for _, k := range other {
		stmts = append(stmts, statement{kind: stmtOther, name: k})
	}
	return stmts, nil
}

func asBlock(raw interface{}) (Block, error) {
	switch m := raw.(type) {
	case map[string]interface{}:
		return Block(m).clone(), nil
	case nil:
		return Block{}, nil
	default:
		return nil, fmt.Errorf("expected an object, got %T", raw)
	}
}
