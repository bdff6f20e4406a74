// params.go: Directive value types and coercion
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agilira/go-errors"
)

// ParamType is the declared type of a directive value
type ParamType int

const (
	ParamString ParamType = iota
	ParamWord
	ParamBinary
	ParamInt
	ParamSize
	ParamChar
	// ParamCustom directives take no argument.
	ParamCustom
)

func (t ParamType) String() string {
	switch t {
	case ParamString:
		return "string"
	case ParamWord:
		return "word"
	case ParamBinary:
		return "binary"
	case ParamInt:
		return "int"
	case ParamSize:
		return "size"
	case ParamChar:
		return "char"
	case ParamCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Value is a coerced directive value. Type selects which accessor is
// meaningful.
type Value struct {
	Type ParamType
	str  string
	flag bool
	num  int64
	char byte
}

// Str returns the value of a string or word directive.
func (v Value) Str() string { return v.str }

// Bool returns the value of a binary directive.
func (v Value) Bool() bool { return v.flag }

// Int returns the value of an int or size directive.
func (v Value) Int() int64 { return v.num }

// Char returns the value of a char directive.
func (v Value) Char() byte { return v.char }

func (v Value) String() string {
	switch v.Type {
	case ParamString, ParamWord:
		return v.str
	case ParamBinary:
		if v.flag {
			return "on"
		}
		return "off"
	case ParamInt, ParamSize:
		return strconv.FormatInt(v.num, 10)
	case ParamChar:
		return string(v.char)
	default:
		return ""
	}
}

// Interface returns the value as a plain Go value for display and audit.
func (v Value) Interface() interface{} {
	switch v.Type {
	case ParamBinary:
		return v.flag
	case ParamInt, ParamSize:
		return v.num
	default:
		return v.String()
	}
}

// Coerce converts a raw configuration value to typ. Raw values come from
// the configuration front-ends: strings from the native syntax, and
// strings, bools, ints or floats from YAML and JSON.
func Coerce(typ ParamType, raw interface{}) (Value, error) {
	v := Value{Type: typ}
	switch typ {
	case ParamString:
		v.str = rawString(raw)
		return v, nil

	case ParamWord:
		fields := strings.Fields(rawString(raw))
		if len(fields) == 0 {
			return v, mismatch(typ, raw, "empty word")
		}
		v.str = fields[0]
		return v, nil

	case ParamBinary:
		b, ok := parseBinary(raw)
		if !ok {
			return v, mismatch(typ, raw, "expected on/off, yes/no, true/false or 1/0")
		}
		v.flag = b
		return v, nil

	case ParamInt:
		n, err := parseInt(raw)
		if err != nil {
			return v, mismatch(typ, raw, err.Error())
		}
		v.num = n
		return v, nil

	case ParamSize:
		n, err := parseSize(raw)
		if err != nil {
			return v, mismatch(typ, raw, err.Error())
		}
		v.num = n
		return v, nil

	case ParamChar:
		s := rawString(raw)
		if s == "" {
			return v, mismatch(typ, raw, "empty character")
		}
		v.char = s[0]
		return v, nil

	case ParamCustom:
		return v, nil
	}
	return v, mismatch(typ, raw, "unsupported parameter type")
}

func mismatch(typ ParamType, raw interface{}, reason string) error {
	return errors.New(ErrCodeTypeMismatch, fmt.Sprintf("cannot use %q as %s: %s", rawString(raw), typ, reason))
}

func rawString(raw interface{}) string {
	switch x := raw.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func parseBinary(raw interface{}) (bool, bool) {
	switch x := raw.(type) {
	case bool:
		return x, true
	case int:
		return x != 0, x == 0 || x == 1
	case int64:
		return x != 0, x == 0 || x == 1
	case float64:
		return x != 0, x == 0 || x == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "on", "yes", "true", "1":
			return true, true
		case "off", "no", "false", "0":
			return false, true
		}
	}
	return false, false
}

func parseInt(raw interface{}) (int64, error) {
	switch x := raw.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("value out of range")
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > math.MaxInt64 {
			return 0, fmt.Errorf("not an integer")
		}
		return int64(x), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	}
	return 0, fmt.Errorf("not an integer")
}

// parseSize accepts an integer with an optional unit suffix. Lowercase
// k, m, g, t are powers of 1024; uppercase K, M, G, T powers of 1000.
func parseSize(raw interface{}) (int64, error) {
	s, ok := raw.(string)
	if !ok {
		n, err := parseInt(raw)
		if err == nil && n < 0 {
			return 0, fmt.Errorf("negative size")
		}
		return n, err
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	mult := int64(1)
	switch s[len(s)-1] {
	case 'k':
		mult = 1 << 10
	case 'm':
		mult = 1 << 20
	case 'g':
		mult = 1 << 30
	case 't':
		mult = 1 << 40
	case 'K':
		mult = 1000
	case 'M':
		mult = 1000 * 1000
	case 'G':
		mult = 1000 * 1000 * 1000
	case 'T':
		mult = 1000 * 1000 * 1000 * 1000
	}
	if mult != 1 {
		s = strings.TrimSpace(s[:len(s)-1])
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative size")
	}
	if n > math.MaxInt64/mult {
		return 0, fmt.Errorf("size out of range")
	}
	return n * mult, nil
}
