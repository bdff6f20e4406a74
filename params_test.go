// params_test.go: Value coercion tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import "testing"

func TestCoerceSize(t *testing.T) {
	tests := []struct {
		raw  interface{}
		want int64
	}{
		{"8096", 8096},
		{"64k", 64 * 1024},
		{"64K", 64 * 1000},
		{"2m", 2 << 20},
		{"2M", 2000000},
		{"1g", 1 << 30},
		{"1G", 1000000000},
		{"1t", 1 << 40},
		{" 16 k ", 16 * 1024},
		{4096, 4096},
		{float64(512), 512},
	}
	for _, tc := range tests {
		v, err := Coerce(ParamSize, tc.raw)
		if err != nil {
			t.Errorf("Coerce(size, %v): %v", tc.raw, err)
			continue
		}
		if v.Int() != tc.want {
			t.Errorf("Coerce(size, %v) = %d, want %d", tc.raw, v.Int(), tc.want)
		}
	}
}

func TestCoerceSizeRejects(t *testing.T) {
	for _, raw := range []interface{}{"", "k", "-1", "12x", "abc", "99999999999t", -5, 1.5} {
		_, err := Coerce(ParamSize, raw)
		expectCode(t, err, ErrCodeTypeMismatch)
	}
}

func TestCoerceBinary(t *testing.T) {
	tests := []struct {
		raw  interface{}
		want bool
	}{
		{"on", true}, {"ON", true}, {"yes", true}, {"true", true}, {"1", true},
		{"off", false}, {"no", false}, {"false", false}, {"0", false},
		{true, true}, {false, false}, {1, true}, {0, false}, {float64(1), true},
	}
	for _, tc := range tests {
		v, err := Coerce(ParamBinary, tc.raw)
		if err != nil {
			t.Errorf("Coerce(binary, %v): %v", tc.raw, err)
			continue
		}
		if v.Bool() != tc.want {
			t.Errorf("Coerce(binary, %v) = %v, want %v", tc.raw, v.Bool(), tc.want)
		}
	}

	for _, raw := range []interface{}{"maybe", "", 2} {
		_, err := Coerce(ParamBinary, raw)
		expectCode(t, err, ErrCodeTypeMismatch)
	}
}

func TestCoerceScalars(t *testing.T) {
	v, err := Coerce(ParamInt, "42")
	if err != nil || v.Int() != 42 || v.String() != "42" {
		t.Errorf("int: %v %v", v, err)
	}
	if _, err := Coerce(ParamInt, "4k"); codeOf(err) != ErrCodeTypeMismatch {
		t.Errorf("int must not accept suffixes: %v", err)
	}

	v, err = Coerce(ParamWord, "  eth0 trailing")
	if err != nil || v.Str() != "eth0" {
		t.Errorf("word: %q %v", v.Str(), err)
	}
	_, err = Coerce(ParamWord, "   ")
	expectCode(t, err, ErrCodeTypeMismatch)

	v, err = Coerce(ParamString, "/var/spool/hestia")
	if err != nil || v.Str() != "/var/spool/hestia" {
		t.Errorf("string: %q %v", v.Str(), err)
	}

	v, err = Coerce(ParamChar, "%x")
	if err != nil || v.Char() != '%' || v.String() != "%" {
		t.Errorf("char: %q %v", v.Char(), err)
	}
	_, err = Coerce(ParamChar, "")
	expectCode(t, err, ErrCodeTypeMismatch)

	if _, err := Coerce(ParamCustom, nil); err != nil {
		t.Errorf("custom directives take no value: %v", err)
	}
}

func TestValueInterface(t *testing.T) {
	b, _ := Coerce(ParamBinary, "on")
	if b.Interface() != true || b.String() != "on" {
		t.Errorf("binary value: %v", b.Interface())
	}
	n, _ := Coerce(ParamSize, "1k")
	if n.Interface() != int64(1024) {
		t.Errorf("size value: %v", n.Interface())
	}
	if ParamSize.String() != "size" || ParamType(99).String() != "unknown" {
		t.Error("ParamType names")
	}
}
