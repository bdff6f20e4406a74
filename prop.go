// prop.go: Immutable reference-counted string property
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"sync/atomic"

	"github.com/agilira/go-errors"
)

// Prop is a string value shared by many readers.
//
// A Prop is built with NewProp and SetString, then sealed with Finalize.
// Once finalized it is immutable and safe for concurrent reads. Every
// holder that keeps the Prop beyond a single call takes a reference with
// Retain and gives it back with Destruct. The value stays readable after
// the last Destruct; Destructed only reports the lifecycle state.
type Prop struct {
	val       string
	finalized atomic.Bool
	refs      atomic.Int32
}

// NewProp returns an unfinalized property holding one reference.
func NewProp() *Prop {
	p := &Prop{}
	p.refs.Store(1)
	return p
}

// NewStringProp builds and finalizes a property in one step.
func NewStringProp(s string) *Prop {
	p := NewProp()
	p.val = s
	p.finalized.Store(true)
	return p
}

// SetString sets the value of an unfinalized property.
func (p *Prop) SetString(s string) error {
	if p.finalized.Load() {
		return errors.New(ErrCodePropFinalized, "property is finalized")
	}
	p.val = s
	return nil
}

// Finalize seals the property. It returns p for chaining.
func (p *Prop) Finalize() *Prop {
	p.finalized.Store(true)
	return p
}

// Finalized reports whether Finalize was called.
func (p *Prop) Finalized() bool {
	return p.finalized.Load()
}

func (p *Prop) String() string {
	if p == nil {
		return ""
	}
	return p.val
}

func (p *Prop) Len() int {
	return len(p.String())
}

// Retain adds a reference.
func (p *Prop) Retain() *Prop {
	p.refs.Add(1)
	return p
}

// Destruct drops a reference.
func (p *Prop) Destruct() {
	if p == nil {
		return
	}
	if p.refs.Add(-1) < 0 {
		p.refs.Store(0)
	}
}

// Destructed reports whether every reference was dropped.
func (p *Prop) Destructed() bool {
	return p.refs.Load() <= 0
}

// Refs returns the current reference count.
func (p *Prop) Refs() int32 {
	return p.refs.Load()
}
