// binder.go: Configuration load cycle for global() and main_queue() blocks
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	goerrors "errors"
	"sort"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/google/uuid"
)

// Block is one configuration object, the name/value pairs of a global()
// or main_queue() statement. Names are case-insensitive.
type Block map[string]interface{}

func (b Block) clone() Block {
	out := make(Block, len(b))
	for k, v := range b {
		out[strings.ToLower(k)] = v
	}
	return out
}

type boundValue struct {
	used bool
	val  Value
}

// boundValues holds the values accumulated for one load
type boundValues struct {
	vals []boundValue
}

// PrepareLoad starts a configuration load. Values bound by an earlier,
// unfinished load and the main queue object are dropped. It returns the
// identifier of the new load. A cycle driven by hand is not protected
// against a concurrent PrepareLoad; use LoadConfigData for that.
func (r *Registry) PrepareLoad() string {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	r.bound = nil
	r.mainQueue.Store(nil)
	r.loadID = uuid.NewString()
	r.Debugf("load %s prepared", r.loadID)
	return r.loadID
}

// LoadID returns the identifier of the current or last load.
func (r *Registry) LoadID() string {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	return r.loadID
}

// ProcessGlobalBlock binds the values of a global() block.
//
// Unknown names and values that do not coerce to the declared type are
// reported and skipped; the remaining names are still bound. A name bound
// by an earlier block of the same load is overwritten. Immediate
// directives are applied before returning. The returned error joins
// every problem found.
func (r *Registry) ProcessGlobalBlock(b Block) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if r.bound == nil {
		r.bound = &boundValues{vals: make([]boundValue, len(r.params.descr))}
	}

	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		i, ok := r.params.lookup(name)
		if !ok {
			err := errors.New(ErrCodeUnknownParam, "parameter not known in global()").
				WithContext("parameter", name)
			r.report(err, name)
			errs = append(errs, err)
			continue
		}

		d := r.params.descr[i]
		v, err := Coerce(d.Type, b[name])
		if err != nil {
			r.report(err, d.Name)
			errs = append(errs, err)
			continue
		}
		r.bound.vals[i] = boundValue{used: true, val: v}
	}

	for i, d := range r.params.descr {
		if d.Immediate && r.bound.vals[i].used {
			if err := r.apply(d, r.bound.vals[i].val); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return goerrors.Join(errs...)
}

// ProcessMainQueueBlock stores the main queue object. Only the first
// object of a load is kept; later ones are reported and ignored.
func (r *Registry) ProcessMainQueueBlock(b Block) error {
	obj := b.clone()
	if !r.mainQueue.CompareAndSwap(nil, &obj) {
		err := errors.New(ErrCodeMainQueueAlreadySet,
			"main_queue() object can only be specified once - all but first ignored")
		r.report(err, "main_queue")
		return err
	}
	r.audit.Log(AuditInfo, "setting_changed", "binder", "", nil, map[string]interface{}(obj),
		map[string]interface{}{"setting": "main_queue"})
	return nil
}

// MainQueueConfig returns the main queue object, or nil if none was given.
// The returned Block must not be modified.
func (r *Registry) MainQueueConfig() Block {
	if p := r.mainQueue.Load(); p != nil {
		return *p
	}
	return nil
}

// DestructMainQueueConfig releases the main queue object.
func (r *Registry) DestructMainQueueConfig() {
	r.mainQueue.Store(nil)
}

// DoneLoad applies every bound value that was not applied immediately,
// in descriptor order, and releases the bound values. Failing directives
// are reported; the others are still applied.
func (r *Registry) DoneLoad() error {
	_, err := r.doneLoad()
	return err
}

func (r *Registry) doneLoad() (int, error) {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	var errs []error
	applied := 0
	if r.bound != nil {
		for i, d := range r.params.descr {
			bv := r.bound.vals[i]
			if !bv.used || d.Immediate {
				continue
			}
			if err := r.apply(d, bv.val); err != nil {
				errs = append(errs, err)
				continue
			}
			applied++
		}
	}

	if r.DebugOnShutdown() && r.DebugMode() != DebugFull {
		r.debug.enterOnDemand()
	}

	r.bound = nil

	r.audit.Log(AuditInfo, "load_finalized", "binder", "", nil, nil,
		map[string]interface{}{"load_id": r.loadID, "applied": applied, "errors": len(errs)})
	return applied, goerrors.Join(errs...)
}

func (r *Registry) apply(d Directive, v Value) error {
	if d.Handler == nil {
		err := errors.New(ErrCodeUnhandledParam, "internal error: bound parameter has no handler").
			WithContext("parameter", d.Name)
		r.report(err, d.Name)
		return err
	}
	if err := d.Handler(r, v); err != nil {
		r.report(err, d.Name)
		return err
	}
	r.Debugf("applied %s=%s", d.Name, v)
	return nil
}
