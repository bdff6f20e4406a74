// reload.go: Configuration reload on SIGHUP and file change
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"context"
	goerrors "errors"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// DefaultTerminationPoll is how often Run checks the termination flag.
const DefaultTerminationPoll = 100 * time.Millisecond

var errTerminated = goerrors.New("termination requested")

// fileStat identifies a version of the configuration file.
type fileStat struct {
	modTime time.Time
	size    int64
}

// ReloadFunc observes every reload attempt.
type ReloadFunc func(report *LoadReport, err error)

// ReloaderOption configures a Reloader
type ReloaderOption func(*Reloader)

// WithFormat forces the configuration format instead of detecting it
// from the file name.
func WithFormat(f ConfigFormat) ReloaderOption {
	return func(rl *Reloader) { rl.format = f }
}

// WithReloadCallback registers fn to be called after each reload.
func WithReloadCallback(fn ReloadFunc) ReloaderOption {
	return func(rl *Reloader) { rl.onReload = fn }
}

// WithSignals enables SIGHUP (reload) and SIGUSR1 (debug toggle)
// handling in Run. Enabled by default.
func WithSignals(enabled bool) ReloaderOption {
	return func(rl *Reloader) { rl.signals = enabled }
}

// WithTerminationPoll sets how often Run looks at the termination flag.
func WithTerminationPoll(d time.Duration) ReloaderOption {
	return func(rl *Reloader) {
		if d > 0 {
			rl.termPoll = d
		}
	}
}

// Reloader re-applies a configuration file to a Registry.
type Reloader struct {
	reg      *Registry
	path     string
	format   ConfigFormat
	onReload ReloadFunc
	signals  bool
	termPoll time.Duration

	mu         sync.Mutex // serializes reload cycles
	last       fileStat
	lastReload time.Time
	reloads    atomic.Int64

	running atomic.Bool
}

// NewReloader creates a reloader for the configuration file at path.
func NewReloader(reg *Registry, path string, opts ...ReloaderOption) *Reloader {
	rl := &Reloader{
		reg:      reg,
		path:     filepath.Clean(path),
		format:   DetectFormat(path),
		signals:  true,
		termPoll: DefaultTerminationPoll,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Reload runs a complete load cycle for the file. Concurrent calls are
// serialized.
func (rl *Reloader) Reload() (*LoadReport, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.reloadLocked()
}

func (rl *Reloader) reloadLocked() (*LoadReport, error) {
	report, err := rl.load()
	if err != nil {
		rl.reg.report(err, "reload")
	} else {
		rl.reloads.Add(1)
		rl.lastReload = timecache.CachedTime()
		rl.reg.Debugf("configuration reloaded from %s, load %s", rl.path, report.LoadID)
	}
	if rl.onReload != nil {
		rl.onReload(report, err)
	}
	return report, err
}

func (rl *Reloader) load() (*LoadReport, error) {
	info, err := os.Stat(rl.path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOError, "cannot stat configuration").
			WithContext("path", rl.path)
	}
	data, err := os.ReadFile(rl.path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOError, "cannot read configuration").
			WithContext("path", rl.path)
	}
	report, err := rl.reg.LoadConfigData(data, rl.format)
	if err != nil {
		return nil, err
	}
	rl.last = fileStat{modTime: info.ModTime(), size: info.Size()}
	return report, nil
}

// Reloads returns the number of successful reloads.
func (rl *Reloader) Reloads() int64 { return rl.reloads.Load() }

// LastReload returns the time of the last successful reload.
func (rl *Reloader) LastReload() time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.lastReload
}

// reloadIfChanged reloads when the file differs from the last version
// loaded. Editors often emit several events for one save.
func (rl *Reloader) reloadIfChanged() {
	info, err := os.Stat(rl.path)
	if err != nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if info.ModTime().Equal(rl.last.modTime) && info.Size() == rl.last.size {
		return
	}
	_, _ = rl.reloadLocked()
}

// Run watches for SIGHUP and for changes of the configuration file
// until ctx ends or a global termination is requested. Only one Run may
// be active per Reloader.
func (rl *Reloader) Run(ctx context.Context) error {
	if !rl.running.CompareAndSwap(false, true) {
		return errors.New(ErrCodeReloaderBusy, "reloader is already running").
			WithContext("path", rl.path)
	}
	defer rl.running.Store(false)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, ErrCodeIOError, "cannot create file watcher")
	}
	defer watcher.Close()

	// the parent directory is watched so that editors replacing the file
	// by rename are noticed
	if err := watcher.Add(filepath.Dir(rl.path)); err != nil {
		return errors.Wrap(err, ErrCodeIOError, "cannot watch configuration directory").
			WithContext("path", rl.path)
	}

	sigCh := make(chan os.Signal, 1)
	if rl.signals {
		signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGUSR1)
		defer signal.Stop(sigCh)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rl.watchLoop(gctx, watcher) })
	g.Go(func() error { return rl.signalLoop(gctx, sigCh) })
	g.Go(func() error { return rl.terminationLoop(gctx) })

	if err := g.Wait(); err != nil && !goerrors.Is(err, errTerminated) {
		return err
	}
	return nil
}

func (rl *Reloader) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) error {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != rl.path {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				rl.reloadIfChanged()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			rl.reg.report(errors.Wrap(err, ErrCodeIOError, "file watch error").
				WithContext("path", rl.path), "reload")
		case <-ctx.Done():
			return nil
		}
	}
}

func (rl *Reloader) signalLoop(ctx context.Context, sigCh <-chan os.Signal) error {
	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				_, _ = rl.Reload()
			case syscall.SIGUSR1:
				mode := rl.reg.ToggleDebug()
				rl.reg.Debugf("debug mode switched to %s", mode)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (rl *Reloader) terminationLoop(ctx context.Context) error {
	ticker := time.NewTicker(rl.termPoll)
	defer ticker.Stop()
	for {
		if rl.reg.IsTerminationRequested() {
			return errTerminated
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}
