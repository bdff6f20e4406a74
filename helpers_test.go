// helpers_test.go: Shared test helpers
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	goerrors "errors"
	"sync"
	"testing"

	"github.com/agilira/go-errors"
)

// errorSink collects everything passed to Config.ErrorHandler.
type errorSink struct {
	mu         sync.Mutex
	errs       []error
	directives []string
}

func (s *errorSink) handle(err error, directive string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
	s.directives = append(s.directives, directive)
}

func (s *errorSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

func (s *errorSink) last() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) == 0 {
		return nil
	}
	return s.errs[len(s.errs)-1]
}

// newTestRegistry returns a registry with a fixed hostname and a fake
// interface resolver. It is closed when the test ends.
func newTestRegistry(t *testing.T) (*Registry, *errorSink) {
	t.Helper()
	sink := &errorSink{}
	r := New(Config{
		ErrorHandler: sink.handle,
		HostnameFunc: func() (string, error) { return "node1.example.com", nil },
		InterfaceResolver: func(ifname string) (string, error) {
			if ifname == "eth0" {
				return "192.0.2.10", nil
			}
			return "", goerrors.New("no such interface")
		},
	})
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return r, sink
}

// codeOf returns the go-errors code carried by err, or "".
func codeOf(err error) string {
	var ec errors.ErrorCoder
	if goerrors.As(err, &ec) {
		return string(ec.ErrorCode())
	}
	return ""
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	if got := codeOf(err); got != code {
		t.Fatalf("expected error code %s, got %q (%v)", code, got, err)
	}
}
