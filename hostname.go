// hostname.go: Local hostname identity
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/agilira/go-errors"
)

const (
	// FallbackHostName is the display name when no hostname is known.
	FallbackHostName = "[localhost]"

	// DefaultLocalHostIP is pinned by LocalHostIP when nothing was configured.
	DefaultLocalHostIP = "127.0.0.1"
)

type hostIdentity struct {
	hostName setting[string]
	fqdn     setting[string]
	domain   setting[string]
	override setting[string]

	// live is read without locks. retired is the cell replaced by the
	// last regeneration; it is destructed by the next one.
	regenMu sync.Mutex
	live    atomic.Pointer[Prop]
	retired *Prop

	localIP atomic.Pointer[Prop]
}

func (h *hostIdentity) release() {
	h.regenMu.Lock()
	defer h.regenMu.Unlock()
	if h.retired != nil {
		h.retired.Destruct()
		h.retired = nil
	}
	if p := h.live.Swap(nil); p != nil {
		p.Destruct()
	}
}

// SetLocalHostName sets the short hostname.
func (r *Registry) SetLocalHostName(name string) {
	r.changed("hostname", r.host.hostName.Set(name), name)
}

// ShortHostName returns the short hostname, or "" if unknown.
func (r *Registry) ShortHostName() string { return r.host.hostName.Get() }

func (r *Registry) SetLocalFQDNName(name string) {
	r.changed("fqdn", r.host.fqdn.Set(name), name)
}

// LocalFQDNName returns the fully qualified name, or FallbackHostName.
func (r *Registry) LocalFQDNName() string {
	if fqdn := r.host.fqdn.Get(); fqdn != "" {
		return fqdn
	}
	return FallbackHostName
}

func (r *Registry) SetLocalDomain(domain string) {
	r.changed("domain", r.host.domain.Set(domain), domain)
}

func (r *Registry) LocalDomain() string { return r.host.domain.Get() }

// SetLocalHostNameOverride sets the operator supplied display name.
// An empty name removes the override.
func (r *Registry) SetLocalHostNameOverride(name string) {
	if name == "" {
		old := r.host.override.Get()
		r.host.override.Reset()
		r.changed("localhostname", old, "")
		return
	}
	r.changed("localhostname", r.host.override.Set(name), name)
}

func (r *Registry) LocalHostNameOverride() string { return r.host.override.Get() }

// LoadSystemHostname stores the system hostname as FQDN and splits it
// into short name and domain at the first dot.
func (r *Registry) LoadSystemHostname() error {
	name, err := r.config.HostnameFunc()
	if err != nil {
		return errors.Wrap(err, ErrCodeIOError, "cannot obtain system hostname")
	}
	short, domain, _ := strings.Cut(name, ".")
	r.SetLocalFQDNName(name)
	r.SetLocalHostName(short)
	r.SetLocalDomain(domain)
	return nil
}

// LocalHostName returns the name this host reports itself as:
// the override if set, the FQDN if preservefqdn is on and the FQDN is
// known, the short hostname if known, FallbackHostName otherwise.
func (r *Registry) LocalHostName() string {
	if o := r.host.override.Get(); o != "" {
		return o
	}
	if r.PreserveFQDN() {
		if fqdn := r.host.fqdn.Get(); fqdn != "" {
			return fqdn
		}
	}
	if h := r.host.hostName.Get(); h != "" {
		return h
	}
	return FallbackHostName
}

// LocalHostNameProp returns the published hostname property, or nil
// before the first GenerateLocalHostNameProperty.
func (r *Registry) LocalHostNameProp() *Prop {
	return r.host.live.Load()
}

// GenerateLocalHostNameProperty republishes the display name.
//
// When the name is unchanged the live property is kept. Otherwise a new
// property is published, the one it replaces is retired, and the
// property retired by the previous regeneration is destructed.
func (r *Registry) GenerateLocalHostNameProperty() error {
	r.host.regenMu.Lock()
	defer r.host.regenMu.Unlock()

	name := r.LocalHostName()
	cur := r.host.live.Load()
	if cur != nil && cur.String() == name {
		return nil
	}

	next := NewProp()
	if err := next.SetString(name); err != nil {
		return err
	}
	next.Finalize()

	if r.host.retired != nil {
		r.host.retired.Destruct()
	}
	r.host.retired = cur
	r.host.live.Store(next)

	r.audit.Log(AuditInfo, "hostname_regenerated", "hostname", "", cur.String(), name, nil)
	r.Debugf("hostname property is now %q", name)
	return nil
}

// LocalHostIP returns the local host IP property. When none was
// configured, DefaultLocalHostIP is pinned and returned.
func (r *Registry) LocalHostIP() *Prop {
	if p := r.host.localIP.Load(); p != nil {
		return p
	}
	p := NewStringProp(DefaultLocalHostIP)
	if r.host.localIP.CompareAndSwap(nil, p) {
		return p
	}
	return r.host.localIP.Load()
}

func (r *Registry) peekLocalHostIP() string {
	if p := r.host.localIP.Load(); p != nil {
		return p.String()
	}
	return DefaultLocalHostIP
}

// SetLocalHostIPIF derives the local host IP from a network interface.
// It fails when the IP is already set, including by a prior LocalHostIP
// call, and when the interface cannot be resolved.
func (r *Registry) SetLocalHostIPIF(ifname string) error {
	if r.host.localIP.Load() != nil {
		return errors.New(ErrCodeLocalIPAlreadySet,
			"local host IP already set, place localhostipif at the top of the configuration").
			WithContext("interface", ifname)
	}

	ip, err := r.config.InterfaceResolver(ifname)
	if err != nil {
		return errors.Wrap(err, ErrCodeInterfaceLookup, "could not obtain IP address for interface - directive ignored").
			WithContext("interface", ifname)
	}

	if !r.host.localIP.CompareAndSwap(nil, NewStringProp(ip)) {
		return errors.New(ErrCodeLocalIPAlreadySet, "local host IP already set").
			WithContext("interface", ifname)
	}
	r.changed("localhostipif", DefaultLocalHostIP, ip)
	return nil
}
