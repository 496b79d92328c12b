// Package mount keeps track of filesystem mount registrations.
//
// This is the registry the partition lifecycle talks to: when a
// partition survives a rescan it gets a mount entry here, and when it
// disappears its entry is removed. Actual filesystem drivers bind to a
// Mount elsewhere; this package only owns the bookkeeping.
package mount

import (
	"sync"

	"github.com/google/uuid"
)

// Kind describes what a mount is backed by.
type Kind int

const (
	// Disk is a mount backed by a disk partition
	Disk Kind = iota
)

// Mount is a single registration. The source is the backing object,
// compared by identity; for Kind Disk it is a *disk.Partition.
type Mount struct {
	id     uuid.UUID
	kind   Kind
	source any
}

// ID returns the stable handle assigned at registration.
func (m *Mount) ID() uuid.UUID { return m.id }

// Kind returns what the mount is backed by.
func (m *Mount) Kind() Kind { return m.kind }

// Source returns the backing object passed to Register.
func (m *Mount) Source() any { return m.source }

// Registry is an ordered collection of mounts. The zero value is not
// usable; call NewRegistry.
type Registry struct {
	mu     sync.Mutex
	mounts []*Mount
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a mount for the given source and returns it.
func (r *Registry) Register(kind Kind, source any) *Mount {
	m := &Mount{
		id:     uuid.New(),
		kind:   kind,
		source: source,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mounts = append(r.mounts, m)
	return m
}

// Unregister removes a mount. Removing a nil or unknown mount is a
// no-op.
func (r *Registry) Unregister(m *Mount) {
	if m == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.mounts {
		if cur == m {
			r.mounts = append(r.mounts[:i], r.mounts[i+1:]...)
			return
		}
	}
}

// Find returns the mount whose kind and source both match, or nil.
func (r *Registry) Find(kind Kind, source any) *Mount {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mounts {
		if m.kind == kind && m.source == source {
			return m
		}
	}
	return nil
}

// Next iterates mounts in registration order: pass nil to get the
// first mount, or the previous result to get the one after it.
func (r *Registry) Next(prev *Mount) *Mount {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.mounts) == 0 {
		return nil
	}
	if prev == nil {
		return r.mounts[0]
	}
	for i, m := range r.mounts {
		if m == prev && i+1 < len(r.mounts) {
			return r.mounts[i+1]
		}
	}
	return nil
}

// Len returns the number of registered mounts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.mounts)
}
