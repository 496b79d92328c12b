package disk

import (
	"sync"

	"github.com/blockdev/go-blockdev/controller"
	"github.com/blockdev/go-blockdev/mount"
)

// Registry is an insertion-ordered collection of known disks. Disks
// added to it share the registry's mount registry and table readers.
//
// Registry methods are safe for concurrent use, but per-disk
// operations (Scan, Do) on the same Disk must still be serialized by
// their own locks, which the Disk provides internally.
type Registry struct {
	mu      sync.Mutex
	disks   []*Disk
	mounts  *mount.Registry
	readers []TableReader
}

// NewRegistry creates a registry whose disks reconcile their
// partitions against mounts and probe tables with readers, in the
// given priority order.
func NewRegistry(mounts *mount.Registry, readers ...TableReader) *Registry {
	return &Registry{
		mounts:  mounts,
		readers: readers,
	}
}

// Mounts returns the mount registry the disks reconcile against.
func (r *Registry) Mounts() *mount.Registry { return r.mounts }

// Add creates a disk backed by the given controller handle and
// appends it to the registry. The handle must not be nil: a disk is
// nothing without its controller-specific state.
func (r *Registry) Add(kind controller.Kind, handle any) (*Disk, error) {
	d, err := New(kind, handle, r.readers, r.mounts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.disks = append(r.disks, d)
	r.mu.Unlock()

	d.log().Debug("added a new disk device")
	return d, nil
}

// Remove takes a disk out of the registry. Removing a nil disk, or
// one the registry does not hold, is a no-op.
//
// Remove does not tear down the disk's partitions or mounts; callers
// that want a clean mount registry must clear those first.
func (r *Registry) Remove(d *Disk) {
	if d == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.disks {
		if cur == d {
			r.disks = append(r.disks[:i], r.disks[i+1:]...)
			return
		}
	}
}

// Next iterates disks in registration order: pass nil to get the
// first disk, or the previous result to get the one after it.
func (r *Registry) Next(prev *Disk) *Disk {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.disks) == 0 {
		return nil
	}
	if prev == nil {
		return r.disks[0]
	}
	for i, d := range r.disks {
		if d == prev && i+1 < len(r.disks) {
			return r.disks[i+1]
		}
	}
	return nil
}

// Disks returns a snapshot of the registry in registration order.
func (r *Registry) Disks() []*Disk {
	r.mu.Lock()
	defer r.mu.Unlock()
	disks := make([]*Disk, len(r.disks))
	copy(disks, r.disks)
	return disks
}
