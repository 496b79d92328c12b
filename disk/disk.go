// Package disk provides byte-granular access to sector-granular
// storage devices and owns the lifecycle of the partitions discovered
// on them.
//
// A Disk names a controller kind and an opaque controller handle; the
// matching driver from github.com/blockdev/go-blockdev/controller does
// the raw sector transfers. Everything above the sector boundary --
// arbitrary-length transfers, partition discovery, mount bookkeeping --
// lives here.
package disk

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/blockdev/go-blockdev/controller"
	"github.com/blockdev/go-blockdev/mount"
)

// DefaultSectorSize is the sector size assumed for a freshly added
// disk until its controller reports otherwise.
const DefaultSectorSize = 512

var nextID atomic.Uint64

// Disk is a single storage device reachable through a controller.
type Disk struct {
	// ID is a process-unique identifier, used in logs
	ID uint64
	// Controller selects the driver used for raw I/O
	Controller controller.Kind
	// Handle is the controller-specific state passed to the driver
	Handle any
	// SectorSize is the hardware transfer unit in bytes
	SectorSize uint64
	// Available is false until a scan has recognized the disk
	Available bool

	// scanMu serializes scans; mu guards the partition list. Two
	// locks so table readers can call AddPartition while a scan is
	// in flight.
	scanMu sync.Mutex
	mu     sync.Mutex
	parts  []*Partition

	readers []TableReader
	mounts  *mount.Registry
}

// New creates a detached Disk with the default sector size. Disks that
// should be discoverable belong in a Registry; use Registry.Add for
// those.
func New(kind controller.Kind, handle any, readers []TableReader, mounts *mount.Registry) (*Disk, error) {
	if handle == nil {
		return nil, ErrNoHandle
	}
	return &Disk{
		ID:         nextID.Add(1),
		Controller: kind,
		Handle:     handle,
		SectorSize: DefaultSectorSize,
		readers:    readers,
		mounts:     mounts,
	}, nil
}

// PartCount returns the number of live partitions on the disk.
func (d *Disk) PartCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.parts)
}

// Partitions returns a snapshot of the disk's partitions in discovery
// order.
func (d *Disk) Partitions() []*Partition {
	d.mu.Lock()
	defer d.mu.Unlock()
	parts := make([]*Partition, len(d.parts))
	copy(parts, d.parts)
	return parts
}

func (d *Disk) log() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"disk":       d.ID,
		"controller": d.Controller.String(),
	})
}
