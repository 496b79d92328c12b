// Package blockdev turns block-addressed, fixed-sector storage into an
// arbitrary-offset, arbitrary-length byte I/O interface, and keeps the
// partitions discovered on each device synchronized with a mount
// registry across repeated rescans.
//
// A System owns two registries: one of disks, one of mounts. Disks are
// attached from image files, OS block devices, compressed images or
// in-memory stores; scanning a disk probes its partition table (GPT
// first, MBR as the legacy fallback) and reconciles the partition set
// and its mounts against what the table reports.
//
// Some examples:
//
// 1. Attach a disk image and list its partitions.
//
//	sys := blockdev.New(blockdev.Options{})
//	d, err := sys.Attach("/dev/sda", true)
//	if err := d.Scan(); err != nil { ... }
//	for _, p := range d.Partitions() {
//		fmt.Println(p.Start, p.Size)
//	}
//
// 2. Read 1300 bytes starting at sector 10, regardless of the sector
// size the hardware imposes.
//
//	buf := make([]byte, 1300)
//	err := d.Read(10, 1300, buf)
//
// 3. Rescan after repartitioning; mounts of vanished partitions are
// unregistered, surviving ones keep theirs.
//
//	err := d.Scan()
package blockdev

import (
	"fmt"
	"io"

	"github.com/blockdev/go-blockdev/controller"
	"github.com/blockdev/go-blockdev/controller/file"
	"github.com/blockdev/go-blockdev/controller/image"
	"github.com/blockdev/go-blockdev/controller/mem"
	"github.com/blockdev/go-blockdev/disk"
	"github.com/blockdev/go-blockdev/mount"
	"github.com/blockdev/go-blockdev/table"
)

// Options configure a System.
type Options struct {
	// DisableGPT probes only the legacy MBR format during scans
	DisableGPT bool
}

// System is the storage subsystem context: the registry of known disks
// and the mount registry they reconcile against. Create one at
// subsystem startup and keep it for the life of the process.
type System struct {
	Disks  *disk.Registry
	Mounts *mount.Registry
}

// New creates an empty System.
func New(opts Options) *System {
	mounts := mount.NewRegistry()
	readers := table.Readers(table.Options{DisableGPT: opts.DisableGPT})
	return &System{
		Disks:  disk.NewRegistry(mounts, readers...),
		Mounts: mounts,
	}
}

// Attach opens an image file or block device and registers it as a
// disk. The disk is not scanned; call Scan on it when you want its
// partitions discovered.
func (s *System) Attach(path string, readOnly bool) (*disk.Disk, error) {
	dev, err := file.Open(path, readOnly)
	if err != nil {
		return nil, err
	}
	d, err := s.Disks.Add(controller.File, dev)
	if err != nil {
		dev.Close()
		return nil, err
	}
	d.SectorSize = dev.SectorSize()
	return d, nil
}

// AttachImage registers a read-only raw image, transparently
// decompressing xz or lz4 payloads.
func (s *System) AttachImage(path string, sectorSize uint64) (*disk.Disk, error) {
	dev, err := image.Open(path, sectorSize)
	if err != nil {
		return nil, err
	}
	d, err := s.Disks.Add(controller.Image, dev)
	if err != nil {
		return nil, err
	}
	d.SectorSize = dev.SectorSize()
	return d, nil
}

// AttachMemory registers a zero-filled in-memory disk of the given
// geometry, useful for tests and scratch space.
func (s *System) AttachMemory(sectorSize, sectors uint64) (*disk.Disk, error) {
	dev := mem.New(sectorSize, sectors)
	d, err := s.Disks.Add(controller.Memory, dev)
	if err != nil {
		return nil, err
	}
	d.SectorSize = sectorSize
	return d, nil
}

// Detach removes a disk from the registry and closes its controller
// handle if it has one. Like Registry.Remove, it does not tear down
// the disk's partitions or mounts.
func (s *System) Detach(d *disk.Disk) error {
	if d == nil {
		return nil
	}
	s.Disks.Remove(d)
	if c, ok := d.Handle.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("closing controller handle: %w", err)
		}
	}
	return nil
}
