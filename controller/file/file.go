// Package file provides the controller for disk image files and OS
// block devices.
package file

import (
	"errors"
	"fmt"
	"os"

	"github.com/blockdev/go-blockdev/controller"
)

var (
	ErrBadHandle = errors.New("file: handle is not a *Device")
	ErrReadOnly  = errors.New("file: device not open for write")
)

// Device is a disk backed by a file or block device node.
type Device struct {
	f          *os.File
	size       int64
	sectorSize uint64
	physSector uint64
	readOnly   bool
}

// Open opens an existing image file or block device.
// Should pass a path to a block device e.g. /dev/sda or a path to a
// file /tmp/foo.img; it must exist at the time you call Open.
func Open(path string, readOnly bool) (*Device, error) {
	if path == "" {
		return nil, errors.New("must pass device or file name")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("provided device/file %s does not exist", path)
	}

	openMode := os.O_RDONLY
	if !readOnly {
		openMode = os.O_RDWR | os.O_EXCL
	}
	f, err := os.OpenFile(path, openMode, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open device %s: %w", path, err)
	}

	dev := &Device{
		f:          f,
		sectorSize: defaultSectorSize,
		physSector: defaultSectorSize,
		readOnly:   readOnly,
	}
	if err := dev.refresh(); err != nil {
		f.Close()
		return nil, err
	}
	return dev, nil
}

// Create creates a new image file of the given size.
// The provided file must not exist at the time you call Create.
func Create(path string, size int64) (*Device, error) {
	if path == "" {
		return nil, errors.New("must pass device name")
	}
	if size <= 0 {
		return nil, errors.New("must pass valid device size to create")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_EXCL|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("could not create device %s: %w", path, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not expand device %s to size %d: %w", path, size, err)
	}

	return &Device{
		f:          f,
		size:       size,
		sectorSize: defaultSectorSize,
		physSector: defaultSectorSize,
	}, nil
}

const defaultSectorSize = 512

// refresh reloads the device geometry: the backing size, and for real
// block devices the logical/physical sector sizes from the kernel.
func (d *Device) refresh() error {
	info, err := d.f.Stat()
	if err != nil {
		return fmt.Errorf("could not get info for device %s: %w", d.f.Name(), err)
	}

	if info.Mode()&os.ModeDevice != 0 {
		lblk, pblk, err := sectorSizes(d.f)
		if err != nil {
			return fmt.Errorf("unable to get block sizes for device %s: %w", d.f.Name(), err)
		}
		d.sectorSize, d.physSector = lblk, pblk
		size, err := deviceSize(d.f)
		if err != nil {
			return fmt.Errorf("unable to get size of device %s: %w", d.f.Name(), err)
		}
		d.size = size
		return nil
	}

	d.size = info.Size()
	return nil
}

// SectorSize returns the logical sector size in bytes.
func (d *Device) SectorSize() uint64 { return d.sectorSize }

// PhysicalSectorSize returns the physical sector size in bytes.
func (d *Device) PhysicalSectorSize() uint64 { return d.physSector }

// Size returns the device size in bytes.
func (d *Device) Size() int64 { return d.size }

// Close releases the backing file.
func (d *Device) Close() error { return d.f.Close() }

type driver struct{}

func (driver) Do(handle any, op controller.Op, lba, count uint64, buf []byte) error {
	dev, ok := handle.(*Device)
	if !ok {
		return ErrBadHandle
	}

	if op == controller.OpInfo {
		return dev.refresh()
	}

	// range check in sectors so a hostile 64-bit lba cannot wrap the
	// byte-offset arithmetic
	sectors := uint64(dev.size) / dev.sectorSize
	if lba > sectors || count > sectors-lba {
		return fmt.Errorf("file: %s of %d sectors at %d beyond device end", op, count, lba)
	}
	length := count * dev.sectorSize
	offset := int64(lba * dev.sectorSize)

	switch op {
	case controller.OpRead:
		_, err := dev.f.ReadAt(buf[:length], offset)
		return err
	case controller.OpWrite:
		if dev.readOnly {
			return ErrReadOnly
		}
		_, err := dev.f.WriteAt(buf[:length], offset)
		return err
	}
	return fmt.Errorf("file: unsupported operation %s", op)
}

func init() {
	controller.Register(controller.File, driver{})
}
