// Package mem provides an in-memory controller, mainly for tests and
// scratch disks.
package mem

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blockdev/go-blockdev/controller"
)

var ErrBadHandle = errors.New("mem: handle is not a *Device")

// Device is an in-memory sector store.
type Device struct {
	mu         sync.Mutex
	sectorSize uint64
	data       []byte
}

// New creates a zero-filled device of the given geometry.
func New(sectorSize, sectors uint64) *Device {
	return &Device{
		sectorSize: sectorSize,
		data:       make([]byte, sectorSize*sectors),
	}
}

// FromBytes creates a device holding a copy of img, rounded up to a
// whole number of sectors.
func FromBytes(sectorSize uint64, img []byte) *Device {
	sectors := (uint64(len(img)) + sectorSize - 1) / sectorSize
	d := New(sectorSize, sectors)
	copy(d.data, img)
	return d
}

// SectorSize returns the device's sector size in bytes.
func (d *Device) SectorSize() uint64 { return d.sectorSize }

// Size returns the device's capacity in bytes.
func (d *Device) Size() uint64 { return uint64(len(d.data)) }

type driver struct{}

func (driver) Do(handle any, op controller.Op, lba, count uint64, buf []byte) error {
	dev, ok := handle.(*Device)
	if !ok {
		return ErrBadHandle
	}

	if op == controller.OpInfo {
		return nil
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()

	// sector arithmetic first: lba*sectorSize can wrap for a hostile
	// 64-bit lba, so never compute byte offsets before the range check
	sectors := uint64(len(dev.data)) / dev.sectorSize
	if lba > sectors || count > sectors-lba {
		return fmt.Errorf("mem: %s of %d sectors at %d beyond device end", op, count, lba)
	}
	start := lba * dev.sectorSize
	length := count * dev.sectorSize

	switch op {
	case controller.OpRead:
		copy(buf[:length], dev.data[start:start+length])
	case controller.OpWrite:
		copy(dev.data[start:start+length], buf[:length])
	default:
		return fmt.Errorf("mem: unsupported operation %s", op)
	}
	return nil
}

func init() {
	controller.Register(controller.Memory, driver{})
}
