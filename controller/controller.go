// Package controller defines the raw sector I/O contract between a disk
// and the driver for its storage controller.
//
// A Driver is the lowest layer of the stack: it moves whole sectors
// between a controller-specific handle and a buffer, and nothing else.
// Byte-granular access is built on top of it by
// github.com/blockdev/go-blockdev/disk.
package controller

import (
	"fmt"
	"sync"
)

// Op is a raw controller operation.
type Op int

const (
	// OpRead transfers sectors from the device into the buffer
	OpRead Op = iota
	// OpWrite transfers sectors from the buffer to the device
	OpWrite
	// OpInfo asks the driver to (re)load device information; no sectors move
	OpInfo
)

func (op Op) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpInfo:
		return "info"
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// Kind identifies the controller that backs a disk.
type Kind int

const (
	// File is a disk image file or an OS block device
	File Kind = iota
	// Memory is an in-memory sector store
	Memory
	// Image is a read-only, possibly compressed, raw disk image
	Image
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Memory:
		return "memory"
	case Image:
		return "image"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Driver is the raw sector primitive a controller exposes.
//
// Do must transfer exactly count sectors of the device's sector size
// starting at lba; the buffer must have capacity for all of them. For
// OpInfo, count is zero and buf may be nil.
type Driver interface {
	Do(handle any, op Op, lba, count uint64, buf []byte) error
}

var (
	driversMu sync.RWMutex
	drivers   = map[Kind]Driver{}
)

// Register makes a driver available for the given kind, replacing any
// previous registration.
func Register(kind Kind, drv Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[kind] = drv
}

// MustDriver returns the driver registered for kind.
//
// An unregistered kind is a configuration defect, not a runtime
// condition: a disk reachable through a registry always names a kind
// that was registered before the disk was added. MustDriver therefore
// panics instead of returning an error.
func MustDriver(kind Kind) Driver {
	driversMu.RLock()
	drv, ok := drivers[kind]
	driversMu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("controller: no driver registered for %s controller", kind))
	}
	return drv
}
