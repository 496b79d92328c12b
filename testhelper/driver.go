package testhelper

import (
	"github.com/blockdev/go-blockdev/controller"
)

// Call records one raw operation seen by a StubDriver.
type Call struct {
	Op    controller.Op
	LBA   uint64
	Count uint64
	Len   int
}

// StubDriver implements github.com/blockdev/go-blockdev/controller.Driver
// used for testing to enable stubbing out controllers. Every call is
// recorded before being handed to DoFn; a nil DoFn succeeds without
// touching the buffer.
type StubDriver struct {
	DoFn  func(handle any, op controller.Op, lba, count uint64, buf []byte) error
	Calls []Call
}

func (s *StubDriver) Do(handle any, op controller.Op, lba, count uint64, buf []byte) error {
	s.Calls = append(s.Calls, Call{Op: op, LBA: lba, Count: count, Len: len(buf)})
	if s.DoFn == nil {
		return nil
	}
	return s.DoFn(handle, op, lba, count, buf)
}

// Reset clears the recorded calls.
func (s *StubDriver) Reset() {
	s.Calls = nil
}

// controller.Driver interface guard
var _ controller.Driver = (*StubDriver)(nil)
