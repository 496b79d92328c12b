package disk

import "github.com/blockdev/go-blockdev/controller"

/*

 the controllers only let us move whole sectors starting at an LBA;
 Do translates that into transfers of any number of bytes.

 the split is:
   - an exactly sector-aligned request goes to the driver as one
     batched call, straight into the caller's buffer
   - otherwise the whole-sector prefix is moved one sector at a time,
     and the sub-sector tail goes through a scratch sector so the
     caller's buffer is only ever touched for the bytes it asked for

*/

// Do performs a transfer of size bytes starting at sector lba. The
// offset is sector-granular throughout; size is in bytes. For OpInfo,
// size is zero and buf may be nil.
//
// Any driver failure aborts the whole operation; when a multi-sector
// transfer fails partway there is no report of how many sectors
// completed first.
func (d *Disk) Do(op controller.Op, lba, size uint64, buf []byte) error {
	drv := controller.MustDriver(d.Controller)

	if uint64(len(buf)) < size {
		return ErrShortBuffer
	}

	sectorSize := d.SectorSize
	count := size / sectorSize
	rem := size % sectorSize

	if rem == 0 {
		return drv.Do(d.Handle, op, lba, count, buf)
	}

	var off uint64
	for size != rem {
		if err := drv.Do(d.Handle, op, lba, 1, buf[off:off+sectorSize]); err != nil {
			return err
		}
		lba++
		off += sectorSize
		size -= sectorSize
	}

	// the tail is smaller than a sector, so a full sector moves at
	// the hardware boundary but only rem bytes of the caller's
	// buffer are involved. On write the rest of the sector goes out
	// as zeroes.
	scratch := make([]byte, sectorSize)
	if op == controller.OpWrite {
		copy(scratch, buf[off:off+rem])
		return drv.Do(d.Handle, op, lba, 1, scratch)
	}
	if err := drv.Do(d.Handle, op, lba, 1, scratch); err != nil {
		return err
	}
	copy(buf[off:off+rem], scratch[:rem])
	return nil
}

// Read reads size bytes starting at sector lba into buf.
func (d *Disk) Read(lba, size uint64, buf []byte) error {
	return d.Do(controller.OpRead, lba, size, buf)
}

// Write writes size bytes from buf starting at sector lba.
func (d *Disk) Write(lba, size uint64, buf []byte) error {
	return d.Do(controller.OpWrite, lba, size, buf)
}

// Info asks the controller to (re)load device information.
func (d *Disk) Info() error {
	return d.Do(controller.OpInfo, 0, 0, nil)
}
