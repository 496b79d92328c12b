package disk

import (
	"github.com/sirupsen/logrus"

	"github.com/blockdev/go-blockdev/controller"
)

// Partition is one region of a disk, identified by its (Start, Size)
// pair: two partitions with equal start and size are the same
// partition across rescans, regardless of table ordering.
type Partition struct {
	// Start is the first sector of the partition (LBA)
	Start uint64
	// Size is the length of the partition in sectors
	Size uint64

	disk      *Disk
	available bool
}

// Disk returns the disk that owns the partition, or nil once the
// partition has been removed by a rescan.
func (p *Partition) Disk() *Disk { return p.disk }

// AddPartition records a partition discovered by a table reader. An
// existing partition with the same start and size is marked as still
// present and returned unchanged, so a duplicate add is a no-op; a new
// one is appended to the disk's list. A nil disk returns nil.
func (d *Disk) AddPartition(start, size uint64) *Partition {
	if d == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.parts {
		if p.Start == start && p.Size == size {
			p.available = true
			return p
		}
	}

	p := &Partition{
		Start:     start,
		Size:      size,
		disk:      d,
		available: true,
	}
	d.parts = append(d.parts, p)
	d.log().WithFields(logrus.Fields{
		"start": start,
		"size":  size,
	}).Debug("added a new partition")
	return p
}

// Do performs a partition-relative transfer: lba counts from the start
// of the partition and the request must fit inside it.
func (p *Partition) Do(op controller.Op, lba, size uint64, buf []byte) error {
	if p.disk == nil {
		return ErrPartitionRemoved
	}
	sectorSize := p.disk.SectorSize
	end := lba*sectorSize + size
	if lba >= p.Size || end > p.Size*sectorSize {
		return ErrOutOfRange
	}
	return p.disk.Do(op, p.Start+lba, size, buf)
}

// Read reads size bytes starting at partition-relative sector lba.
func (p *Partition) Read(lba, size uint64, buf []byte) error {
	return p.Do(controller.OpRead, lba, size, buf)
}

// Write writes size bytes starting at partition-relative sector lba.
func (p *Partition) Write(lba, size uint64, buf []byte) error {
	return p.Do(controller.OpWrite, lba, size, buf)
}
