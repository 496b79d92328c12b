// Package mbr decodes the classic Master Boot Record partition table.
// Discovery only; this package never writes a table.
package mbr

import (
	"encoding/binary"
	"fmt"

	"github.com/blockdev/go-blockdev/disk"
)

const (
	// mbrSize is how many bytes of sector 0 the table occupies
	mbrSize         = 512
	tableOffset     = 446
	entrySize       = 16
	entryCount      = 4
	signatureOffset = 510

	typeEmpty         = 0x00
	typeExtendedCHS   = 0x05
	typeExtendedLBA   = 0x0F
	typeProtectiveGPT = 0xEE

	// maxLogical bounds the EBR chain walk so a corrupt or looping
	// chain cannot spin forever
	maxLogical = 128
)

type entry struct {
	kind  byte
	start uint64
	size  uint64
}

func decodeEntry(sector []byte, offset int) entry {
	return entry{
		kind:  sector[offset+4],
		start: uint64(binary.LittleEndian.Uint32(sector[offset+8:])),
		size:  uint64(binary.LittleEndian.Uint32(sector[offset+12:])),
	}
}

func (e entry) empty() bool {
	return e.kind == typeEmpty || e.size == 0
}

func (e entry) extended() bool {
	return e.kind == typeExtendedCHS || e.kind == typeExtendedLBA
}

func hasSignature(sector []byte) bool {
	return sector[signatureOffset] == 0x55 && sector[signatureOffset+1] == 0xAA
}

// Reader decodes MBR tables. It implements disk.TableReader.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

func (*Reader) Name() string {
	return "mbr"
}

// TryLoad probes sector 0 for an MBR. On success every discovered
// region, including logical partitions found by walking EBR chains,
// has been registered with the disk. A table holding only a GPT
// protective entry is not claimed, so the GPT reader can own it.
func (r *Reader) TryLoad(d *disk.Disk) (bool, error) {
	if d.SectorSize < mbrSize {
		return false, nil
	}

	sector := make([]byte, d.SectorSize)
	if err := d.Read(0, d.SectorSize, sector); err != nil {
		return false, fmt.Errorf("reading mbr sector: %w", err)
	}
	if !hasSignature(sector) {
		return false, nil
	}

	var (
		regions    [][2]uint64
		populated  int
		protective int
	)
	for i := 0; i < entryCount; i++ {
		e := decodeEntry(sector, tableOffset+i*entrySize)
		if e.empty() {
			continue
		}
		populated++
		switch {
		case e.kind == typeProtectiveGPT:
			protective++
		case e.extended():
			logical, err := r.walkExtended(d, e.start)
			if err != nil {
				return false, err
			}
			regions = append(regions, logical...)
		default:
			regions = append(regions, [2]uint64{e.start, e.size})
		}
	}

	if populated > 0 && populated == protective {
		return false, nil
	}

	for _, reg := range regions {
		d.AddPartition(reg[0], reg[1])
	}
	return true, nil
}

// walkExtended follows the EBR chain inside an extended partition.
// Each EBR's first entry describes a logical partition relative to
// that EBR, the second links to the next EBR relative to the extended
// partition's start. The extended container itself is not a usable
// region and is not registered.
func (r *Reader) walkExtended(d *disk.Disk, extStart uint64) ([][2]uint64, error) {
	var (
		regions [][2]uint64
		next    uint64
	)
	for i := 0; i < maxLogical; i++ {
		ebrLBA := extStart + next
		sector := make([]byte, d.SectorSize)
		if err := d.Read(ebrLBA, d.SectorSize, sector); err != nil {
			return nil, fmt.Errorf("reading ebr at %d: %w", ebrLBA, err)
		}
		if !hasSignature(sector) {
			return nil, fmt.Errorf("missing ebr signature at %d", ebrLBA)
		}

		logical := decodeEntry(sector, tableOffset)
		if !logical.empty() {
			regions = append(regions, [2]uint64{ebrLBA + logical.start, logical.size})
		}

		link := decodeEntry(sector, tableOffset+entrySize)
		if link.empty() {
			return regions, nil
		}
		next = link.start
	}
	return nil, fmt.Errorf("ebr chain at %d exceeds %d entries", extStart, maxLogical)
}

// disk.TableReader interface guard
var _ disk.TableReader = (*Reader)(nil)
