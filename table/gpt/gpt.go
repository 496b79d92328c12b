// Package gpt decodes the GUID Partition Table.
// Discovery only; this package never writes a table.
package gpt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blockdev/go-blockdev/disk"
)

const (
	// headerLBA is where the primary header lives
	headerLBA = 1

	minHeaderSize = 92
	crcOffset     = 16

	minEntrySize = 128
	// maxEntrySize bounds the per-entry stride so a crafted header
	// cannot make the entry-array allocation huge; UEFI uses 128 bytes
	// and nothing sane exceeds a sector
	maxEntrySize = 4096
	// maxEntries bounds the entry array read; the usual count is 128
	maxEntries = 1024
)

var signature = []byte("EFI PART")

// Header is the decoded primary GPT header.
type Header struct {
	Revision     uint32
	HeaderSize   uint32
	CurrentLBA   uint64
	BackupLBA    uint64
	FirstUsable  uint64
	LastUsable   uint64
	DiskGUID     uuid.UUID
	EntriesLBA   uint64
	EntryCount   uint32
	EntrySize    uint32
	EntriesCRC32 uint32
}

// Entry is one decoded partition entry.
type Entry struct {
	Type     uuid.UUID
	GUID     uuid.UUID
	FirstLBA uint64
	LastLBA  uint64
	Name     string
}

// guidUUID converts a GPT on-disk GUID (mixed endianness) to a uuid.
func guidUUID(b []byte) uuid.UUID {
	var g [16]byte
	g[0], g[1], g[2], g[3] = b[3], b[2], b[1], b[0]
	g[4], g[5] = b[5], b[4]
	g[6], g[7] = b[7], b[6]
	copy(g[8:], b[8:16])
	return uuid.UUID(g)
}

func decodeHeader(sector []byte) (*Header, error) {
	if !bytes.HasPrefix(sector, signature) {
		return nil, nil
	}

	h := &Header{
		Revision:     binary.LittleEndian.Uint32(sector[8:]),
		HeaderSize:   binary.LittleEndian.Uint32(sector[12:]),
		CurrentLBA:   binary.LittleEndian.Uint64(sector[24:]),
		BackupLBA:    binary.LittleEndian.Uint64(sector[32:]),
		FirstUsable:  binary.LittleEndian.Uint64(sector[40:]),
		LastUsable:   binary.LittleEndian.Uint64(sector[48:]),
		DiskGUID:     guidUUID(sector[56:72]),
		EntriesLBA:   binary.LittleEndian.Uint64(sector[72:]),
		EntryCount:   binary.LittleEndian.Uint32(sector[80:]),
		EntrySize:    binary.LittleEndian.Uint32(sector[84:]),
		EntriesCRC32: binary.LittleEndian.Uint32(sector[88:]),
	}

	if h.HeaderSize < minHeaderSize || uint64(h.HeaderSize) > uint64(len(sector)) {
		return nil, fmt.Errorf("implausible header size %d", h.HeaderSize)
	}

	// the stored CRC covers the header with its own field zeroed
	stored := binary.LittleEndian.Uint32(sector[crcOffset:])
	scratch := bytes.Clone(sector[:h.HeaderSize])
	binary.LittleEndian.PutUint32(scratch[crcOffset:], 0)
	if crc32.ChecksumIEEE(scratch) != stored {
		return nil, fmt.Errorf("header crc mismatch")
	}

	if h.EntrySize < minEntrySize || h.EntrySize > maxEntrySize || h.EntrySize%8 != 0 {
		return nil, fmt.Errorf("implausible entry size %d", h.EntrySize)
	}
	if h.EntryCount > maxEntries {
		return nil, fmt.Errorf("implausible entry count %d", h.EntryCount)
	}
	return h, nil
}

func decodeEntry(raw []byte) *Entry {
	var zero [16]byte
	if bytes.Equal(raw[:16], zero[:]) {
		return nil
	}

	nameRaw := raw[56:]
	codes := make([]uint16, 0, len(nameRaw)/2)
	for i := 0; i+1 < len(nameRaw); i += 2 {
		c := binary.LittleEndian.Uint16(nameRaw[i:])
		if c == 0 {
			break
		}
		codes = append(codes, c)
	}

	return &Entry{
		Type:     guidUUID(raw[:16]),
		GUID:     guidUUID(raw[16:32]),
		FirstLBA: binary.LittleEndian.Uint64(raw[32:]),
		LastLBA:  binary.LittleEndian.Uint64(raw[40:]),
		Name:     string(utf16.Decode(codes)),
	}
}

// Reader decodes GPT tables. It implements disk.TableReader.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

func (*Reader) Name() string {
	return "gpt"
}

// TryLoad probes LBA 1 for a GPT header. The header and entry-array
// checksums must hold; a disk that fails them is reported as
// unrecognized rather than half-loaded. On success every populated
// entry has been registered with the disk.
func (r *Reader) TryLoad(d *disk.Disk) (bool, error) {
	if d.SectorSize < minHeaderSize {
		return false, nil
	}

	sector := make([]byte, d.SectorSize)
	if err := d.Read(headerLBA, d.SectorSize, sector); err != nil {
		return false, fmt.Errorf("reading gpt header: %w", err)
	}

	h, err := decodeHeader(sector)
	if err != nil {
		return false, fmt.Errorf("decoding gpt header: %w", err)
	}
	if h == nil {
		return false, nil
	}

	total := uint64(h.EntryCount) * uint64(h.EntrySize)
	raw := make([]byte, total)
	if total > 0 {
		if err := d.Read(h.EntriesLBA, total, raw); err != nil {
			return false, fmt.Errorf("reading gpt entries: %w", err)
		}
		if crc32.ChecksumIEEE(raw) != h.EntriesCRC32 {
			return false, fmt.Errorf("entry array crc mismatch")
		}
	}

	for i := uint32(0); i < h.EntryCount; i++ {
		e := decodeEntry(raw[uint64(i)*uint64(h.EntrySize):])
		if e == nil || e.LastLBA < e.FirstLBA {
			continue
		}
		logrus.WithFields(logrus.Fields{
			"guid":  e.GUID,
			"type":  e.Type,
			"name":  e.Name,
			"start": e.FirstLBA,
		}).Debug("discovered GPT partition")
		d.AddPartition(e.FirstLBA, e.LastLBA-e.FirstLBA+1)
	}
	return true, nil
}

// disk.TableReader interface guard
var _ disk.TableReader = (*Reader)(nil)
