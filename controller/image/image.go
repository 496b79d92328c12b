// Package image provides a read-only controller for raw disk images,
// optionally compressed with xz or lz4.
//
// The image is decompressed into memory when opened, so this is meant
// for modest images: installer media, firmware payloads, test fixtures.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/blockdev/go-blockdev/controller"
)

var (
	ErrBadHandle = errors.New("image: handle is not a *Device")
	ErrReadOnly  = errors.New("image: images are read-only")
)

var (
	xzMagic  = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	lz4Magic = []byte{0x04, 0x22, 0x4D, 0x18}
)

// Device is a decompressed raw image held in memory.
type Device struct {
	sectorSize uint64
	data       []byte
}

// Open reads and, when the file starts with an xz or lz4 frame magic,
// decompresses a raw image.
func Open(path string, sectorSize uint64) (*Device, error) {
	if path == "" {
		return nil, errors.New("must pass image name")
	}
	if sectorSize == 0 {
		sectorSize = 512
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image %s: %w", path, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("could not read image %s: %w", path, err)
	}

	data, err := decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("could not decompress image %s: %w", path, err)
	}
	if uint64(len(data))%sectorSize != 0 {
		// pad to a whole sector so the last bytes stay reachable
		padded := make([]byte, (uint64(len(data))/sectorSize+1)*sectorSize)
		copy(padded, data)
		data = padded
	}

	return &Device{sectorSize: sectorSize, data: data}, nil
}

func decompress(raw []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, xzMagic):
		r, err := xz.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		return io.ReadAll(r)
	case bytes.HasPrefix(raw, lz4Magic):
		return io.ReadAll(lz4.NewReader(bytes.NewReader(raw)))
	}
	return raw, nil
}

// SectorSize returns the sector size the image is served with.
func (d *Device) SectorSize() uint64 { return d.sectorSize }

// Size returns the decompressed image size in bytes, including any
// tail padding.
func (d *Device) Size() uint64 { return uint64(len(d.data)) }

type driver struct{}

func (driver) Do(handle any, op controller.Op, lba, count uint64, buf []byte) error {
	dev, ok := handle.(*Device)
	if !ok {
		return ErrBadHandle
	}

	switch op {
	case controller.OpInfo:
		return nil
	case controller.OpWrite:
		return ErrReadOnly
	case controller.OpRead:
		// range check in sectors so a hostile 64-bit lba cannot wrap
		// the byte-offset arithmetic
		sectors := uint64(len(dev.data)) / dev.sectorSize
		if lba > sectors || count > sectors-lba {
			return fmt.Errorf("image: read of %d sectors at %d beyond image end", count, lba)
		}
		start := lba * dev.sectorSize
		length := count * dev.sectorSize
		copy(buf[:length], dev.data[start:start+length])
		return nil
	}
	return fmt.Errorf("image: unsupported operation %s", op)
}

func init() {
	controller.Register(controller.Image, driver{})
}
