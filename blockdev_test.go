package blockdev_test

/*
 These test the exported surface end to end: real image files on disk,
 real table bytes, a full attach/scan/rescan cycle.
*/

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	blockdev "github.com/blockdev/go-blockdev"
	"github.com/blockdev/go-blockdev/mount"
)

func putMBREntry(sector []byte, idx int, kind byte, start, size uint32) {
	off := 446 + idx*16
	sector[off+4] = kind
	binary.LittleEndian.PutUint32(sector[off+8:], start)
	binary.LittleEndian.PutUint32(sector[off+12:], size)
}

// mbrImage builds a 64-sector image with the given (start, size)
// primary partitions
func mbrImage(parts ...[2]uint32) []byte {
	img := make([]byte, 64*512)
	img[510] = 0x55
	img[511] = 0xAA
	for i, p := range parts {
		putMBREntry(img, i, 0x83, p[0], p[1])
	}
	return img
}

func tmpDisk(t *testing.T, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk.img")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	return path
}

func TestAttachScan(t *testing.T) {
	sys := blockdev.New(blockdev.Options{})
	path := tmpDisk(t, mbrImage([2]uint32{2, 8}, [2]uint32{10, 16}))

	d, err := sys.Attach(path, false)
	if err != nil {
		t.Fatalf("unexpected attach error: %v", err)
	}
	defer sys.Detach(d)

	if d.Available {
		t.Error("disk available before any scan")
	}
	if err := d.Scan(); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}

	switch {
	case !d.Available:
		t.Error("disk not available after scan")
	case d.PartCount() != 2:
		t.Errorf("mismatched partition count, actual %d expected 2", d.PartCount())
	case sys.Mounts.Len() != 2:
		t.Errorf("mismatched mount count, actual %d expected 2", sys.Mounts.Len())
	}
	for _, p := range d.Partitions() {
		if sys.Mounts.Find(mount.Disk, p) == nil {
			t.Errorf("partition at %d has no mount", p.Start)
		}
	}
}

func TestRescanReconciles(t *testing.T) {
	sys := blockdev.New(blockdev.Options{})
	path := tmpDisk(t, mbrImage([2]uint32{2, 8}, [2]uint32{10, 16}))

	d, err := sys.Attach(path, false)
	if err != nil {
		t.Fatalf("unexpected attach error: %v", err)
	}
	defer sys.Detach(d)

	if err := d.Scan(); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}

	// repartition the underlying image: drop the second partition
	if err := d.Write(0, 512, mbrImage([2]uint32{2, 8})[:512]); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	if err := d.Scan(); err != nil {
		t.Fatalf("unexpected rescan error: %v", err)
	}

	switch {
	case d.PartCount() != 1:
		t.Errorf("mismatched partition count, actual %d expected 1", d.PartCount())
	case sys.Mounts.Len() != 1:
		t.Errorf("mismatched mount count, actual %d expected 1", sys.Mounts.Len())
	case d.Partitions()[0].Start != 2:
		t.Errorf("wrong partition survived: start %d", d.Partitions()[0].Start)
	}
}

func TestScanUnknownTable(t *testing.T) {
	sys := blockdev.New(blockdev.Options{})
	path := tmpDisk(t, make([]byte, 64*512))

	d, err := sys.Attach(path, true)
	if err != nil {
		t.Fatalf("unexpected attach error: %v", err)
	}
	defer sys.Detach(d)

	if err := d.Scan(); err == nil {
		t.Error("expected scan of a blank image to fail")
	}
	if d.Available {
		t.Error("disk available after a failed scan")
	}
}

func TestAttachMemory(t *testing.T) {
	sys := blockdev.New(blockdev.Options{})

	d, err := sys.AttachMemory(512, 64)
	if err != nil {
		t.Fatalf("unexpected attach error: %v", err)
	}

	// write a table into the scratch disk, then scan it
	if err := d.Write(0, 512, mbrImage([2]uint32{2, 8})[:512]); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	if err := d.Scan(); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if d.PartCount() != 1 {
		t.Errorf("mismatched partition count, actual %d expected 1", d.PartCount())
	}

	if err := sys.Detach(d); err != nil {
		t.Fatalf("unexpected detach error: %v", err)
	}
	if sys.Disks.Next(nil) != nil {
		t.Error("registry not empty after detach")
	}
}
