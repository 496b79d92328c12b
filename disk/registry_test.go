package disk_test

import (
	"errors"
	"testing"

	"github.com/blockdev/go-blockdev/disk"
	"github.com/blockdev/go-blockdev/mount"
)

func TestRegistryAdd(t *testing.T) {
	r := disk.NewRegistry(mount.NewRegistry())

	if _, err := r.Add(testKind, nil); !errors.Is(err, disk.ErrNoHandle) {
		t.Errorf("mismatched error for nil handle, actual %v expected %v", err, disk.ErrNoHandle)
	}

	d, err := r.Add(testKind, struct{}{})
	switch {
	case err != nil:
		t.Fatalf("unexpected error: %v", err)
	case d.SectorSize != disk.DefaultSectorSize:
		t.Errorf("mismatched sector size, actual %d expected %d", d.SectorSize, disk.DefaultSectorSize)
	case d.PartCount() != 0:
		t.Errorf("mismatched partition count, actual %d expected 0", d.PartCount())
	case d.Available:
		t.Error("freshly added disk reported available")
	case r.Next(nil) != d:
		t.Error("iteration does not start at the added disk")
	case r.Next(d) != nil:
		t.Error("iteration continues past the only disk")
	}
}

func TestRegistryNext(t *testing.T) {
	r := disk.NewRegistry(mount.NewRegistry())
	if r.Next(nil) != nil {
		t.Error("Next on an empty registry should return nil")
	}

	var added []*disk.Disk
	for i := 0; i < 3; i++ {
		d, err := r.Add(testKind, struct{}{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		added = append(added, d)
	}

	var walked []*disk.Disk
	for d := r.Next(nil); d != nil; d = r.Next(d) {
		walked = append(walked, d)
	}
	if len(walked) != len(added) {
		t.Fatalf("walked %d disks, expected %d", len(walked), len(added))
	}
	for i := range walked {
		if walked[i] != added[i] {
			t.Errorf("disk %d out of registration order", i)
		}
	}

	// iteration is restartable
	if r.Next(nil) != added[0] {
		t.Error("restarted iteration does not begin at the head")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := disk.NewRegistry(mount.NewRegistry())

	// removal on an empty registry is a no-op
	r.Remove(nil)

	a, _ := r.Add(testKind, struct{}{})
	b, _ := r.Add(testKind, struct{}{})
	c, _ := r.Add(testKind, struct{}{})

	r.Remove(b)
	if got := r.Disks(); len(got) != 2 || got[0] != a || got[1] != c {
		t.Errorf("mismatched registry contents after removal: %v", got)
	}

	// removing a disk twice is a no-op
	r.Remove(b)
	if len(r.Disks()) != 2 {
		t.Error("double removal changed the registry")
	}
}
