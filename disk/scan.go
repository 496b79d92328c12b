package disk

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/blockdev/go-blockdev/mount"
)

// TableReader decodes one on-disk partition table format.
//
// TryLoad reports whether it recognized a table on the disk; when it
// did, it has already called AddPartition for every region it found.
// An error means the probe itself failed (bad read, corrupt header)
// and is treated the same as not recognizing the disk.
type TableReader interface {
	Name() string
	TryLoad(d *Disk) (bool, error)
}

// Scan re-reads the disk's partition table and reconciles the
// in-memory partition set and its mounts to match.
//
// Existing partitions are first marked as gone, then the table readers
// run in priority order; the first to recognize the disk wins and
// re-marks (or adds) the partitions it finds. The sweep that follows
// registers a mount for every surviving partition that lacks one, and
// unregisters the mount of -- then deletes -- every partition that
// disappeared from the table.
//
// If the controller's info query fails or no reader recognizes the
// disk, Scan returns an error and the disk stays unavailable; the
// previously discovered partitions and their mounts are left in place,
// since the sweep only runs on the success path.
//
// Scan should be called again whenever the underlying device may have
// been repartitioned.
func (d *Disk) Scan() error {
	d.scanMu.Lock()
	defer d.scanMu.Unlock()

	d.Available = false
	d.blockParts()

	if err := d.Info(); err != nil {
		d.log().WithError(err).Error("failed to load the disk information")
		return fmt.Errorf("disk info query: %w", err)
	}

	var loaded string
	for _, r := range d.readers {
		ok, err := r.TryLoad(d)
		if err != nil {
			d.log().WithError(err).WithField("table", r.Name()).Debug("table probe failed")
			continue
		}
		if ok {
			loaded = r.Name()
			break
		}
	}
	if loaded == "" {
		d.log().Error("failed to load the disk partitions")
		return ErrUnknownTable
	}
	d.log().WithFields(logrus.Fields{
		"table": loaded,
		"parts": d.PartCount(),
	}).Info("loaded partitions")

	d.sweep()
	d.Available = true
	return nil
}

// blockParts marks every partition as gone ahead of a rescan; the
// table reader re-marks the ones that still exist.
func (d *Disk) blockParts() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.parts {
		p.available = false
	}
}

// sweep synchronizes mounts with the rescanned partition set and drops
// the partitions that vanished.
func (d *Disk) sweep() {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.parts[:0]
	for _, p := range d.parts {
		var m *mount.Mount
		if d.mounts != nil {
			m = d.mounts.Find(mount.Disk, p)
		}

		if p.available {
			if m == nil && d.mounts != nil {
				d.mounts.Register(mount.Disk, p)
			}
			kept = append(kept, p)
			continue
		}

		if m != nil {
			d.mounts.Unregister(m)
		}
		p.disk = nil
		d.log().WithFields(logrus.Fields{
			"start": p.Start,
			"size":  p.Size,
		}).Debug("removed a stale partition")
	}
	// drop references past the new tail
	for i := len(kept); i < len(d.parts); i++ {
		d.parts[i] = nil
	}
	d.parts = kept
}
