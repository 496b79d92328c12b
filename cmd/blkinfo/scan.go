package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	blockdev "github.com/blockdev/go-blockdev"
	"github.com/blockdev/go-blockdev/disk"
	"github.com/blockdev/go-blockdev/mount"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path...]",
	Short: "Attach devices, scan their partition tables and report the layout",
	Long: `Attach the given disk images or block devices (or the devices from
--config), scan each one's partition table and print the discovered
partitions with their mount registrations.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(_ *cobra.Command, args []string) error {
		devices, err := devicesFromArgs(args)
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			return fmt.Errorf("no devices: pass paths or --config")
		}

		sys := blockdev.New(blockdev.Options{DisableGPT: flagNoGPT})
		var attached []*disk.Disk
		for _, dev := range devices {
			d, err := attach(sys, dev)
			if err != nil {
				return fmt.Errorf("attaching %s: %w", dev.Path, err)
			}
			attached = append(attached, d)
			if err := d.Scan(); err != nil {
				// an unrecognized disk is still worth reporting
				logrus.WithError(err).WithField("path", dev.Path).Warn("scan failed")
			}
		}

		report(sys, devices, attached)
		return nil
	},
}

func attach(sys *blockdev.System, dev DeviceConfig) (*disk.Disk, error) {
	if dev.Image {
		return sys.AttachImage(dev.Path, dev.SectorSize)
	}
	d, err := sys.Attach(dev.Path, dev.ReadOnly)
	if err != nil {
		return nil, err
	}
	if dev.SectorSize != 0 {
		d.SectorSize = dev.SectorSize
	}
	return d, nil
}

func report(sys *blockdev.System, devices []DeviceConfig, attached []*disk.Disk) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "DEVICE\tCONTROLLER\tSECTOR\tAVAILABLE\tPART\tSTART\tSIZE\tMOUNT")
	for i, d := range attached {
		path := devices[i].Path
		if d.PartCount() == 0 {
			fmt.Fprintf(w, "%s\t%s\t%d\t%t\t-\t-\t-\t-\n", path, d.Controller, d.SectorSize, d.Available)
			continue
		}
		for n, p := range d.Partitions() {
			mountID := "-"
			if m := sys.Mounts.Find(mount.Disk, p); m != nil {
				mountID = m.ID().String()
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%t\t%d\t%d\t%d\t%s\n",
				path, d.Controller, d.SectorSize, d.Available, n+1, p.Start, p.Size, mountID)
		}
	}
}
