package file

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// sectorSizes asks the kernel for the logical and physical sector
// sizes of a block device.
func sectorSizes(f *os.File) (uint64, uint64, error) {
	fd := int(f.Fd())
	logical, err := unix.IoctlGetInt(fd, unix.BLKSSZGET)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to get device logical sector size: %w", err)
	}
	physical, err := unix.IoctlGetInt(fd, unix.BLKBSZGET)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to get device physical sector size: %w", err)
	}
	return uint64(logical), uint64(physical), nil
}

// deviceSize asks the kernel for the size of a block device in bytes.
func deviceSize(f *os.File) (int64, error) {
	size, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		return 0, fmt.Errorf("unable to get device size: %w", err)
	}
	return int64(size), nil
}
