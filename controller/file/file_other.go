//go:build !linux

package file

import "os"

// without kernel support we fall back to the default sector size and
// the stat size, which is fine for image files
func sectorSizes(_ *os.File) (uint64, uint64, error) {
	return defaultSectorSize, defaultSectorSize, nil
}

func deviceSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
