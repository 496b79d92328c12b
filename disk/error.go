package disk

import "errors"

var (
	// ErrNoHandle is returned when a disk is added without a
	// controller handle to back it.
	ErrNoHandle = errors.New("disk must be backed by a controller handle")

	// ErrShortBuffer is returned when a buffer cannot hold the
	// requested transfer.
	ErrShortBuffer = errors.New("buffer too small for requested transfer")

	// ErrUnknownTable is returned by Scan when no table reader
	// recognized the disk.
	ErrUnknownTable = errors.New("unknown disk partition table")

	// ErrOutOfRange is returned for partition-relative I/O that
	// reaches past the end of the partition.
	ErrOutOfRange = errors.New("request beyond end of partition")

	// ErrPartitionRemoved is returned for I/O on a partition that a
	// rescan has removed from its disk.
	ErrPartitionRemoved = errors.New("partition removed from disk")
)
