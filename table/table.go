// Package table assembles the partition table readers in the order a
// scan should try them: the richer GPT format first, classic MBR as
// the legacy fallback.
// All decoders are subpackages of this package, e.g.
// github.com/blockdev/go-blockdev/table/mbr.
package table

import (
	"github.com/blockdev/go-blockdev/disk"
	"github.com/blockdev/go-blockdev/table/gpt"
	"github.com/blockdev/go-blockdev/table/mbr"
)

// Options select which formats a scan probes.
type Options struct {
	// DisableGPT drops the GPT reader, leaving only the MBR
	// fallback
	DisableGPT bool
}

// Readers returns the reader chain in priority order.
func Readers(opts Options) []disk.TableReader {
	var readers []disk.TableReader
	if !opts.DisableGPT {
		readers = append(readers, gpt.New())
	}
	return append(readers, mbr.New())
}
