package blockdev_test

import (
	"fmt"

	blockdev "github.com/blockdev/go-blockdev"
)

// Attach a scratch disk, write a partition table into it, scan, and
// walk the result.
func Example() {
	sys := blockdev.New(blockdev.Options{})

	d, err := sys.AttachMemory(512, 64)
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := d.Write(0, 512, mbrImage([2]uint32{2, 8}, [2]uint32{10, 16})[:512]); err != nil {
		fmt.Println(err)
		return
	}
	if err := d.Scan(); err != nil {
		fmt.Println(err)
		return
	}

	for _, p := range d.Partitions() {
		fmt.Printf("partition: start %d size %d\n", p.Start, p.Size)
	}
	// Output:
	// partition: start 2 size 8
	// partition: start 10 size 16
}
