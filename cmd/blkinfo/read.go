package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	blockdev "github.com/blockdev/go-blockdev"
)

var (
	flagReadLBA  uint64
	flagReadSize uint64
	flagReadHex  bool
	flagReadOut  string
)

var readCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Read a byte range from a device through the translation engine",
	Long: `Read --size bytes starting at sector --lba from the given image or
device. The request does not have to be sector-aligned; partial sectors
are handled by the translation engine.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if flagReadSize == 0 {
			return fmt.Errorf("must pass a non-zero --size")
		}

		sys := blockdev.New(blockdev.Options{DisableGPT: flagNoGPT})
		d, err := sys.Attach(args[0], true)
		if err != nil {
			return fmt.Errorf("attaching %s: %w", args[0], err)
		}
		defer sys.Detach(d)
		if flagSectorSize != 0 {
			d.SectorSize = flagSectorSize
		}

		buf := make([]byte, flagReadSize)
		if err := d.Read(flagReadLBA, flagReadSize, buf); err != nil {
			return fmt.Errorf("reading %d bytes at sector %d: %w", flagReadSize, flagReadLBA, err)
		}

		out := os.Stdout
		if flagReadOut != "" {
			f, err := os.Create(flagReadOut)
			if err != nil {
				return fmt.Errorf("creating %s: %w", flagReadOut, err)
			}
			defer f.Close()
			out = f
		}

		if flagReadHex {
			_, err = fmt.Fprint(out, hex.Dump(buf))
		} else {
			_, err = out.Write(buf)
		}
		return err
	},
}

func init() {
	readCmd.Flags().Uint64Var(&flagReadLBA, "lba", 0, "first sector of the read")
	readCmd.Flags().Uint64Var(&flagReadSize, "size", 0, "number of bytes to read")
	readCmd.Flags().BoolVar(&flagReadHex, "hex", false, "hex dump instead of raw bytes")
	readCmd.Flags().StringVar(&flagReadOut, "out", "", "write to a file instead of stdout")
}
