package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	flagDebug      bool
	flagNoGPT      bool
	flagSectorSize uint64
	flagConfig     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "blkinfo",
	Short: "blkinfo - inspect disk images and block devices",
	Long: `blkinfo attaches disk images or block devices, scans their
partition tables (GPT first, MBR as the legacy fallback) and reports
the resulting partition and mount picture. Images compressed with xz
or lz4 are decompressed transparently.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagDebug {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoGPT, "no-gpt", false, "probe only the legacy MBR format")
	rootCmd.PersistentFlags().Uint64Var(&flagSectorSize, "sector-size", 0, "override the sector size in bytes (0 = device default)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "yaml file listing devices to attach")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(readCmd)
}
