package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordrnn/constants"
	"github.com/jsphweid/chordrnn/midi"
)

var (
	importPartition string
	importMaxFiles  int
)

func init() {
	importCmd.Flags().StringVarP(&importPartition, "partition", "p", constants.Train, "Partition to write (train, dev, test, sample)")
	importCmd.Flags().IntVar(&importMaxFiles, "max-files", 0, "Import at most this many files (0 for all)")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <midi-dir>",
	Short: "Convert a directory of MIDI files into a partition's scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch importPartition {
		case constants.Train, constants.Dev, constants.Test, constants.Sample:
		default:
			return fmt.Errorf("unknown partition %q", importPartition)
		}
		e, err := loadEnv(nil)
		if err != nil {
			return err
		}
		stats, err := midi.ImportPartition(e.layout, importPartition, args[0], importMaxFiles, e.logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d files into %s\n", stats.Scores, stats.Files, stats.Path)
		return nil
	},
}
