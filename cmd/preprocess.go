package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordrnn/config"
	"github.com/jsphweid/chordrnn/constants"
	"github.com/jsphweid/chordrnn/feature"
	"github.com/jsphweid/chordrnn/util"
)

var (
	preprocessVariant    variantFlags
	preprocessPartitions []string
)

func init() {
	preprocessVariant.bind(preprocessCmd, false)
	preprocessCmd.Flags().StringSliceVar(&preprocessPartitions, "partitions", constants.Partitions, "Partitions to process")
	rootCmd.AddCommand(preprocessCmd)
}

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Extract per-measure features and build the vocabularies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(func(cfg config.Config) config.Config {
			return preprocessVariant.apply(cmd, cfg)
		})
		if err != nil {
			return err
		}
		release, err := util.LockDir(e.cfg.Paths.DataDir)
		if err != nil {
			return err
		}
		defer release()

		all, err := feature.Preprocess(e.layout, preprocessPartitions, e.cfg.Features.NormalizeFlats, e.logger)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(all))
		for _, s := range all {
			vocabSizes := "-"
			if s.WroteVocab {
				vocabSizes = fmt.Sprintf("%d / %d", s.NotesVocab, s.ChordsVocab)
			}
			rows = append(rows, []string{
				s.Partition,
				strconv.Itoa(s.Scores),
				strconv.Itoa(s.Records),
				strconv.Itoa(s.EmptyNotes),
				strconv.Itoa(s.EmptyChords),
				vocabSizes,
			})
		}
		writeTable(cmd.OutOrStdout(), []column{
			label("Partition"), number("Scores"), number("Measures"),
			number("No notes"), number("No chords"), number("Vocab (notes / chords)"),
		}, rows)
		return nil
	},
}
