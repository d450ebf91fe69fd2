package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordrnn/config"
	"github.com/jsphweid/chordrnn/constants"
	"github.com/jsphweid/chordrnn/feature"
	"github.com/jsphweid/chordrnn/tensor"
	"github.com/jsphweid/chordrnn/util"
)

var (
	tensorsVariant    variantFlags
	tensorsPartitions []string
)

func init() {
	tensorsVariant.bind(tensorsCmd, true)
	tensorsCmd.Flags().StringSliceVar(&tensorsPartitions, "partitions", constants.Partitions, "Partitions to tensorize")
	rootCmd.AddCommand(tensorsCmd)
}

var tensorsCmd = &cobra.Command{
	Use:   "tensors",
	Short: "Turn feature records into note-index and one-hot chord tensors",
	Long: `tensors converts each partition's feature records into fixed-width note
index rows and one-hot chord labels against the training vocabularies.
With --clean, flat-normalized records and vocabularies are derived from the
plain ones first when they do not exist yet.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(func(cfg config.Config) config.Config {
			return tensorsVariant.apply(cmd, cfg)
		})
		if err != nil {
			return err
		}
		release, err := util.LockDir(e.cfg.Paths.DataDir)
		if err != nil {
			return err
		}
		defer release()

		v := tensor.Variant{Clean: e.cfg.Features.NormalizeFlats, Downbeat: e.cfg.Features.DownbeatOnly}
		if v.Clean {
			// the vocabulary owner goes first so dev/test never see a missing vocab
			for _, p := range append([]string{constants.Train}, tensorsPartitions...) {
				if err := feature.DeriveNormalized(e.layout, p, e.logger); err != nil {
					return err
				}
			}
		}

		opts, err := tensor.OptionsFromConfig(e.cfg)
		if err != nil {
			return err
		}
		all, err := tensor.Build(e.layout, tensorsPartitions, v, opts, e.logger)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(all))
		for _, p := range tensorsPartitions {
			s := all[p]
			rows = append(rows, []string{
				p,
				strconv.Itoa(s.Records),
				strconv.Itoa(s.Retained),
				strconv.Itoa(s.SkippedEmpty),
				strconv.Itoa(s.SkippedChord),
				strconv.Itoa(s.SkippedNote),
				strconv.Itoa(s.Truncated),
			})
		}
		writeTable(cmd.OutOrStdout(), []column{
			label("Partition"), number("Records"), number("Retained"), number("Empty"),
			number("Unknown chord"), number("Unknown note"), number("Truncated"),
		}, rows)
		return nil
	},
}
