package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/sightmark/internal/domain/adjust"
)

func (c *cli) newCalcCmd() *cobra.Command {
	var (
		shot          shotFlags
		width, height float64
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute an adjustment from points and an image size",
		Example: `  sightctl calc --gold 50,50 --group 55,45 --width 1000 --height 1000
  sightctl calc --gold 50,50 --group 48,52 --width 3024 --height 4032 --face 80 --distance 50 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := shot.input(cmd, c, width, height)
			if err != nil {
				return err
			}
			res, err := adjust.NewCalculator(adjust.WithMechanism(c.cfg.Mechanism())).Calculate(in)
			if err != nil {
				return err
			}

			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			writeResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	shot.register(cmd)
	cmd.Flags().Float64Var(&width, "width", 0, "image width in pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "image height in pixels")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}
