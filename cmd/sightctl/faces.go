package main

import (
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/sightmark/internal/app"
)

func (c *cli) newFacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "faces",
		Short: "List the accepted target faces and the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := service.Defaults{
				DistanceM:     c.cfg.DistanceM,
				SightRadiusMM: c.cfg.SightRadiusMM,
				TargetFaceCM:  c.cfg.TargetFaceCM,
				TargetFaces:   c.cfg.TargetFaces,
				Mechanism:     c.cfg.Mechanism(),
			}
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), d)
			}

			w := cmd.OutOrStdout()
			for _, f := range d.TargetFaces {
				mark := ""
				if f == d.TargetFaceCM {
					mark = " (default)"
				}
				fmt.Fprintf(w, "%g cm%s\n", f, mark)
			}
			fmt.Fprintf(w, "distance: %g m\nsight radius: %g mm\nmechanism: %g mm/click, %d clicks/turn\n",
				d.DistanceM, d.SightRadiusMM, d.Mechanism.MMPerClick, d.Mechanism.ClicksPerTurn)
			return nil
		},
	}
}
