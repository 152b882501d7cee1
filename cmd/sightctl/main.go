// Command sightctl computes sight adjustments offline and drives a running
// sightmark server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/sightmark/internal/config"
	"github.com/okian/sightmark/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by the subcommands.
type cli struct {
	cfg     *config.Config
	jsonOut bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "sightctl",
		Short: "Bow sight adjustment calculator",
		Long: `Turns the offset between the gold and an arrow group into windage and
elevation corrections for a bow sight, in turns and clicks of the knob.

Points are given as X,Y percentages of the image width and height, measured
from the top left corner. Defaults come from the same SIGHT_* environment
variables and SIGHT_CONFIG file the server reads.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		c.newCalcCmd(),
		c.newPhotoCmd(),
		c.newFacesCmd(),
		c.newLoadCmd(),
	)
	return root
}
