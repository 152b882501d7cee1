package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okian/sightmark/internal/domain/adjust"
	"github.com/okian/sightmark/internal/domain/model"
	"github.com/okian/sightmark/internal/domain/photo"
)

type photoOutput struct {
	model.Result
	Image struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	} `json:"image"`
	Overlay string `json:"overlay,omitempty"`
}

func (c *cli) newPhotoCmd() *cobra.Command {
	var (
		shot    shotFlags
		overlay string
		labels  bool
	)

	cmd := &cobra.Command{
		Use:   "photo FILE",
		Short: "Compute an adjustment using a target photo for the image size",
		Long: `Decodes the photo, rotates it upright using its EXIF orientation and
computes the adjustment from the upright size. With --overlay the photo is
written back with a blue crosshair on the gold and a red one on the group.`,
		Example: `  sightctl photo target.jpg --gold 50.5,49 --group 56,44 --overlay marked.png`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			p, err := photo.Decode(cmd.Context(), f, photo.WithMaxBytes(c.cfg.MaxUploadBytes), photo.WithMaxPixels(c.cfg.MaxPixels))
			if err != nil {
				return err
			}

			in, err := shot.input(cmd, c, float64(p.Width()), float64(p.Height()))
			if err != nil {
				return err
			}
			res, err := adjust.NewCalculator(adjust.WithMechanism(c.cfg.Mechanism())).Calculate(in)
			if err != nil {
				return err
			}

			out := photoOutput{Result: res, Overlay: overlay}
			out.Image.Width, out.Image.Height, out.Image.Format = p.Width(), p.Height(), p.Format

			if overlay != "" {
				if err := writeOverlay(overlay, p, in, labels); err != nil {
					return err
				}
			}

			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "image: %dx%d %s\n", out.Image.Width, out.Image.Height, out.Image.Format)
			writeResult(w, res)
			if overlay != "" {
				fmt.Fprintf(w, "overlay: %s\n", overlay)
			}
			return nil
		},
	}

	shot.register(cmd)
	cmd.Flags().StringVar(&overlay, "overlay", "", "write the marked photo to this file (format from extension)")
	cmd.Flags().BoolVar(&labels, "labels", false, "label the crosshairs on the overlay")
	return cmd
}

func writeOverlay(path string, p *photo.Photo, in model.Input, labels bool) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	img := photo.Overlay(p.Image, in.Gold, in.Group, photo.WithLabels(labels))
	if err := photo.Encode(out, img, filepath.Ext(path)); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
