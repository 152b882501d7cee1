package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/sightmark/internal/domain/adjust"
	"github.com/okian/sightmark/internal/domain/model"
)

var (
	errPoint       = errors.New("point must be X,Y")
	errUnknownFace = errors.New("unknown target face")
)

// pointValue is a pflag.Value holding an X,Y percentage pair.
type pointValue struct {
	p   model.Point
	set bool
}

func (v *pointValue) String() string {
	if !v.set {
		return ""
	}
	return fmt.Sprintf("%g,%g", v.p.X, v.p.Y)
}

func (v *pointValue) Set(s string) error {
	p, err := parsePoint(s)
	if err != nil {
		return err
	}
	v.p, v.set = p, true
	return nil
}

func (v *pointValue) Type() string { return "X,Y" }

func parsePoint(s string) (model.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return model.Point{}, fmt.Errorf("%w, got %q", errPoint, s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("%w: x: %w", errPoint, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("%w: y: %w", errPoint, err)
	}
	return model.Point{X: x, Y: y}, nil
}

// shotFlags are the flags shared by calc and photo.
type shotFlags struct {
	gold, group pointValue
	face        float64
	distance    float64
	radius      float64
}

func (f *shotFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Var(&f.gold, "gold", "gold centre as X,Y percent")
	fs.Var(&f.group, "group", "group centre as X,Y percent")
	fs.Float64Var(&f.face, "face", 0, "target face diameter in cm (default from config)")
	fs.Float64Var(&f.distance, "distance", 0, "shooting distance in m (default from config)")
	fs.Float64Var(&f.radius, "radius", 0, "sight radius in mm (default from config)")
	_ = cmd.MarkFlagRequired("gold")
	_ = cmd.MarkFlagRequired("group")
}

// input builds the calculator input, filling flags the user did not pass from
// the config. An explicit zero is kept so validation rejects it.
func (f *shotFlags) input(cmd *cobra.Command, c *cli, widthPx, heightPx float64) (model.Input, error) {
	flags := cmd.Flags()
	face := orDefault(flags.Changed("face"), f.face, c.cfg.TargetFaceCM)
	if !slices.Contains(c.cfg.TargetFaces, face) {
		return model.Input{}, fmt.Errorf("%w: %w: %g cm, expected one of %v", adjust.ErrInvalidInput, errUnknownFace, face, c.cfg.TargetFaces)
	}
	return model.Input{
		Gold:  f.gold.p,
		Group: f.group.p,
		Target: model.TargetGeometry{
			WidthPx:        widthPx,
			HeightPx:       heightPx,
			FaceDiameterCM: face,
		},
		Shot: model.ShootingParameters{
			DistanceM:     orDefault(flags.Changed("distance"), f.distance, c.cfg.DistanceM),
			SightRadiusMM: orDefault(flags.Changed("radius"), f.radius, c.cfg.SightRadiusMM),
		},
	}, nil
}

func orDefault(set bool, v, def float64) float64 {
	if !set {
		return def
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResult(w io.Writer, res model.Result) {
	fmt.Fprintf(w, "pixels per cm: %.2f\n", res.PixelsPerCM)
	fmt.Fprintf(w, "windage:   %s (%.3f mm)\n", res.Windage, res.Windage.AdjustmentMM)
	fmt.Fprintf(w, "elevation: %s (%.3f mm)\n", res.Elevation, res.Elevation.AdjustmentMM)
}
