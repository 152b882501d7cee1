// Package adjust converts the offset between the gold and an arrow group on a
// target photo into sight-pin corrections.
//
// The pipeline is a single pass of arithmetic:
//
//	pixels/cm -> pixel offset -> error at the face (mm) -> sight travel (mm) -> turns and clicks
//
// A Calculator holds nothing but the sight mechanism, so one value can be
// shared freely between goroutines.
package adjust

import (
	"fmt"
	"math"

	"github.com/okian/sightmark/internal/domain/model"
)

// Default mechanism of the reference sight: 1 click = 0.08 mm, 10 clicks = 1 turn.
const (
	DefaultMMPerClick    = 0.08
	DefaultClicksPerTurn = 10
)

const (
	mmPerCM       = 10
	mmPerM        = 1000
	maxPercentage = 100

	// float64(math.MaxInt) rounds up to 2^63, so anything at or above it overflows int.
	maxClicks = float64(math.MaxInt)
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithMechanism replaces the whole mechanism. Invalid mechanisms are ignored.
func WithMechanism(m model.Mechanism) Option {
	return func(c *Calculator) {
		if ValidateMechanism(m) == nil {
			c.mech = m
		}
	}
}

// WithMMPerClick sets the sight travel of a single click.
func WithMMPerClick(mm float64) Option {
	return func(c *Calculator) {
		if mm > 0 && !math.IsInf(mm, 0) {
			c.mech.MMPerClick = mm
		}
	}
}

// WithClicksPerTurn sets how many clicks make a full turn of the knob.
func WithClicksPerTurn(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.mech.ClicksPerTurn = n
		}
	}
}

// Calculator computes adjustments for a given sight mechanism.
type Calculator struct {
	mech model.Mechanism
}

// DefaultMechanism returns the mechanism used when none is configured.
func DefaultMechanism() model.Mechanism {
	return model.Mechanism{MMPerClick: DefaultMMPerClick, ClicksPerTurn: DefaultClicksPerTurn}
}

// NewCalculator creates a Calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{mech: DefaultMechanism()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mechanism returns the mechanism the calculator decomposes into.
func (c *Calculator) Mechanism() model.Mechanism {
	return c.mech
}

// Calculate validates in and returns the windage and elevation corrections.
// Invalid input fails with ErrInvalidInput before any division happens.
func (c *Calculator) Calculate(in model.Input) (model.Result, error) {
	if err := Validate(in); err != nil {
		return model.Result{}, err
	}

	ppcm := PixelsPerCM(in.Target.WidthPx, in.Target.FaceDiameterCM)
	dx, dy := Offsets(in.Gold, in.Group, in.Target.WidthPx, in.Target.HeightPx)

	windage, err := c.axis("windage", dx, ppcm, in.Shot)
	if err != nil {
		return model.Result{}, err
	}
	windage.Direction = WindageDirection(windage.AdjustmentMM)

	elevation, err := c.axis("elevation", dy, ppcm, in.Shot)
	if err != nil {
		return model.Result{}, err
	}
	elevation.Direction = ElevationDirection(elevation.AdjustmentMM)

	return model.Result{
		PixelsPerCM: ppcm,
		Windage:     windage,
		Elevation:   elevation,
		Mechanism:   c.mech,
	}, nil
}

func (c *Calculator) axis(name string, offsetPx, ppcm float64, shot model.ShootingParameters) (model.Axis, error) {
	errMM := ErrorMM(offsetPx, ppcm)
	adjMM := AdjustmentMM(errMM, shot.SightRadiusMM, shot.DistanceM)
	if !isFinite(adjMM) || math.Abs(adjMM)/c.mech.MMPerClick >= maxClicks {
		return model.Axis{}, fmt.Errorf("%w: %s adjustment %v mm cannot be expressed in clicks", ErrInvalidInput, name, adjMM)
	}
	turns, clicks, total := Decompose(adjMM, c.mech)
	return model.Axis{
		OffsetPx:     offsetPx,
		ErrorMM:      errMM,
		AdjustmentMM: adjMM,
		Turns:        turns,
		Clicks:       clicks,
		TotalClicks:  total,
	}, nil
}

// PixelsPerCM derives the image scale from the face diameter. Only the width is
// used; the face is assumed to fill the photo horizontally.
func PixelsPerCM(widthPx, faceDiameterCM float64) float64 {
	return widthPx / faceDiameterCM
}

// Offsets returns the pixel offset of the group relative to the gold.
// dx is positive when the group is right of the gold. dy is gold minus group
// in image rows, so a group at a smaller row percentage gives a positive dy.
func Offsets(gold, group model.Point, widthPx, heightPx float64) (dx, dy float64) {
	dx = (group.X/maxPercentage)*widthPx - (gold.X/maxPercentage)*widthPx
	dy = (gold.Y/maxPercentage)*heightPx - (group.Y/maxPercentage)*heightPx
	return dx, dy
}

// ErrorMM converts a pixel offset into millimetres on the target face.
func ErrorMM(offsetPx, pixelsPerCM float64) float64 {
	return (offsetPx / pixelsPerCM) * mmPerCM
}

// AdjustmentMM scales the error at the face down to sight travel using similar
// triangles (small-angle approximation).
func AdjustmentMM(errorMM, sightRadiusMM, distanceM float64) float64 {
	return (errorMM * sightRadiusMM) / (distanceM * mmPerM)
}

// WindageDirection labels a horizontal adjustment. Zero is LEFT.
func WindageDirection(adjMM float64) model.Direction {
	if adjMM > 0 {
		return model.Right
	}
	return model.Left
}

// ElevationDirection labels a vertical adjustment. Zero is UP.
func ElevationDirection(adjMM float64) model.Direction {
	if adjMM > 0 {
		return model.Down
	}
	return model.Up
}

// Decompose splits an adjustment into full turns and remaining clicks.
// adjMM must be finite and its click count must fit in an int. The click count is rounded half to even, then
// turns*ClicksPerTurn + clicks == total and 0 <= clicks < ClicksPerTurn.
func Decompose(adjMM float64, m model.Mechanism) (turns, clicks, total int) {
	total = int(math.RoundToEven(math.Abs(adjMM) / m.MMPerClick))
	return total / m.ClicksPerTurn, total % m.ClicksPerTurn, total
}

// Validate reports the first field of in that would make the calculation
// undefined. The returned error wraps ErrInvalidInput.
func Validate(in model.Input) error {
	positive := []struct {
		name string
		v    float64
	}{
		{"image width", in.Target.WidthPx},
		{"image height", in.Target.HeightPx},
		{"target face diameter", in.Target.FaceDiameterCM},
		{"distance", in.Shot.DistanceM},
		{"sight radius", in.Shot.SightRadiusMM},
	}
	for _, p := range positive {
		if !isFinite(p.v) || p.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidInput, p.name, p.v)
		}
	}

	points := []struct {
		name string
		p    model.Point
	}{
		{"gold", in.Gold},
		{"group", in.Group},
	}
	for _, pt := range points {
		if !inPercentRange(pt.p.X) || !inPercentRange(pt.p.Y) {
			return fmt.Errorf("%w: %s point (%v, %v) outside 0-100", ErrInvalidInput, pt.name, pt.p.X, pt.p.Y)
		}
	}
	return nil
}

// ValidateMechanism checks that a mechanism can decompose adjustments.
func ValidateMechanism(m model.Mechanism) error {
	if !isFinite(m.MMPerClick) || m.MMPerClick <= 0 {
		return fmt.Errorf("%w: mm per click must be positive, got %v", ErrInvalidMechanism, m.MMPerClick)
	}
	if m.ClicksPerTurn <= 0 {
		return fmt.Errorf("%w: clicks per turn must be positive, got %d", ErrInvalidMechanism, m.ClicksPerTurn)
	}
	return nil
}

func inPercentRange(v float64) bool {
	return isFinite(v) && v >= 0 && v <= maxPercentage
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
