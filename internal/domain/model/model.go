// Package model contains domain models passed between layers.
package model

import "fmt"

// Direction labels the way a sight pin has to move on one axis.
type Direction string

// Direction values. A zero adjustment is reported as Left or Up.
const (
	Left  Direction = "LEFT"
	Right Direction = "RIGHT"
	Up    Direction = "UP"
	Down  Direction = "DOWN"
)

// Point locates a position inside an image as percentages (0-100) of its
// width and height, independent of the pixel resolution.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TargetGeometry describes the photographed target face.
type TargetGeometry struct {
	WidthPx        float64 `json:"width"`
	HeightPx       float64 `json:"height"`
	FaceDiameterCM float64 `json:"target_face_cm"`
}

// ShootingParameters describes the shot itself.
type ShootingParameters struct {
	DistanceM     float64 `json:"distance_m"`      // distance to the target
	SightRadiusMM float64 `json:"sight_radius_mm"` // lever arm from the bow pivot to the sight pin
}

// Mechanism describes the adjustment knob of the sight.
type Mechanism struct {
	MMPerClick    float64 `json:"mm_per_click"`
	ClicksPerTurn int     `json:"clicks_per_turn"`
}

// Input is everything the calculator needs for a single computation.
type Input struct {
	Gold   Point              `json:"gold"`
	Group  Point              `json:"group"`
	Target TargetGeometry     `json:"target"`
	Shot   ShootingParameters `json:"shot"`
}

// Axis is the correction for one axis of the sight.
type Axis struct {
	OffsetPx     float64   `json:"offset_px"`
	ErrorMM      float64   `json:"error_mm"`
	AdjustmentMM float64   `json:"adjustment_mm"`
	Direction    Direction `json:"direction"`
	Turns        int       `json:"turns"`
	Clicks       int       `json:"clicks"`
	TotalClicks  int       `json:"total_clicks"`
}

// String renders the axis the way it is read out at the range.
func (a Axis) String() string {
	return fmt.Sprintf("%s %d turns %d clicks", a.Direction, a.Turns, a.Clicks)
}

// Result is the full adjustment for one photo.
type Result struct {
	PixelsPerCM float64   `json:"pixels_per_cm"`
	Windage     Axis      `json:"windage"`
	Elevation   Axis      `json:"elevation"`
	Mechanism   Mechanism `json:"mechanism"`
}

// Swap returns the input with gold and group exchanged.
func (in Input) Swap() Input {
	in.Gold, in.Group = in.Group, in.Gold
	return in
}
