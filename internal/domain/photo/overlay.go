package photo

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/okian/sightmark/internal/domain/model"
)

// Crosshair geometry in pixels. The black outline sits under the coloured bar
// so the mark stays visible on both the gold and the black rings.
const (
	defaultOutlineHalfLength = 60
	defaultOutlineThickness  = 12
	defaultBarHalfLength     = 50
	defaultBarThickness      = 8
	labelGap                 = 6
)

// Crosshair colours.
var (
	GoldColor    = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
	GroupColor   = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
	OutlineColor = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
)

type overlayOptions struct {
	outlineHalf, outlineThick int
	barHalf, barThick         int
	labels                    bool
}

// OverlayOption applies a configuration option to Overlay.
type OverlayOption func(*overlayOptions)

// WithArm sets the half length and thickness of the coloured bar. The outline
// grows with it by the same margin as the defaults.
func WithArm(halfLength, thickness int) OverlayOption {
	return func(o *overlayOptions) {
		if halfLength > 0 && thickness > 0 {
			o.barHalf, o.barThick = halfLength, thickness
			o.outlineHalf = halfLength + (defaultOutlineHalfLength - defaultBarHalfLength)
			o.outlineThick = thickness + (defaultOutlineThickness - defaultBarThickness)
		}
	}
}

// WithLabels writes "GOLD" and "GROUP" next to the crosshairs.
func WithLabels(enabled bool) OverlayOption {
	return func(o *overlayOptions) {
		o.labels = enabled
	}
}

// Overlay returns a copy of img with a blue crosshair on the gold and a red one
// on the group. The source image is not modified.
func Overlay(img image.Image, gold, group model.Point, opts ...OverlayOption) *image.NRGBA {
	o := overlayOptions{
		outlineHalf:  defaultOutlineHalfLength,
		outlineThick: defaultOutlineThickness,
		barHalf:      defaultBarHalfLength,
		barThick:     defaultBarThickness,
	}
	for _, opt := range opts {
		opt(&o)
	}

	dst := imaging.Clone(img)
	marks := []struct {
		p     model.Point
		c     color.NRGBA
		label string
	}{
		{gold, GoldColor, "GOLD"},
		{group, GroupColor, "GROUP"},
	}
	for _, m := range marks {
		center := ToPixel(m.p, dst.Bounds())
		drawCross(dst, center, o.outlineHalf, o.outlineThick, OutlineColor)
		drawCross(dst, center, o.barHalf, o.barThick, m.c)
		if o.labels {
			drawLabel(dst, center, o.outlineHalf, m.label, m.c)
		}
	}
	return dst
}

// ToPixel maps a percentage point onto bounds.
func ToPixel(p model.Point, bounds image.Rectangle) image.Point {
	x := bounds.Min.X + int(math.Round(p.X/100*float64(bounds.Dx())))
	y := bounds.Min.Y + int(math.Round(p.Y/100*float64(bounds.Dy())))
	return image.Pt(x, y)
}

func drawCross(dst draw.Image, c image.Point, half, thick int, col color.Color) {
	src := image.NewUniform(col)
	lo, hi := thick/2, thick-thick/2
	horizontal := image.Rect(c.X-half, c.Y-lo, c.X+half, c.Y+hi)
	vertical := image.Rect(c.X-lo, c.Y-half, c.X+hi, c.Y+half)
	for _, r := range []image.Rectangle{horizontal, vertical} {
		draw.Draw(dst, r.Intersect(dst.Bounds()), src, image.Point{}, draw.Over)
	}
}

func drawLabel(dst draw.Image, c image.Point, half int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.I(c.X + half + labelGap),
			Y: fixed.I(c.Y - labelGap),
		},
	}
	d.DrawString(text)
}
