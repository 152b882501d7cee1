package model_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/sightmark/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestInput(t *testing.T) {
	convey.Convey("Given an Input", t, func() {
		in := model.Input{
			Gold:   model.Point{X: 50, Y: 50},
			Group:  model.Point{X: 55, Y: 45},
			Target: model.TargetGeometry{WidthPx: 1000, HeightPx: 1000, FaceDiameterCM: 40},
			Shot:   model.ShootingParameters{DistanceM: 25, SightRadiusMM: 880},
		}

		convey.Convey("When swapping gold and group", func() {
			swapped := in.Swap()

			convey.Convey("Then the points are exchanged and the rest is untouched", func() {
				convey.So(swapped.Gold, convey.ShouldResemble, in.Group)
				convey.So(swapped.Group, convey.ShouldResemble, in.Gold)
				convey.So(swapped.Target, convey.ShouldResemble, in.Target)
				convey.So(swapped.Shot, convey.ShouldResemble, in.Shot)
			})

			convey.Convey("And the original value is not modified", func() {
				convey.So(in.Gold, convey.ShouldResemble, model.Point{X: 50, Y: 50})
			})
		})
	})
}

func TestResultJSON(t *testing.T) {
	convey.Convey("Given a result", t, func() {
		res := model.Result{
			PixelsPerCM: 25,
			Windage:     model.Axis{AdjustmentMM: 0.704, Direction: model.Right, Clicks: 9, TotalClicks: 9},
			Elevation:   model.Axis{AdjustmentMM: 0.704, Direction: model.Down, Clicks: 9, TotalClicks: 9},
			Mechanism:   model.Mechanism{MMPerClick: 0.08, ClicksPerTurn: 10},
		}

		convey.Convey("When encoding it as JSON", func() {
			b, err := json.Marshal(res)

			convey.Convey("Then it uses snake_case field names and direction labels", func() {
				convey.So(err, convey.ShouldBeNil)
				s := string(b)
				convey.So(s, convey.ShouldContainSubstring, `"pixels_per_cm":25`)
				convey.So(s, convey.ShouldContainSubstring, `"direction":"RIGHT"`)
				convey.So(s, convey.ShouldContainSubstring, `"direction":"DOWN"`)
				convey.So(s, convey.ShouldContainSubstring, `"clicks_per_turn":10`)
			})
		})
	})
}

func TestAxisString(t *testing.T) {
	convey.Convey("Given an axis of 1 turn and 8 clicks to the left", t, func() {
		a := model.Axis{Direction: model.Left, Turns: 1, Clicks: 8, TotalClicks: 18}

		convey.Convey("Then it reads as a range instruction", func() {
			convey.So(a.String(), convey.ShouldEqual, "LEFT 1 turns 8 clicks")
		})
	})
}
