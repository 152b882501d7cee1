package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/sightmark/internal/config"
	"github.com/okian/sightmark/internal/domain/adjust"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the reference sight defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.MaxBatch, convey.ShouldEqual, 256)
			convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 20<<20)
			convey.So(cfg.MaxPixels, convey.ShouldEqual, 64_000_000)
			convey.So(cfg.DistanceM, convey.ShouldEqual, 25)
			convey.So(cfg.SightRadiusMM, convey.ShouldEqual, 880)
			convey.So(cfg.TargetFaceCM, convey.ShouldEqual, 40)
			convey.So(cfg.TargetFaces, convey.ShouldResemble, []float64{40, 60, 80, 122})
			convey.So(cfg.Mechanism(), convey.ShouldResemble, adjust.DefaultMechanism())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one broken value", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
			want   string
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }, "addr must not be empty"},
			{"bad log format", func(c *config.Config) { c.LogFormat = "xml" }, "log_format"},
			{"zero workers", func(c *config.Config) { c.WorkerCount = 0 }, "worker_count"},
			{"negative queue", func(c *config.Config) { c.QueueSize = -1 }, "queue_size"},
			{"zero batch", func(c *config.Config) { c.MaxBatch = 0 }, "max_batch"},
			{"zero upload", func(c *config.Config) { c.MaxUploadBytes = 0 }, "max_upload_bytes"},
			{"zero pixels", func(c *config.Config) { c.MaxPixels = 0 }, "max_pixels"},
			{"zero distance", func(c *config.Config) { c.DistanceM = 0 }, "distance_m"},
			{"negative radius", func(c *config.Config) { c.SightRadiusMM = -880 }, "sight_radius_mm"},
			{"no faces", func(c *config.Config) { c.TargetFaces = nil }, "target_faces must not be empty"},
			{"negative face", func(c *config.Config) { c.TargetFaces = []float64{40, -1} }, "must be positive"},
			{"default face not listed", func(c *config.Config) { c.TargetFaceCM = 50 }, "not in target_faces"},
			{"zero mm per click", func(c *config.Config) { c.MMPerClick = 0 }, "mm per click"},
			{"zero clicks per turn", func(c *config.Config) { c.ClicksPerTurn = 0 }, "clicks per turn"},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
			})
		}

		convey.Convey("When the mechanism is invalid", func() {
			cfg := config.New()
			cfg.ClicksPerTurn = -2

			convey.So(errors.Is(cfg.Validate(), adjust.ErrInvalidMechanism), convey.ShouldBeTrue)
		})
	})
}
