package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/sightmark/internal/adapters/http/api"
	service "github.com/okian/sightmark/internal/app"
	"github.com/okian/sightmark/internal/domain/adjust"
	"github.com/okian/sightmark/internal/domain/model"
	"github.com/okian/sightmark/internal/domain/photo"
)

func execute(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParsePoint(t *testing.T) {
	convey.Convey("Given point strings", t, func() {
		p, err := parsePoint("50,50")
		convey.So(err, convey.ShouldBeNil)
		convey.So(p, convey.ShouldResemble, model.Point{X: 50, Y: 50})

		p, err = parsePoint(" 1.5 , 2 ")
		convey.So(err, convey.ShouldBeNil)
		convey.So(p, convey.ShouldResemble, model.Point{X: 1.5, Y: 2})

		for _, bad := range []string{"50", "a,1", "1,b", ""} {
			_, err = parsePoint(bad)
			convey.So(errors.Is(err, errPoint), convey.ShouldBeTrue)
		}
	})
}

func TestCalcCommand(t *testing.T) {
	convey.Convey("Given the calc command", t, func() {
		base := []string{"calc", "--gold", "50,50", "--group", "55,45", "--width", "1000", "--height", "1000"}

		convey.Convey("When run with the reference shot", func() {
			out, err := execute(base...)

			convey.Convey("Then the readout uses config defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "pixels per cm: 25.00")
				convey.So(out, convey.ShouldContainSubstring, "windage:   RIGHT 0 turns 9 clicks (0.704 mm)")
				convey.So(out, convey.ShouldContainSubstring, "elevation: DOWN 0 turns 9 clicks (0.704 mm)")
			})
		})

		convey.Convey("When run with --json", func() {
			out, err := execute(append(base, "--json")...)
			convey.So(err, convey.ShouldBeNil)

			var res model.Result
			convey.So(json.Unmarshal([]byte(out), &res), convey.ShouldBeNil)
			convey.So(res.Windage.TotalClicks, convey.ShouldEqual, 9)
			convey.So(res.Elevation.Direction, convey.ShouldEqual, model.Down)
		})

		convey.Convey("When the face is not configured", func() {
			_, err := execute(append(base, "--face", "50")...)
			convey.So(errors.Is(err, errUnknownFace), convey.ShouldBeTrue)
		})

		convey.Convey("When a shot value is explicitly zero", func() {
			for _, flag := range []string{"--distance", "--radius", "--face"} {
				_, err := execute(append(base, flag, "0")...)
				convey.So(errors.Is(err, adjust.ErrInvalidInput), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When a shot value is explicitly set", func() {
			out, err := execute(append(base, "--distance", "50")...)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "(0.352 mm)")
		})

		convey.Convey("When a point is outside the image", func() {
			_, err := execute("calc", "--gold", "50,50", "--group", "120,50", "--width", "1000", "--height", "1000")
			convey.So(errors.Is(err, adjust.ErrInvalidInput), convey.ShouldBeTrue)
		})

		convey.Convey("When the gold is missing", func() {
			_, err := execute("calc", "--group", "55,45", "--width", "1000", "--height", "1000")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestPhotoCommand(t *testing.T) {
	convey.Convey("Given a 1000x1000 target photo", t, func() {
		dir := t.TempDir()
		src := filepath.Join(dir, "target.png")
		img := image.NewNRGBA(image.Rect(0, 0, 1000, 1000))
		for i := range img.Pix {
			img.Pix[i] = 255
		}
		f, err := os.Create(src)
		convey.So(err, convey.ShouldBeNil)
		convey.So(png.Encode(f, img), convey.ShouldBeNil)
		convey.So(f.Close(), convey.ShouldBeNil)

		overlay := filepath.Join(dir, "marked.png")

		convey.Convey("When the photo command writes an overlay", func() {
			out, err := execute("photo", src, "--gold", "50,50", "--group", "55,45", "--overlay", overlay, "--json")
			convey.So(err, convey.ShouldBeNil)

			var got photoOutput
			convey.So(json.Unmarshal([]byte(out), &got), convey.ShouldBeNil)

			convey.Convey("Then the photo size drives the calculation", func() {
				convey.So(got.Image.Width, convey.ShouldEqual, 1000)
				convey.So(got.Image.Format, convey.ShouldEqual, "png")
				convey.So(got.Windage.TotalClicks, convey.ShouldEqual, 9)
			})

			convey.Convey("Then the overlay marks the gold in blue", func() {
				mf, err := os.Open(overlay)
				convey.So(err, convey.ShouldBeNil)
				defer mf.Close()

				p, err := photo.Decode(context.Background(), mf)
				convey.So(err, convey.ShouldBeNil)
				c := color.NRGBAModel.Convert(p.Image.At(500, 500)).(color.NRGBA)
				convey.So(c, convey.ShouldResemble, photo.GoldColor)
			})
		})

		convey.Convey("When the file is not an image", func() {
			bad := filepath.Join(dir, "notes.txt")
			convey.So(os.WriteFile(bad, []byte("not a photo"), 0o600), convey.ShouldBeNil)

			_, err := execute("photo", bad, "--gold", "50,50", "--group", "55,45")
			convey.So(errors.Is(err, photo.ErrDecode), convey.ShouldBeTrue)
		})
	})
}

func TestFacesCommand(t *testing.T) {
	convey.Convey("Given SIGHT_TARGET_FACES", t, func() {
		t.Setenv("SIGHT_TARGET_FACES", "40,80")

		out, err := execute("faces")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldContainSubstring, "40 cm (default)")
		convey.So(out, convey.ShouldContainSubstring, "80 cm\n")
		convey.So(out, convey.ShouldNotContainSubstring, "122 cm")
	})
}

func TestLoadCommand(t *testing.T) {
	convey.Convey("Given a running server", t, func() {
		// The root command initialises the logger the service needs.
		_, err := execute("faces")
		convey.So(err, convey.ShouldBeNil)

		svc := service.New(service.WithWorkerCount(2))
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		convey.Convey("Then load verifies every item", func() {
			out, err := execute("load", "--url", srv.URL, "--batches", "2", "--size", "3", "--workers", "1", "--seed", "1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "items: 6 verified, 0 mismatched, 0 failed")
		})
	})
}
