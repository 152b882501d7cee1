package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sightmark/internal/adapters/http/api"
	service "github.com/okian/sightmark/internal/app"
	"github.com/okian/sightmark/internal/domain/adjust"
	"github.com/okian/sightmark/pkg/logger"
)

func init() {
	_ = logger.Init(logger.WithWriter(&strings.Builder{}))
}

func newServer(t *testing.T, maxBatch int) *httptest.Server {
	t.Helper()
	svc := service.New(service.WithWorkerCount(2), service.WithMaxBatch(maxBatch))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) *Config {
	return &Config{BaseURL: url, Batches: 6, BatchSize: 10, Workers: 3, Timeout: 5 * time.Second, Seed: 7}
}

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		faces := []float64{40, 80}
		a := NewGenerator(42, faces).Batch(50)
		b := NewGenerator(42, faces).Batch(50)

		Convey("Then they produce the same valid items", func() {
			So(a, ShouldResemble, b)
			for _, it := range a {
				So(adjust.Validate(it.Input()), ShouldBeNil)
				So(faces, ShouldContain, it.TargetFaceCM)
			}
		})

		Convey("And a different seed changes the items", func() {
			So(NewGenerator(43, faces).Batch(50), ShouldNotResemble, a)
		})
	})
}

func TestRunAgainstServer(t *testing.T) {
	Convey("Given a running sightmark server", t, func() {
		srv := newServer(t, 16)

		Convey("When a load run completes", func() {
			stats, err := Run(context.Background(), testConfig(srv.URL))

			Convey("Then every item matches the local calculation", func() {
				So(err, ShouldBeNil)
				So(stats.BatchesSubmitted, ShouldEqual, 6)
				So(stats.ItemsVerified, ShouldEqual, 60)
				So(stats.ItemsMismatched, ShouldEqual, 0)
				So(stats.Duration, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When batches exceed the server limit", func() {
			cfg := testConfig(srv.URL)
			cfg.BatchSize = 17
			stats, err := Run(context.Background(), cfg)

			Convey("Then the batches are counted as failed", func() {
				So(err, ShouldBeNil)
				So(stats.BatchesFailed, ShouldEqual, 6)
				So(stats.ItemsVerified, ShouldEqual, 0)
			})
		})
	})
}

// fakeServer answers health and faces normally and batches with handler.
func fakeServer(t *testing.T, batch http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/target-faces", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(Defaults{TargetFaces: []float64{40}, Mechanism: adjust.DefaultMechanism()})
	})
	mux.HandleFunc("/adjustments/batch", batch)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunDetectsProblems(t *testing.T) {
	Convey("Given a server that returns wrong clicks", t, func() {
		srv := fakeServer(t, func(w http.ResponseWriter, r *http.Request) {
			var req batchRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			calc := adjust.NewCalculator()
			out := map[string]any{"batch_id": "b"}
			results := make([]map[string]any, len(req.Items))
			for i, it := range req.Items {
				res, _ := calc.Calculate(it.Input())
				res.Windage.TotalClicks++
				results[i] = map[string]any{"index": i, "result": res}
			}
			out["results"] = results
			_ = json.NewEncoder(w).Encode(out)
		})

		Convey("Then the run reports a mismatch", func() {
			stats, err := Run(context.Background(), testConfig(srv.URL))
			So(errors.Is(err, ErrMismatch), ShouldBeTrue)
			So(stats.ItemsMismatched, ShouldEqual, 60)
		})
	})

	Convey("Given a server under backpressure", t, func() {
		srv := fakeServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		Convey("Then rejected batches are counted", func() {
			stats, err := Run(context.Background(), testConfig(srv.URL))
			So(err, ShouldBeNil)
			So(stats.BatchesRejected, ShouldEqual, 6)
		})
	})

	Convey("Given an unhealthy server", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		Convey("Then the run stops before submitting", func() {
			stats, err := Run(context.Background(), testConfig(srv.URL))
			So(err, ShouldNotBeNil)
			So(stats.BatchesSubmitted, ShouldEqual, 0)
		})
	})
}
