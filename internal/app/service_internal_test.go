package service

import (
	"context"
	"errors"
	"testing"

	jobqueue "github.com/okian/sightmark/internal/adapters/mq/queue"
	"github.com/okian/sightmark/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCalculateBatchBackpressure(t *testing.T) {
	Convey("Given a started service whose workers are not draining", t, func() {
		svc := New()
		// No pool: nothing consumes the queue.
		svc.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(1))
		svc.started = true

		Convey("When a batch is larger than the free queue space", func() {
			_, err := svc.CalculateBatch(context.Background(), make([]model.Input, 2))

			Convey("Then the queue pushes back", func() {
				So(errors.Is(err, ErrBackpressure), ShouldBeTrue)
			})
		})

		Convey("When the queue has been closed", func() {
			_ = svc.queue.Close()
			_, err := svc.CalculateBatch(context.Background(), make([]model.Input, 1))

			Convey("Then the service reports it is not running", func() {
				So(errors.Is(err, ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}
