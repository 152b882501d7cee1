package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	service "github.com/okian/sightmark/internal/app"
	"github.com/okian/sightmark/internal/domain/adjust"
	"github.com/okian/sightmark/internal/domain/photo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given wrapped error kinds", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("x: %w", adjust.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
			{ErrUnknownFace, http.StatusBadRequest, "invalid_input"},
			{ErrMissingFile, http.StatusBadRequest, "bad_request"},
			{service.ErrEmptyBatch, http.StatusBadRequest, "bad_request"},
			{fmt.Errorf("%w: %w", ErrBadRequest, &http.MaxBytesError{Limit: 1}), http.StatusRequestEntityTooLarge, "too_large"},
			{photo.ErrTooLarge, http.StatusRequestEntityTooLarge, "too_large"},
			{service.ErrBatchTooLarge, http.StatusRequestEntityTooLarge, "batch_too_large"},
			{photo.ErrDecode, http.StatusUnsupportedMediaType, "unsupported_media"},
			{service.ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
			{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
			{context.Canceled, http.StatusServiceUnavailable, "cancelled"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}

		for _, tc := range cases {
			status, code := classify(tc.err)
			So(status, ShouldEqual, tc.status)
			So(code, ShouldEqual, tc.code)
		}
	})
}

func TestErrorTypes(t *testing.T) {
	Convey("Given HTTP status codes", t, func() {
		So(getErrorType(500), ShouldEqual, "server_error")
		So(getErrorType(429), ShouldEqual, "rate_limit")
		So(getErrorType(415), ShouldEqual, "unsupported_media")
		So(getErrorType(413), ShouldEqual, "too_large")
		So(getErrorType(404), ShouldEqual, "not_found")
		So(getErrorType(400), ShouldEqual, "client_error")
		So(getErrorType(200), ShouldEqual, "unknown")
		So(getErrorSeverity(503), ShouldEqual, "high")
		So(getErrorSeverity(400), ShouldEqual, "medium")
		So(getErrorSeverity(200), ShouldEqual, "low")
	})
}
