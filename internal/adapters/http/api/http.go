// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/sightmark/internal/app"
	"github.com/okian/sightmark/internal/domain/adjust"
	"github.com/okian/sightmark/internal/domain/model"
	"github.com/okian/sightmark/internal/domain/photo"
	"github.com/okian/sightmark/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Calculate(ctx context.Context, in model.Input) (model.Result, error)
	CalculateBatch(ctx context.Context, inputs []model.Input) ([]service.Outcome, error)
	Defaults() service.Defaults
	IsTargetFace(cm float64) bool
	MaxBatch() int
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	adjustmentsHandler *AdjustmentsHandler
	photosHandler      *PhotosHandler
	facesHandler       *FacesHandler

	logger logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxUploadBytes int64
	maxPixels      int64
	logger         logger.Logger
}

// WithMaxUploadBytes caps the size of an uploaded photo.
func WithMaxUploadBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// WithMaxPixels caps width*height of an uploaded photo.
func WithMaxPixels(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxPixels = n
		}
	}
}

// WithLogger sets the logger handlers write to.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{maxUploadBytes: photo.DefaultMaxBytes, maxPixels: photo.DefaultMaxPixels}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}

	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		adjustmentsHandler: NewAdjustmentsHandler(deps, o.logger),
		photosHandler:      NewPhotosHandler(deps, o.maxUploadBytes, o.maxPixels, o.logger),
		facesHandler:       NewFacesHandler(deps),
		logger:             o.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/target-faces", MetricsMiddleware(s.facesHandler.HandleGetFaces, "target_faces"))
	mux.HandleFunc("/adjustments", MetricsMiddleware(s.adjustmentsHandler.HandlePostAdjustment, "adjustments"))
	mux.HandleFunc("/adjustments/batch", MetricsMiddleware(s.adjustmentsHandler.HandlePostBatch, "adjustments_batch"))
	mux.HandleFunc("/photos/inspect", MetricsMiddleware(s.photosHandler.HandleInspect, "photos_inspect"))
	mux.HandleFunc("/photos/adjustments", MetricsMiddleware(s.photosHandler.HandleAdjustment, "photos_adjustments"))
	mux.HandleFunc("/photos/overlay", MetricsMiddleware(s.photosHandler.HandleOverlay, "photos_overlay"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps an error kind to its HTTP status and error code.
func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, photo.ErrTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, adjust.ErrInvalidInput), errors.Is(err, ErrUnknownFace):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrMissingFile), errors.Is(err, service.ErrEmptyBatch):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge, "batch_too_large"
	case errors.Is(err, photo.ErrDecode):
		return http.StatusUnsupportedMediaType, "unsupported_media"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with its classified status and logs server-side failures.
func fail(ctx context.Context, l logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(ctx, "request failed",
			logger.String("op", op),
			logger.String("request_id", RequestIDFrom(ctx)),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}
