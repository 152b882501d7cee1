package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/sightmark/internal/domain/adjust"
	"github.com/okian/sightmark/internal/domain/model"
	"github.com/okian/sightmark/internal/domain/photo"
	"github.com/okian/sightmark/pkg/logger"
	"github.com/okian/sightmark/pkg/metrics"
)

const (
	photoField = "photo"
	// multipart overhead allowed on top of the photo itself
	formSlack = 1 << 20
)

type inspectResponse struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

type photoAdjustmentResponse struct {
	*adjustmentResponse
	Image inspectResponse `json:"image"`
}

// PhotosHandler handles uploads of target photos.
type PhotosHandler struct {
	deps      Dependencies
	maxBytes  int64
	maxPixels int64
	logger    logger.Logger
}

// NewPhotosHandler creates a new photos handler.
func NewPhotosHandler(deps Dependencies, maxBytes, maxPixels int64, l logger.Logger) *PhotosHandler {
	return &PhotosHandler{deps: deps, maxBytes: maxBytes, maxPixels: maxPixels, logger: l}
}

// HandleInspect handles POST /photos/inspect requests.
func (h *PhotosHandler) HandleInspect(w http.ResponseWriter, r *http.Request) {
	const op = "api.photos_inspect"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	p, err := h.readPhoto(w, r)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, describe(p))
}

// HandleAdjustment handles POST /photos/adjustments requests. The image size
// comes from the decoded photo; the rest from form fields or defaults.
func (h *PhotosHandler) HandleAdjustment(w http.ResponseWriter, r *http.Request) {
	const op = "api.photos_adjustment"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	p, err := h.readPhoto(w, r)
	if err != nil {
		fail(ctx, h.logger, w, op, err)
		return
	}
	in, err := h.formInput(r, p)
	if err != nil {
		fail(ctx, h.logger, w, op, err)
		return
	}
	res, err := h.deps.Calculate(ctx, in)
	if err != nil {
		fail(ctx, h.logger, w, op, err)
		return
	}

	h.logger.Info(ctx, "photo adjustment",
		logger.String("request_id", RequestIDFrom(ctx)),
		logger.String("format", p.Format),
		logger.String("windage", res.Windage.String()),
		logger.String("elevation", res.Elevation.String()),
	)
	writeJSON(w, http.StatusOK, photoAdjustmentResponse{
		adjustmentResponse: newAdjustmentResponse(res),
		Image:              describe(p),
	})
}

// HandleOverlay handles POST /photos/overlay requests and answers with a PNG
// of the photo with both crosshairs drawn on it.
func (h *PhotosHandler) HandleOverlay(w http.ResponseWriter, r *http.Request) {
	const op = "api.photos_overlay"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	p, err := h.readPhoto(w, r)
	if err != nil {
		fail(ctx, h.logger, w, op, err)
		return
	}
	in, err := h.formInput(r, p)
	if err != nil {
		fail(ctx, h.logger, w, op, err)
		return
	}
	if err := adjust.Validate(in); err != nil {
		fail(ctx, h.logger, w, op, err)
		return
	}

	labels, _ := strconv.ParseBool(r.FormValue("labels"))
	img := photo.Overlay(p.Image, in.Gold, in.Group, photo.WithLabels(labels))
	metrics.RecordOverlayRendered()

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if err := photo.Encode(w, img, "png"); err != nil {
		h.logger.Error(ctx, "overlay encode failed",
			logger.String("request_id", RequestIDFrom(ctx)),
			logger.Error(err),
		)
	}
}

// readPhoto parses the multipart form and decodes the photo field.
func (h *PhotosHandler) readPhoto(w http.ResponseWriter, r *http.Request) (*photo.Photo, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formSlack)
	if err := r.ParseMultipartForm(formSlack); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	f, _, err := r.FormFile(photoField)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q", ErrMissingFile, photoField)
	}
	defer func() { _ = f.Close() }()

	return photo.Decode(r.Context(), f, photo.WithMaxBytes(h.maxBytes), photo.WithMaxPixels(h.maxPixels))
}

// formInput builds a calculator input from the form fields of r.
func (h *PhotosHandler) formInput(r *http.Request, p *photo.Photo) (model.Input, error) {
	d := h.deps.Defaults()

	var (
		in  model.Input
		err error
	)
	fields := []struct {
		key string
		dst *float64
		def *float64
	}{
		{"gold_x", &in.Gold.X, nil},
		{"gold_y", &in.Gold.Y, nil},
		{"group_x", &in.Group.X, nil},
		{"group_y", &in.Group.Y, nil},
		{"target_face_cm", &in.Target.FaceDiameterCM, &d.TargetFaceCM},
		{"distance_m", &in.Shot.DistanceM, &d.DistanceM},
		{"sight_radius_mm", &in.Shot.SightRadiusMM, &d.SightRadiusMM},
	}
	for _, f := range fields {
		if *f.dst, err = formFloat(r, f.key, f.def); err != nil {
			return model.Input{}, err
		}
	}

	if !h.deps.IsTargetFace(in.Target.FaceDiameterCM) {
		return model.Input{}, fmt.Errorf("%w: %v cm, want one of %v", ErrUnknownFace, in.Target.FaceDiameterCM, d.TargetFaces)
	}
	in.Target = p.Geometry(in.Target.FaceDiameterCM)
	return in, nil
}

// formFloat reads a float form value. A nil def makes the field required.
func formFloat(r *http.Request, key string, def *float64) (float64, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		if def == nil {
			return 0, fmt.Errorf("%w: missing %s", ErrBadRequest, key)
		}
		return *def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a number", ErrBadRequest, key, raw)
	}
	return v, nil
}

func describe(p *photo.Photo) inspectResponse {
	return inspectResponse{Width: p.Width(), Height: p.Height(), Format: p.Format}
}
