package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	service "github.com/okian/sightmark/internal/app"
	"github.com/okian/sightmark/internal/domain/model"
	"github.com/okian/sightmark/pkg/logger"
	"github.com/okian/sightmark/pkg/metrics"
)

const (
	maxJSONBody  = 1 << 20
	maxBatchBody = 8 << 20
)

// adjustmentRequest mirrors the OpenAPI schema for POST /adjustments.
// Optional values fall back to the service defaults.
type adjustmentRequest struct {
	Gold          *model.Point `json:"gold"`
	Group         *model.Point `json:"group"`
	Image         *imageSize   `json:"image"`
	TargetFaceCM  *float64     `json:"target_face_cm,omitempty"`
	DistanceM     *float64     `json:"distance_m,omitempty"`
	SightRadiusMM *float64     `json:"sight_radius_mm,omitempty"`
}

type imageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type batchRequest struct {
	Items []adjustmentRequest `json:"items"`
}

type adjustmentResponse struct {
	model.Result
	Windage   string `json:"windage_text"`
	Elevation string `json:"elevation_text"`
}

type batchItem struct {
	Index  int                 `json:"index"`
	Result *adjustmentResponse `json:"result,omitempty"`
	Error  *errorResponse      `json:"error,omitempty"`
}

type batchResponse struct {
	BatchID string      `json:"batch_id"`
	Results []batchItem `json:"results"`
}

func newAdjustmentResponse(res model.Result) *adjustmentResponse {
	return &adjustmentResponse{Result: res, Windage: res.Windage.String(), Elevation: res.Elevation.String()}
}

// toInput fills omitted values from the defaults and checks the face size.
func (req *adjustmentRequest) toInput(deps Dependencies) (model.Input, error) {
	switch {
	case req.Gold == nil:
		return model.Input{}, fmt.Errorf("%w: missing gold", ErrBadRequest)
	case req.Group == nil:
		return model.Input{}, fmt.Errorf("%w: missing group", ErrBadRequest)
	case req.Image == nil:
		return model.Input{}, fmt.Errorf("%w: missing image", ErrBadRequest)
	}

	d := deps.Defaults()
	face := valueOr(req.TargetFaceCM, d.TargetFaceCM)
	if !deps.IsTargetFace(face) {
		return model.Input{}, fmt.Errorf("%w: %v cm, want one of %v", ErrUnknownFace, face, d.TargetFaces)
	}

	return model.Input{
		Gold:  *req.Gold,
		Group: *req.Group,
		Target: model.TargetGeometry{
			WidthPx:        req.Image.Width,
			HeightPx:       req.Image.Height,
			FaceDiameterCM: face,
		},
		Shot: model.ShootingParameters{
			DistanceM:     valueOr(req.DistanceM, d.DistanceM),
			SightRadiusMM: valueOr(req.SightRadiusMM, d.SightRadiusMM),
		},
	}, nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// AdjustmentsHandler handles the JSON calculation endpoints.
type AdjustmentsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewAdjustmentsHandler creates a new adjustments handler.
func NewAdjustmentsHandler(deps Dependencies, l logger.Logger) *AdjustmentsHandler {
	return &AdjustmentsHandler{deps: deps, logger: l}
}

// HandlePostAdjustment handles POST /adjustments requests.
func (h *AdjustmentsHandler) HandlePostAdjustment(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_adjustment"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	var req adjustmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		fail(ctx, h.logger, w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	in, err := req.toInput(h.deps)
	if err != nil {
		fail(ctx, h.logger, w, op, err)
		return
	}

	res, err := h.deps.Calculate(ctx, in)
	if err != nil {
		fail(ctx, h.logger, w, op, err)
		return
	}
	h.logger.Info(ctx, "adjustment",
		logger.String("request_id", RequestIDFrom(ctx)),
		logger.String("windage", res.Windage.String()),
		logger.String("elevation", res.Elevation.String()),
	)
	writeJSON(w, http.StatusOK, newAdjustmentResponse(res))
}

// HandlePostBatch handles POST /adjustments/batch requests. Items that fail
// validation carry their own error; the batch as a whole still succeeds.
func (h *AdjustmentsHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	var req batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody)).Decode(&req); err != nil {
		fail(ctx, h.logger, w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	switch n := len(req.Items); {
	case n == 0:
		fail(ctx, h.logger, w, op, service.ErrEmptyBatch)
		return
	case n > h.deps.MaxBatch():
		metrics.RecordBatchRejected("too_large")
		fail(ctx, h.logger, w, op, fmt.Errorf("%w: %d items, max %d", service.ErrBatchTooLarge, n, h.deps.MaxBatch()))
		return
	}

	batchID := uuid.NewString()
	items := make([]batchItem, len(req.Items))
	inputs := make([]model.Input, 0, len(req.Items))
	positions := make([]int, 0, len(req.Items))
	for i := range req.Items {
		items[i].Index = i
		in, err := req.Items[i].toInput(h.deps)
		if err != nil {
			items[i].Error = itemError(err)
			continue
		}
		inputs = append(inputs, in)
		positions = append(positions, i)
	}

	if len(inputs) > 0 {
		outcomes, err := h.deps.CalculateBatch(ctx, inputs)
		if err != nil {
			fail(ctx, h.logger, w, op, err)
			return
		}
		for _, out := range outcomes {
			item := &items[positions[out.Index]]
			if out.Err != nil {
				item.Error = itemError(out.Err)
				continue
			}
			item.Result = newAdjustmentResponse(out.Result)
		}
	}

	h.logger.Info(ctx, "batch",
		logger.String("request_id", RequestIDFrom(ctx)),
		logger.String("batch_id", batchID),
		logger.Int("items", len(items)),
	)
	writeJSON(w, http.StatusOK, batchResponse{BatchID: batchID, Results: items})
}

func itemError(err error) *errorResponse {
	_, code := classify(err)
	return &errorResponse{Code: code, Message: err.Error()}
}
