// Package loadgen drives a running sightmark server with random batches and
// checks every returned adjustment against a local calculator.
package loadgen

import (
	"time"

	service "github.com/okian/sightmark/internal/app"
	"github.com/okian/sightmark/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Batches   int           // Number of batches to submit
	BatchSize int           // Items per batch
	Workers   int           // Number of concurrent submitters
	Timeout   time.Duration // HTTP request timeout
	Seed      uint64        // Seed for the input generator
	Verbose   bool          // Log every failed item
}

// Item is one element of a batch request.
type Item struct {
	Gold          model.Point `json:"gold"`
	Group         model.Point `json:"group"`
	Image         Size        `json:"image"`
	TargetFaceCM  float64     `json:"target_face_cm"`
	DistanceM     float64     `json:"distance_m"`
	SightRadiusMM float64     `json:"sight_radius_mm"`
}

// Size is the image size of an item in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Input converts the item to the calculator input it describes.
func (it Item) Input() model.Input {
	return model.Input{
		Gold:  it.Gold,
		Group: it.Group,
		Target: model.TargetGeometry{
			WidthPx:        it.Image.Width,
			HeightPx:       it.Image.Height,
			FaceDiameterCM: it.TargetFaceCM,
		},
		Shot: model.ShootingParameters{DistanceM: it.DistanceM, SightRadiusMM: it.SightRadiusMM},
	}
}

type batchRequest struct {
	Items []Item `json:"items"`
}

type batchResponse struct {
	BatchID string `json:"batch_id"`
	Results []struct {
		Index  int           `json:"index"`
		Result *model.Result `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"results"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Defaults is what the server reports on GET /target-faces.
type Defaults = service.Defaults

// Stats holds run statistics.
type Stats struct {
	BatchesSubmitted int
	BatchesRejected  int // 429 backpressure
	BatchesFailed    int
	ItemsVerified    int
	ItemsMismatched  int
	ItemsFailed      int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
