// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config holding every default.
// - Load(ctx) layers a YAML file and SIGHT_* env vars on top of the defaults.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/okian/sightmark/internal/domain/adjust"
	"github.com/okian/sightmark/internal/domain/model"
)

// Config contains process configuration shared by the server and the CLI.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory batch job queue.
	QueueSize int `koanf:"queue_size"`

	// MaxBatch caps the number of items in POST /adjustments/batch.
	MaxBatch int `koanf:"max_batch"`

	// MaxUploadBytes caps the size of an uploaded photo.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// MaxPixels caps width*height declared by an uploaded photo.
	MaxPixels int64 `koanf:"max_pixels"`

	// DistanceM, SightRadiusMM and TargetFaceCM fill omitted request values.
	DistanceM     float64 `koanf:"distance_m"`
	SightRadiusMM float64 `koanf:"sight_radius_mm"`
	TargetFaceCM  float64 `koanf:"target_face_cm"`

	// TargetFaces lists the accepted face diameters in cm.
	TargetFaces []float64 `koanf:"target_faces"`

	// MMPerClick and ClicksPerTurn describe the sight mechanism.
	MMPerClick    float64 `koanf:"mm_per_click"`
	ClicksPerTurn int     `koanf:"clicks_per_turn"`
}

// New creates a Config filled with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		WorkerCount:    runtime.NumCPU(),
		QueueSize:      1024,
		MaxBatch:       256,
		MaxUploadBytes: 20 << 20,
		MaxPixels:      64_000_000,
		DistanceM:      25,
		SightRadiusMM:  880,
		TargetFaceCM:   40,
		TargetFaces:    []float64{40, 60, 80, 122},
		MMPerClick:     adjust.DefaultMMPerClick,
		ClicksPerTurn:  adjust.DefaultClicksPerTurn,
	}
}

// Mechanism returns the configured sight mechanism.
func (c *Config) Mechanism() model.Mechanism {
	return model.Mechanism{MMPerClick: c.MMPerClick, ClicksPerTurn: c.ClicksPerTurn}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}

	ints := []struct {
		key string
		v   int64
	}{
		{"worker_count", int64(c.WorkerCount)},
		{"queue_size", int64(c.QueueSize)},
		{"max_batch", int64(c.MaxBatch)},
		{"max_upload_bytes", c.MaxUploadBytes},
		{"max_pixels", c.MaxPixels},
	}
	for _, i := range ints {
		if i.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, i.key, i.v)
		}
	}

	floats := []struct {
		key string
		v   float64
	}{
		{"distance_m", c.DistanceM},
		{"sight_radius_mm", c.SightRadiusMM},
		{"target_face_cm", c.TargetFaceCM},
	}
	for _, f := range floats {
		if !(f.v > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, f.key, f.v)
		}
	}

	if len(c.TargetFaces) == 0 {
		return fmt.Errorf("%w: target_faces must not be empty", ErrInvalidConfig)
	}
	for _, f := range c.TargetFaces {
		if !(f > 0) {
			return fmt.Errorf("%w: target face %v must be positive", ErrInvalidConfig, f)
		}
	}
	if !slices.Contains(c.TargetFaces, c.TargetFaceCM) {
		return fmt.Errorf("%w: target_face_cm %v is not in target_faces %v", ErrInvalidConfig, c.TargetFaceCM, c.TargetFaces)
	}

	if err := adjust.ValidateMechanism(c.Mechanism()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
