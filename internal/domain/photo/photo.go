// Package photo decodes target photos and renders the crosshair overlay used
// to mark the gold and the arrow group.
package photo

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/okian/sightmark/internal/domain/model"
	"github.com/okian/sightmark/pkg/metrics"
)

// DefaultMaxBytes bounds the size of an uploaded photo.
const DefaultMaxBytes int64 = 20 << 20

// DefaultMaxPixels bounds width*height declared by a photo header. A 64 MP
// photo already decodes into 256 MiB of NRGBA.
const DefaultMaxPixels int64 = 64_000_000

// Photo is a decoded, upright target photo.
type Photo struct {
	Image  image.Image
	Format string // as reported by the registered decoder, e.g. "jpeg"
}

// Width returns the width in pixels after orientation normalization.
func (p *Photo) Width() int { return p.Image.Bounds().Dx() }

// Height returns the height in pixels after orientation normalization.
func (p *Photo) Height() int { return p.Image.Bounds().Dy() }

// Geometry returns the target geometry of the photo for a face of faceCM.
func (p *Photo) Geometry(faceCM float64) model.TargetGeometry {
	return model.TargetGeometry{
		WidthPx:        float64(p.Width()),
		HeightPx:       float64(p.Height()),
		FaceDiameterCM: faceCM,
	}
}

type decodeOptions struct {
	maxBytes  int64
	maxPixels int64
}

// DecodeOption applies a configuration option to Decode.
type DecodeOption func(*decodeOptions)

// WithMaxBytes limits how many bytes Decode will read.
func WithMaxBytes(n int64) DecodeOption {
	return func(o *decodeOptions) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// WithMaxPixels limits width*height of the photo. The header is checked
// before any pixel buffer is allocated.
func WithMaxPixels(n int64) DecodeOption {
	return func(o *decodeOptions) {
		if n > 0 {
			o.maxPixels = n
		}
	}
}

// Decode reads a photo and rotates it upright according to its EXIF
// orientation tag, so that phone pictures match what the archer saw.
func Decode(ctx context.Context, r io.Reader, opts ...DecodeOption) (*Photo, error) {
	o := decodeOptions{maxBytes: DefaultMaxBytes, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	defer func() {
		metrics.RecordPhotoDecodeLatency(float64(time.Since(start).Milliseconds()))
	}()

	data, err := io.ReadAll(io.LimitReader(r, o.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrDecode, err)
	}
	if int64(len(data)) > o.maxBytes {
		metrics.RecordPhotoError("too_large")
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, o.maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		metrics.RecordPhotoError("unsupported")
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > o.maxPixels {
		metrics.RecordPhotoError("too_many_pixels")
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, o.maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		metrics.RecordPhotoError("corrupt")
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	metrics.RecordPhotoDecoded(format)
	return &Photo{Image: img, Format: format}, nil
}

// Encode writes img in the named format ("png", "jpeg"/"jpg", "gif", "bmp",
// "tiff"). An empty name means PNG.
func Encode(w io.Writer, img image.Image, format string) error {
	f := imaging.PNG
	if format != "" {
		var err error
		f, err = imaging.FormatFromExtension(strings.TrimPrefix(format, "."))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
	}
	if err := imaging.Encode(w, img, f); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}
