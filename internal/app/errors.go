package service

import "errors"

// Sentinel kinds returned by the service.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrBackpressure  = errors.New("batch queue is full")
	ErrBatchTooLarge = errors.New("batch too large")
	ErrEmptyBatch    = errors.New("batch is empty")
)
