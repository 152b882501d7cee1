package config

import (
	"errors"
)

// Load wraps file and env failures in ErrLoadConfig and rule violations in
// ErrInvalidConfig.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
