package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrUnknownFace = errors.New("unsupported target face")
	ErrMissingFile = errors.New("missing photo")
)
