package photo

import "errors"

// Sentinel kinds for photo errors.
var (
	ErrDecode   = errors.New("photo decode failed")
	ErrTooLarge = errors.New("photo too large")
	ErrEncode   = errors.New("photo encode failed")
)
