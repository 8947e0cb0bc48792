package messaging

import "errors"

var (
	ErrInvalidSignal    = errors.New("messaging: invalid signal")
	ErrInvalidLayout    = errors.New("messaging: invalid signal layout")
	ErrInvalidFrame     = errors.New("messaging: invalid frame")
	ErrFrameIDMismatch  = errors.New("messaging: frame identifier mismatch")
	ErrSignalRange      = errors.New("messaging: signal value out of range")
	ErrSignalNotFound   = errors.New("messaging: signal not found")
	ErrDuplicateMessage = errors.New("messaging: duplicate message")
	ErrMessageNotFound  = errors.New("messaging: message not found")
)
