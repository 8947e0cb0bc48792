// Package transport moves CAN frames between a bus device and the codec.
package transport

import (
	"context"
	"errors"

	"go.einride.tech/can"
)

// ErrClosed is returned by devices and queues that have been closed.
var ErrClosed = errors.New("transport: closed")

// Device is a source and sink of raw CAN frames.
type Device interface {
	// ReadFrame blocks until a frame arrives, ctx is done or the device
	// is closed.
	ReadFrame(ctx context.Context) (can.Frame, error)
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}
