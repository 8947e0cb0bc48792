package transport

import (
	"context"
	"sync"

	"go.einride.tech/can"
)

// Loopback is an in-memory Device. Frames passed to Inject are returned by
// ReadFrame; written frames are recorded and, with echo enabled, read back.
type Loopback struct {
	rx   chan can.Frame
	echo bool

	mu      sync.Mutex
	written []can.Frame

	done      chan struct{}
	closeOnce sync.Once
}

func NewLoopback(size int, echo bool) *Loopback {
	return &Loopback{
		rx:   make(chan can.Frame, size),
		echo: echo,
		done: make(chan struct{}),
	}
}

// Inject queues a frame for ReadFrame, blocking while the buffer is full.
func (l *Loopback) Inject(frame can.Frame) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.rx <- frame:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

func (l *Loopback) ReadFrame(ctx context.Context) (can.Frame, error) {
	select {
	case f := <-l.rx:
		return f, nil
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	case <-l.done:
		return can.Frame{}, ErrClosed
	}
}

func (l *Loopback) WriteFrame(ctx context.Context, frame can.Frame) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	l.mu.Lock()
	l.written = append(l.written, frame)
	l.mu.Unlock()

	if !l.echo {
		return nil
	}
	select {
	case l.rx <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

// Written returns a copy of the frames written so far.
func (l *Loopback) Written() []can.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]can.Frame, len(l.written))
	copy(out, l.written)
	return out
}

func (l *Loopback) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return nil
}
