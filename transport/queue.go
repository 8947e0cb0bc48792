package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.einride.tech/can"
	"golang.org/x/sync/errgroup"
)

// DefaultRecvAll is the number of frames RecvAll drains when no limit is
// given.
const DefaultRecvAll = 100

// Queue decouples a Device from its users with bounded receive and send
// buffers serviced by two goroutines.
type Queue struct {
	dev Device
	log logrus.FieldLogger
	rx  chan can.Frame
	tx  chan can.Frame

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	stopped bool

	done     chan struct{}
	doneOnce sync.Once
	err      error
}

// NewQueue creates a queue whose buffers hold size frames each. A size of
// 0 makes Send and the receive task hand frames over synchronously.
func NewQueue(dev Device, size int, log logrus.FieldLogger) *Queue {
	if size < 0 {
		size = 0
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Queue{
		dev:  dev,
		log:  log,
		rx:   make(chan can.Frame, size),
		tx:   make(chan can.Frame, size),
		done: make(chan struct{}),
	}
}

// Start launches the receive and send tasks. They run until Stop is called,
// ctx is cancelled or reading from the device fails.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrClosed
	}
	if q.started {
		return errors.New("transport: queue already started")
	}
	q.started = true

	ctx, q.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return q.recvTask(gctx) })
	g.Go(func() error { return q.sendTask(gctx) })

	go func() {
		err := g.Wait()
		if err != nil {
			q.log.WithError(err).Error("queue stopped")
		}
		q.err = err
		q.finish()
	}()
	return nil
}

func (q *Queue) finish() {
	q.doneOnce.Do(func() { close(q.done) })
}

// Stop cancels the tasks, closes the device and waits for the tasks to
// exit. It returns the error that ended the tasks, if any.
func (q *Queue) Stop() error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	started, cancel := q.started, q.cancel
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	closeErr := q.dev.Close()
	if !started {
		q.finish()
		return closeErr
	}
	<-q.done
	if q.err != nil {
		return q.err
	}
	return closeErr
}

// Done is closed once the queue's tasks have exited.
func (q *Queue) Done() <-chan struct{} { return q.done }

// Err returns the error that stopped the tasks. It is only meaningful after
// Done is closed.
func (q *Queue) Err() error {
	select {
	case <-q.done:
		return q.err
	default:
		return nil
	}
}

// Len returns the number of received frames waiting to be read.
func (q *Queue) Len() int { return len(q.rx) }

// Send enqueues frame for transmission, blocking while the send buffer is
// full.
func (q *Queue) Send(ctx context.Context, frame can.Frame) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.tx <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrClosed
	}
}

// Recv returns the next received frame. When ids are given, frames with
// other identifiers are discarded. With timeout <= 0 Recv waits until a
// frame arrives or the queue stops. ok is false on timeout or stop.
func (q *Queue) Recv(timeout time.Duration, ids ...uint32) (frame can.Frame, ok bool) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case f := <-q.rx:
			if matches(f, ids) {
				return f, true
			}
		case <-expired:
			return can.Frame{}, false
		case <-q.done:
			// drain what the receive task delivered before stopping
			select {
			case f := <-q.rx:
				if matches(f, ids) {
					return f, true
				}
			default:
				return can.Frame{}, false
			}
		}
	}
}

// RecvAll returns up to maxItems frames that are already buffered without
// waiting for more. maxItems <= 0 means DefaultRecvAll.
func (q *Queue) RecvAll(maxItems int) []can.Frame {
	if maxItems <= 0 {
		maxItems = DefaultRecvAll
	}
	var out []can.Frame
	for len(out) < maxItems {
		select {
		case f := <-q.rx:
			out = append(out, f)
		default:
			return out
		}
	}
	return out
}

func matches(f can.Frame, ids []uint32) bool {
	if len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if f.ID == id {
			return true
		}
	}
	return false
}

func (q *Queue) recvTask(ctx context.Context) error {
	q.log.Debug("receive task started")
	defer q.log.Debug("receive task stopped")

	for {
		f, err := q.dev.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case q.rx <- f:
		case <-ctx.Done():
			return nil
		}
	}
}

func (q *Queue) sendTask(ctx context.Context) error {
	q.log.Debug("send task started")
	defer q.log.Debug("send task stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-q.tx:
			if err := q.dev.WriteFrame(ctx, f); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				q.log.WithError(err).WithField("id", f.ID).Warn("transmit failed")
			}
		}
	}
}
