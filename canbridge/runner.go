package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.einride.tech/can"
	"golang.org/x/sync/errgroup"

	"cansig/messaging"
	"cansig/publish"
	"cansig/transport"
)

type txJob struct {
	msg   *messaging.Message
	entry TxEntry
}

// Stats counts frames handled by a Runner.
type Stats struct {
	Received  uint64
	Decoded   uint64
	Unknown   uint64
	Failed    uint64
	Published uint64
	Sent      uint64
}

type Runner struct {
	cfg   Config
	log   logrus.FieldLogger
	cat   *messaging.Catalog
	queue *transport.Queue
	pub   publish.Publisher
	tx    []txJob

	received, decoded, unknown, failed, published, sent atomic.Uint64
}

// NewRunner wires the catalog to dev. pub may be nil. Every TX entry is
// packed once here so configuration mistakes surface before the bus is
// touched.
func NewRunner(cfg Config, log logrus.FieldLogger, cat *messaging.Catalog, dev transport.Device, pub publish.Publisher) (*Runner, error) {
	r := &Runner{
		cfg:   cfg,
		log:   log,
		cat:   cat,
		queue: transport.NewQueue(dev, cfg.QueueSize, log),
		pub:   pub,
	}

	for _, entry := range cfg.Tx {
		msg, ok := cat.LookupMessage(entry.Message)
		if !ok {
			return nil, fmt.Errorf("tx: %w: %s (available: %v)", messaging.ErrMessageNotFound, entry.Message, cat.Names())
		}
		if entry.CycleMS <= 0 {
			return nil, fmt.Errorf("tx %s: invalid cycle_ms %d", entry.Message, entry.CycleMS)
		}
		if _, err := msg.Pack(entry.Values); err != nil {
			return nil, fmt.Errorf("tx %s: %w", entry.Message, err)
		}
		r.tx = append(r.tx, txJob{msg: msg, entry: entry})
	}
	return r, nil
}

// Run services the bus until ctx is cancelled or the device fails.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.queue.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := r.queue.Stop(); err != nil {
			r.log.WithError(err).Warn("queue stop")
		}
	}()

	r.log.WithFields(logrus.Fields{
		"iface":    r.cfg.Interface,
		"loopback": r.cfg.Loopback,
		"messages": r.cat.Len(),
		"tx":       len(r.tx),
	}).Info("bridge started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.receiveLoop(gctx) })
	for _, job := range r.tx {
		g.Go(func() error { return r.transmitLoop(gctx, job) })
	}
	err := g.Wait()

	s := r.Stats()
	r.log.WithFields(logrus.Fields{
		"received":  s.Received,
		"decoded":   s.Decoded,
		"unknown":   s.Unknown,
		"failed":    s.Failed,
		"published": s.Published,
		"sent":      s.Sent,
	}).Info("bridge stopped")
	return err
}

func (r *Runner) Stats() Stats {
	return Stats{
		Received:  r.received.Load(),
		Decoded:   r.decoded.Load(),
		Unknown:   r.unknown.Load(),
		Failed:    r.failed.Load(),
		Published: r.published.Load(),
		Sent:      r.sent.Load(),
	}
}

func (r *Runner) receiveLoop(ctx context.Context) error {
	r.log.Debug("RX loop started")
	defer r.log.Debug("RX loop stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.queue.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := r.queue.Err(); err != nil {
				return err
			}
			return transport.ErrClosed
		default:
		}

		frame, ok := r.queue.Recv(r.cfg.RecvTimeout())
		if !ok {
			continue
		}
		r.received.Add(1)
		r.handle(ctx, frame)
	}
}

func (r *Runner) handle(ctx context.Context, frame can.Frame) {
	id := fmt.Sprintf("0x%X", frame.ID)
	d, ok, err := r.cat.Unpack(frame)
	if err != nil {
		r.failed.Add(1)
		r.log.WithError(err).WithField("id", id).Warn("decode failed")
		return
	}
	if !ok {
		// traffic from other nodes is expected on a shared bus
		r.unknown.Add(1)
		r.log.WithField("id", id).Trace("no message for frame")
		return
	}
	r.decoded.Add(1)

	fields := logrus.Fields{"message": d.Name, "id": id}
	for _, s := range d.Signals {
		fields["sig."+s.Name] = s.Value
	}
	r.log.WithFields(fields).Debug("RX")

	if r.pub == nil {
		return
	}
	if err := r.pub.Publish(ctx, d); err != nil {
		r.log.WithError(err).WithField("message", d.Name).Warn("publish failed")
		return
	}
	r.published.Add(1)
}

func (r *Runner) transmitLoop(ctx context.Context, job txJob) error {
	ticker := time.NewTicker(time.Duration(job.entry.CycleMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			frame, err := job.msg.Pack(job.entry.Values)
			if err != nil {
				r.log.WithError(err).WithField("message", job.msg.Name()).Error("encode failed")
				return err
			}
			if err := r.queue.Send(ctx, frame); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("send %s: %w", job.msg.Name(), err)
			}
			r.sent.Add(1)
			r.log.WithField("message", job.msg.Name()).Tracef("TX id=0x%X len=%d data=% X",
				frame.ID, frame.Length, frame.Data[:frame.Length])
		}
	}
}
