package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// SocketCAN is a Device backed by a Linux SocketCAN interface such as
// can0 or vcan0.
type SocketCAN struct {
	conn net.Conn
	recv *socketcan.Receiver
	tx   *socketcan.Transmitter
}

func DialSocketCAN(ctx context.Context, iface string) (*SocketCAN, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &SocketCAN{
		conn: conn,
		recv: socketcan.NewReceiver(conn),
		tx:   socketcan.NewTransmitter(conn),
	}, nil
}

// ReadFrame honours the deadline of ctx; cancellation without a deadline
// only takes effect once Close is called.
func (s *SocketCAN) ReadFrame(ctx context.Context) (can.Frame, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.conn.SetReadDeadline(deadline); err != nil {
			return can.Frame{}, err
		}
		defer func() { _ = s.conn.SetReadDeadline(time.Time{}) }()
	}
	if s.recv.Receive() {
		return s.recv.Frame(), nil
	}
	if err := s.recv.Err(); err != nil {
		return can.Frame{}, err
	}
	return can.Frame{}, io.EOF
}

func (s *SocketCAN) WriteFrame(ctx context.Context, frame can.Frame) error {
	return s.tx.TransmitFrame(ctx, frame)
}

func (s *SocketCAN) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
