package messaging

import (
	"fmt"
	"sort"
	"strings"

	"go.einride.tech/can"
)

const (
	// MaxDataLength is the payload size of a classical CAN frame.
	MaxDataLength = 8
	frameBits     = 8 * MaxDataLength
	maxStandardID = 0x7FF
)

// Placement is a signal together with the start bit it is attached at.
type Placement struct {
	StartBit int
	Signal   *Signal
}

// Message maps start bits of a frame to the signals found there.
//
// Decode writes into the message's signals, so a Message must not be
// decoded from two goroutines at once. Unpack and Pack leave the signals
// untouched.
type Message struct {
	name    string
	id      uint32
	order   ByteOrder
	signals map[int]*Signal
}

type MessageOption func(*Message)

// WithByteOrder overrides the default little-endian frame layout.
func WithByteOrder(o ByteOrder) MessageOption {
	return func(m *Message) { m.order = o }
}

func NewMessage(name string, id uint32, opts ...MessageOption) *Message {
	m := &Message{
		name:    name,
		id:      id,
		order:   LittleEndian,
		signals: map[int]*Signal{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Message) Name() string         { return m.name }
func (m *Message) ID() uint32           { return m.id }
func (m *Message) ByteOrder() ByteOrder { return m.order }

// AddSignal attaches sig at startBit. A signal already at startBit is
// replaced; any other overlap is rejected.
func (m *Message) AddSignal(sig *Signal, startBit int) error {
	if sig == nil {
		return fmt.Errorf("%w: nil signal", ErrInvalidLayout)
	}
	end := startBit + sig.bitLength
	if startBit < 0 || end > frameBits {
		return fmt.Errorf("%w: message %s signal %s occupies bits [%d,%d), must fit in [0,%d)",
			ErrInvalidLayout, m.name, sig.name, startBit, end, frameBits)
	}
	if sig.owner != nil && sig.owner != m {
		return fmt.Errorf("%w: signal %s already belongs to message %s",
			ErrInvalidLayout, sig.name, sig.owner.name)
	}

	for start, other := range m.signals {
		if start == startBit {
			continue
		}
		if other == sig {
			return fmt.Errorf("%w: signal %s already attached at bit %d", ErrInvalidLayout, sig.name, start)
		}
		if other.name == sig.name {
			return fmt.Errorf("%w: message %s already has a signal named %s at bit %d",
				ErrInvalidLayout, m.name, sig.name, start)
		}
		if startBit < start+other.bitLength && start < end {
			return fmt.Errorf("%w: message %s signal %s [%d,%d) overlaps %s [%d,%d)",
				ErrInvalidLayout, m.name, sig.name, startBit, end, other.name, start, start+other.bitLength)
		}
	}

	if prev, ok := m.signals[startBit]; ok && prev != sig {
		prev.owner = nil
	}
	sig.owner = m
	m.signals[startBit] = sig
	return nil
}

func (m *Message) RemoveSignal(sig *Signal) error {
	for start, s := range m.signals {
		if s == sig {
			delete(m.signals, start)
			s.owner = nil
			return nil
		}
	}
	name := "<nil>"
	if sig != nil {
		name = sig.name
	}
	return fmt.Errorf("%w: %s in message %s", ErrSignalNotFound, name, m.name)
}

func (m *Message) LookupSignal(name string) (*Signal, bool) {
	for _, p := range m.Signals() {
		if p.Signal.name == name {
			return p.Signal, true
		}
	}
	return nil, false
}

// Signals returns the placements ordered by start bit.
func (m *Message) Signals() []Placement {
	out := make([]Placement, 0, len(m.signals))
	for start, sig := range m.signals {
		out = append(out, Placement{StartBit: start, Signal: sig})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartBit < out[j].StartBit })
	return out
}

// Decode extracts every signal's raw value from frame and stores it in
// the signal. It returns m so calls can be chained.
func (m *Message) Decode(frame can.Frame) (*Message, error) {
	payload, err := m.payload(frame)
	if err != nil {
		return nil, err
	}
	for start, sig := range m.signals {
		sig.raw = int64(getBits(payload, start, sig.bitLength))
	}
	return m, nil
}

// Unpack is Decode without side effects: the values are returned in a
// snapshot and the message's signals keep their raw values.
func (m *Message) Unpack(frame can.Frame) (Decoded, error) {
	payload, err := m.payload(frame)
	if err != nil {
		return Decoded{}, err
	}
	d := Decoded{Name: m.name, ID: m.id}
	for _, p := range m.Signals() {
		raw := getBits(payload, p.StartBit, p.Signal.bitLength)
		d.Signals = append(d.Signals, SignalValue{
			Name:      p.Signal.name,
			StartBit:  p.StartBit,
			BitLength: p.Signal.bitLength,
			Raw:       raw,
			Value:     p.Signal.scale(int64(raw)),
			Unit:      p.Signal.unit,
		})
	}
	return d, nil
}

func (m *Message) payload(frame can.Frame) (uint64, error) {
	if frame.ID != m.id {
		return 0, fmt.Errorf("%w: frame 0x%X, message %s is 0x%X", ErrFrameIDMismatch, frame.ID, m.name, m.id)
	}
	if frame.Length > MaxDataLength {
		return 0, fmt.Errorf("%w: frame 0x%X has length %d", ErrInvalidFrame, frame.ID, frame.Length)
	}
	return m.order.assemble(frame.Data[:frame.Length], m.width()), nil
}

// width is the number of bytes spanned by the signal layout.
func (m *Message) width() int {
	highest := 0
	for start, sig := range m.signals {
		if end := start + sig.bitLength; end > highest {
			highest = end
		}
	}
	return (highest + 7) / 8
}

// Encode builds a frame from the signals' current raw values. The frame is
// as long as needed to hold the highest signal bit.
func (m *Message) Encode() (can.Frame, error) {
	return m.encode(func(s *Signal) int64 { return s.raw })
}

// Pack encodes engineering values given by signal name. Signals missing
// from values are encoded from their current raw value. The message's
// signals are not modified.
func (m *Message) Pack(values map[string]float64) (can.Frame, error) {
	for name := range values {
		if _, ok := m.LookupSignal(name); !ok {
			return can.Frame{}, fmt.Errorf("%w: %s in message %s", ErrSignalNotFound, name, m.name)
		}
	}
	return m.encode(func(s *Signal) int64 {
		if v, ok := values[s.name]; ok {
			return s.unscale(v)
		}
		return s.raw
	})
}

func (m *Message) encode(rawOf func(*Signal) int64) (can.Frame, error) {
	var payload uint64
	for _, p := range m.Signals() {
		raw := rawOf(p.Signal)
		if !fits(raw, p.Signal.bitLength) {
			return can.Frame{}, fmt.Errorf("%w: message %s signal %s raw value %d does not fit in %d bits",
				ErrSignalRange, m.name, p.Signal.name, raw, p.Signal.bitLength)
		}
		payload = setBits(payload, p.StartBit, p.Signal.bitLength, uint64(raw))
	}

	frame := can.Frame{
		ID:         m.id,
		Length:     uint8(m.width()),
		IsExtended: m.id > maxStandardID,
	}
	m.order.disassemble(payload, int(frame.Length), frame.Data[:])
	return frame, nil
}

func (m *Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message: %s, ID: 0x%X\n", m.name, m.id)
	for _, p := range m.Signals() {
		b.WriteString("\t")
		b.WriteString(p.Signal.String())
		b.WriteString("\n")
	}
	return b.String()
}
