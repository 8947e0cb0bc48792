package messaging

import (
	"fmt"
	"math"
)

// MaxSignalBits is the widest raw value a single signal may carry.
const MaxSignalBits = 63

// epsilon is the float64 machine epsilon, 2^-52.
const epsilon = 0x1p-52

// Signal is a named bit-field of a message. The raw value is stored
// unscaled; Value and SetValue convert through factor and offset:
//
//	value = raw*factor - offset
//	raw   = trunc((value + offset) / factor)
type Signal struct {
	name      string
	bitLength int
	factor    float64
	offset    float64
	unit      string
	raw       int64

	owner *Message
}

type SignalOption func(*Signal)

func WithFactor(f float64) SignalOption { return func(s *Signal) { s.factor = f } }
func WithOffset(o float64) SignalOption { return func(s *Signal) { s.offset = o } }
func WithUnit(u string) SignalOption    { return func(s *Signal) { s.unit = u } }

// NewSignal creates a signal with factor 1 and offset 0 unless overridden.
func NewSignal(name string, bitLength int, opts ...SignalOption) (*Signal, error) {
	s := &Signal{
		name:      name,
		bitLength: bitLength,
		factor:    1,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidSignal)
	}
	if s.bitLength <= 0 || s.bitLength > MaxSignalBits {
		return nil, fmt.Errorf("%w: signal %s has bit length %d (want 1..%d)",
			ErrInvalidSignal, s.name, s.bitLength, MaxSignalBits)
	}
	if s.factor == 0 || math.IsNaN(s.factor) || math.IsInf(s.factor, 0) {
		return nil, fmt.Errorf("%w: signal %s has factor %v", ErrInvalidSignal, s.name, s.factor)
	}
	return s, nil
}

func (s *Signal) Name() string    { return s.name }
func (s *Signal) BitLength() int  { return s.bitLength }
func (s *Signal) Factor() float64 { return s.factor }
func (s *Signal) Offset() float64 { return s.offset }
func (s *Signal) Unit() string    { return s.unit }
func (s *Signal) RawValue() int64 { return s.raw }

// SetRawValue stores n without conversion.
func (s *Signal) SetRawValue(n int64) {
	s.raw = n
}

// Value returns the raw value in engineering units.
func (s *Signal) Value() float64 {
	return s.scale(s.raw)
}

// SetValue stores the raw value whose engineering value is v, truncated
// toward zero. No range check happens here; Encode rejects values that do
// not fit the signal.
func (s *Signal) SetValue(v float64) {
	s.raw = s.unscale(v)
}

func (s *Signal) scale(raw int64) float64 {
	return float64(raw)*s.factor - s.offset
}

// unscale inverts scale. A quotient within the rounding error of the
// conversion of an integer is snapped to that integer before truncating,
// so that unscale(scale(raw)) == raw for factors such as 0.1 that have no
// exact binary representation.
func (s *Signal) unscale(v float64) int64 {
	q := (v + s.offset) / s.factor
	tol := math.Min(8*epsilon*(math.Abs(v)+math.Abs(s.offset))/math.Abs(s.factor), 0.25)
	if r := math.Round(q); math.Abs(q-r) <= tol {
		q = r
	}
	return int64(math.Trunc(q))
}

func (s *Signal) String() string {
	if s.unit == "" {
		return fmt.Sprintf("Signal: %s\tValue = %g (raw %d)", s.name, s.Value(), s.raw)
	}
	return fmt.Sprintf("Signal: %s\tValue = %g %s (raw %d)", s.name, s.Value(), s.unit, s.raw)
}
