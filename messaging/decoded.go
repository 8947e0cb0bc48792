package messaging

// SignalValue is one signal of a Decoded snapshot.
type SignalValue struct {
	Name      string
	StartBit  int
	BitLength int
	Raw       uint64
	Value     float64
	Unit      string
}

// Decoded is the result of Unpack. Signals are ordered by start bit.
type Decoded struct {
	Name    string
	ID      uint32
	Signals []SignalValue
}

func (d Decoded) Lookup(name string) (SignalValue, bool) {
	for _, s := range d.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return SignalValue{}, false
}

// Values maps signal names to engineering values.
func (d Decoded) Values() map[string]float64 {
	out := make(map[string]float64, len(d.Signals))
	for _, s := range d.Signals {
		out[s.Name] = s.Value
	}
	return out
}
