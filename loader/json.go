package loader

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"cansig/messaging"
	"cansig/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type catalogFile struct {
	Messages []messageRecord `json:"messages"`
}

type messageRecord struct {
	Name      string                  `json:"name"`
	ID        idLiteral               `json:"id"`
	ByteOrder string                  `json:"byte_order,omitempty"`
	Signals   map[string]signalRecord `json:"signals"`
}

type signalRecord struct {
	Name      string   `json:"name"`
	BitLength int      `json:"bit_length"`
	Offset    *float64 `json:"offset,omitempty"`
	Factor    *float64 `json:"factor,omitempty"`
	Unit      string   `json:"unit,omitempty"`
}

// idLiteral accepts an identifier either as a JSON number or as a string
// holding a decimal or 0x-prefixed literal.
type idLiteral uint32

func (id *idLiteral) UnmarshalJSON(b []byte) error {
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	v, err := utils.ParseID(s)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = idLiteral(v)
	return nil
}

// ParseJSON reads the JSON catalog description:
//
//	{"messages": [{"name": "ENGINE", "id": "0x100",
//	  "signals": {"0": {"name": "rpm", "bit_length": 16, "factor": 0.25}}}]}
func ParseJSON(r io.Reader) (*messaging.Catalog, error) {
	var file catalogFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	b := newBuilder()
	for _, rec := range file.Messages {
		order, err := messaging.ParseByteOrder(rec.ByteOrder)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", rec.Name, err)
		}
		m := messaging.NewMessage(rec.Name, uint32(rec.ID), messaging.WithByteOrder(order))
		if err := b.cat.AddMessage(m); err != nil {
			return nil, err
		}

		starts := make([]string, 0, len(rec.Signals))
		for k := range rec.Signals {
			starts = append(starts, k)
		}
		sort.Strings(starts)

		for _, k := range starts {
			start, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("message %s: invalid start bit %q", rec.Name, k)
			}
			sig := rec.Signals[k]
			def := signalDef{
				Name:      sig.Name,
				StartBit:  start,
				BitLength: sig.BitLength,
				Factor:    1,
				Unit:      sig.Unit,
			}
			if sig.Factor != nil {
				def.Factor = *sig.Factor
			}
			if sig.Offset != nil {
				def.Offset = *sig.Offset
			}
			if err := b.signal(m, def); err != nil {
				return nil, err
			}
		}
	}
	return b.cat, nil
}
