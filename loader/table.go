package loader

import (
	"fmt"
	"strconv"
	"strings"

	"cansig/messaging"
	"cansig/utils"
)

// Column names of the tabular (CSV / XLSX) catalog layout. Columns are
// located by header name, so their order is free and unknown columns such
// as direction or cycle_ms are ignored.
const (
	colFrameID    = "frame_id"
	colFrameName  = "frame_name"
	colSignalName = "signal_name"
	colStartBit   = "start_bit"
	colBitLength  = "bit_length"
	colFactor     = "factor"
	colOffset     = "offset"
	colUnit       = "unit"
	colEndianness = "endianness"
)

var requiredColumns = []string{colFrameID, colFrameName, colSignalName, colStartBit, colBitLength}

type table struct {
	idx map[string]int
}

func newTable(header []string) (*table, error) {
	t := &table{idx: make(map[string]int, len(header))}
	for i, h := range header {
		t.idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range requiredColumns {
		if _, ok := t.idx[k]; !ok {
			return nil, fmt.Errorf("missing required column %q", k)
		}
	}
	return t, nil
}

// cell returns the trimmed value of column col, or "" when the row is
// shorter than the header or the column is absent.
func (t *table) cell(row []string, col string) string {
	i, ok := t.idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// add parses one table row into b. line is used for error messages.
func (t *table) add(b *builder, row []string, line int) error {
	if t.blank(row) {
		return nil
	}
	wrap := func(err error) error { return fmt.Errorf("row %d: %w", line, err) }

	id, err := utils.ParseID(t.cell(row, colFrameID))
	if err != nil {
		return wrap(fmt.Errorf("invalid frame_id %q: %w", t.cell(row, colFrameID), err))
	}
	order, err := messaging.ParseByteOrder(t.cell(row, colEndianness))
	if err != nil {
		return wrap(err)
	}

	def := signalDef{
		Name: t.cell(row, colSignalName),
		Unit: t.cell(row, colUnit),
	}
	if def.StartBit, err = t.intCell(row, colStartBit); err != nil {
		return wrap(err)
	}
	if def.BitLength, err = t.intCell(row, colBitLength); err != nil {
		return wrap(err)
	}
	if def.Factor, err = t.floatCell(row, colFactor, 1); err != nil {
		return wrap(err)
	}
	if def.Offset, err = t.floatCell(row, colOffset, 0); err != nil {
		return wrap(err)
	}

	m, err := b.message(t.cell(row, colFrameName), id, order)
	if err != nil {
		return wrap(err)
	}
	if err := b.signal(m, def); err != nil {
		return wrap(err)
	}
	return nil
}

func (t *table) intCell(row []string, col string) (int, error) {
	s := t.cell(row, col)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", col, s)
	}
	return v, nil
}

func (t *table) floatCell(row []string, col string, def float64) (float64, error) {
	s := t.cell(row, col)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", col, s)
	}
	return v, nil
}
