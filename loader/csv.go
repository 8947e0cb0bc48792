package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"cansig/messaging"
)

// ParseCSV reads a catalog table with one signal per row. Rows sharing a
// frame_name belong to the same message.
func ParseCSV(r io.Reader) (*messaging.Catalog, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	t, err := newTable(header)
	if err != nil {
		return nil, err
	}

	b := newBuilder()
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := t.add(b, rec, line); err != nil {
			return nil, err
		}
	}
	return b.cat, nil
}
