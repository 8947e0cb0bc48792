package loader

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
	"go.einride.tech/can"

	"cansig/messaging"
)

const catalogCSV = `direction,frame_id,frame_name,cycle_ms,signal_name,start_bit,bit_length,endianness,factor,offset,unit
tx,0x210,ACTUATOR_CMD,20,steer_cmd_deg,0,16,little,0.1,100,deg
tx,0x210,ACTUATOR_CMD,20,brake_cmd_pct,16,8,little,0.5,0,%
tx,0x210,ACTUATOR_CMD,20,mode,24,4,,,,
rx,768,VEHICLE_STATE,10,speed_mps,0,16,big,0.01,0,m/s
`

func checkTableCatalog(t *testing.T, cat *messaging.Catalog) {
	t.Helper()
	if diff := cmp.Diff([]string{"ACTUATOR_CMD", "VEHICLE_STATE"}, cat.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	cmd, _ := cat.LookupMessage("ACTUATOR_CMD")
	if cmd.ID() != 0x210 || len(cmd.Signals()) != 3 {
		t.Fatalf("ACTUATOR_CMD: id=0x%X signals=%d", cmd.ID(), len(cmd.Signals()))
	}
	mode, ok := cmd.LookupSignal("mode")
	if !ok || mode.Factor() != 1 || mode.Offset() != 0 || mode.BitLength() != 4 {
		t.Fatalf("mode defaults not applied: %v", mode)
	}

	state, _ := cat.LookupMessage("VEHICLE_STATE")
	if state.ID() != 768 || state.ByteOrder() != messaging.BigEndian {
		t.Fatalf("VEHICLE_STATE: id=%d order=%s", state.ID(), state.ByteOrder())
	}

	// steer = raw*0.1 - 100 -> raw 1000 for 0 deg
	f, err := cmd.Pack(map[string]float64{"steer_cmd_deg": 0, "brake_cmd_pct": 50, "mode": 2})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	want := can.Frame{ID: 0x210, Length: 4, Data: can.Data{0xE8, 0x03, 100, 2}}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Fatalf("frame mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSV(t *testing.T) {
	cat, err := ParseCSV(strings.NewReader(catalogCSV))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	checkTableCatalog(t, cat)
}

func TestParseCSV_Errors(t *testing.T) {
	header := "frame_id,frame_name,signal_name,start_bit,bit_length\n"
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"missing column", "frame_id,frame_name,signal_name,start_bit\n1,A,s,0\n", nil},
		{"bad id", header + "0xG1,A,s,0,8\n", nil},
		{"bad start bit", header + "1,A,s,zero,8\n", nil},
		{"inconsistent id", header + "1,A,s,0,8\n2,A,t,8,8\n", nil},
		{"overlap", header + "1,A,s,0,8\n1,A,t,7,8\n", messaging.ErrInvalidLayout},
		{"too long", header + "1,A,s,0,64\n", messaging.ErrInvalidSignal},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseCSV_SkipsBlankRows(t *testing.T) {
	doc := "frame_id,frame_name,signal_name,start_bit,bit_length\n1,A,s,0,8\n,,,,\n"
	cat, err := ParseCSV(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if cat.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", cat.Len())
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(DefaultSheet); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(catalogCSV), "\n")
	for i, line := range lines {
		var row []interface{}
		for _, c := range strings.Split(line, ",") {
			row = append(row, c)
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(DefaultSheet, cellRef, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	cat, err := ParseXLSX(buf, DefaultSheet)
	if err != nil {
		t.Fatalf("ParseXLSX: %v", err)
	}
	checkTableCatalog(t, cat)
}

func TestParseXLSX_MissingSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	if _, err := ParseXLSX(buf, DefaultSheet); err == nil {
		t.Fatal("expected error for missing sheet")
	}
}
