package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"291", 291, false},
		{"0x123", 0x123, false},
		{" 0X18FF50E5 ", 0x18FF50E5, false},
		{"0x", 0, true},
		{"-1", 0, true},
		{"0x1FFFFFFFF", 0, true},
		{"abc", 0, true},
		{"0o17", 0o17, false},
		{"0b101", 5, false},
		{"0x18FF_50E5", 0x18FF50E5, false},
		{"1_000", 1000, false},
		{"0100", 100, false},
		{"0_", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseID(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseID(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"":         logrus.InfoLevel,
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"warn":     logrus.WarnLevel,
		"critical": logrus.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetupLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	closer, err := SetupLogger(LogConfig{File: path, Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	Logger.WithField("id", "0x100").Debug("decoded")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	Logger.SetOutput(os.Stderr)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"decoded"`) || !strings.Contains(string(data), `"id":"0x100"`) {
		t.Fatalf("unexpected log output: %s", data)
	}
}

func TestSetupLogger_BadFormat(t *testing.T) {
	if _, err := SetupLogger(LogConfig{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
