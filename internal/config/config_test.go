package config

import (
	"strings"
	"testing"
)

func TestDecodeDefaults(t *testing.T) {
	c, err := Decode(strings.NewReader(`table_manifest_path: tables.yaml`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", c.LogLevel)
	}
	if c.ScanChunkSize != 64*1024 {
		t.Fatalf("ScanChunkSize = %d, want 65536", c.ScanChunkSize)
	}
}

func TestDecodeInvalidLogLevel(t *testing.T) {
	_, err := Decode(strings.NewReader("log_level: verbose\n"))
	if err == nil {
		t.Fatalf("expected error for invalid log_level")
	}
}

func TestDecodeExplicitValues(t *testing.T) {
	c, err := Decode(strings.NewReader("log_level: debug\nscan_chunk_size: 4096\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.LogLevel != "debug" || c.ScanChunkSize != 4096 {
		t.Fatalf("Config = %+v", c)
	}
}
