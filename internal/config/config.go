// Package config loads the YAML configuration for the bufr CLI and
// provides the structured logger used by bulk scanning. Table loading
// does not log. The decoder's hot path never logs — diagnostics are confined
// to the outer, infrequent operations, the same separation the teacher
// draws between its silent pixel codecs and its CLI's own diagnostics.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Config is the top-level CLI configuration document.
type Config struct {
	// TableManifestPath points at a YAML table manifest (see
	// internal/tableio.Manifest) used to auto-select a B-table from a
	// decoded §1 header. Optional — a single --table flag still works
	// without one.
	TableManifestPath string `yaml:"table_manifest_path"`

	// LogLevel sets the minimum log severity: "debug", "info", "warn", or
	// "error". Defaults to "info" when omitted.
	LogLevel string `yaml:"log_level"`

	// ScanChunkSize bounds how many bytes Scan buffers at a time while
	// hunting for the next "BUFR" marker. Defaults to 64KiB when omitted
	// or non-positive.
	ScanChunkSize int `yaml:"scan_chunk_size"`
}

// Load reads and validates a YAML configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and validates a YAML configuration document from r.
func Decode(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ScanChunkSize <= 0 {
		c.ScanChunkSize = 64 * 1024
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return &c, nil
}

// NewLogger builds the structured logger for this configuration, writing
// to w.
func (c *Config) NewLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true})
	logger.SetLevel(parseLevel(c.LogLevel))
	return logger
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
