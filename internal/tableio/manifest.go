package tableio

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tazle/gobufr/internal/framing"
)

// TableEntry maps one originating-centre/table-version tuple to an
// on-disk B-table file path.
type TableEntry struct {
	Centre        int    `yaml:"centre"`
	MasterVersion int    `yaml:"master_version"`
	LocalVersion  int    `yaml:"local_version"`
	Path          string `yaml:"path"`
}

// Manifest is a YAML document listing known B-table files, for callers
// that want to resolve a table automatically from a decoded §1 header
// instead of hand-wiring a single table.
type Manifest struct {
	Tables []TableEntry `yaml:"tables"`
}

// LoadManifest parses a YAML table manifest.
func LoadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("tableio: decoding manifest: %w", err)
	}
	return &m, nil
}

// Resolve returns the TableEntry whose centre/master-version/local-version
// tuple matches sec1, the table-file path a caller should load for this
// message.
func (m *Manifest) Resolve(sec1 framing.Section1) (TableEntry, bool) {
	for _, e := range m.Tables {
		if e.Centre == sec1.OriginatingCentre &&
			e.MasterVersion == sec1.MasterTableVersion &&
			e.LocalVersion == sec1.LocalTableVersion {
			return e, true
		}
	}
	return TableEntry{}, false
}
