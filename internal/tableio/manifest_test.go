package tableio

import (
	"strings"
	"testing"

	"github.com/tazle/gobufr/internal/framing"
)

func TestLoadManifestAndResolve(t *testing.T) {
	doc := `
tables:
  - centre: 98
    master_version: 13
    local_version: 1
    path: ./tables/B0000000000098013001.TXT
  - centre: 7
    master_version: 13
    local_version: 0
    path: ./tables/B0000000000007013000.TXT
`
	m, err := LoadManifest(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	sec1 := framing.Section1{OriginatingCentre: 98, MasterTableVersion: 13, LocalTableVersion: 1}
	entry, ok := m.Resolve(sec1)
	if !ok {
		t.Fatalf("Resolve: not found")
	}
	if entry.Path != "./tables/B0000000000098013001.TXT" {
		t.Fatalf("Path = %q", entry.Path)
	}

	_, ok = m.Resolve(framing.Section1{OriginatingCentre: 999})
	if ok {
		t.Fatalf("Resolve: expected not found for unknown centre")
	}
}
