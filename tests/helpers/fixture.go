// Package helpers provides fixture loading for the integration tests.
package helpers

import (
	"testing"

	"faultscope/analyzer"
	"faultscope/dump"
)

// LoadDumpFixture loads a fault dump fixture and builds the channel the
// analyzer will read from.
func LoadDumpFixture(t *testing.T, path string) (*dump.File, *dump.Channel) {
	t.Helper()
	f, err := dump.Load(path)
	if err != nil {
		t.Fatalf("load fixture %s: %v", path, err)
	}
	ch, err := dump.NewChannel(f)
	if err != nil {
		t.Fatalf("build channel for %s: %v", path, err)
	}
	return f, ch
}

// SessionConfig builds the analyzer configuration from the hints carried
// in the dump file, the way an offline analysis session would.
func SessionConfig(f *dump.File) analyzer.Config {
	return analyzer.Config{
		Architecture:    f.Architecture,
		ToolchainPrefix: f.ToolchainPrefix,
		Device:          f.Device,
		ServerType:      f.Server,
	}
}
