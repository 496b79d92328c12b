package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.yaml")
	contents := `devices:
  - path: /dev/sda
    read_only: true
  - path: /tmp/fw.img.xz
    image: true
    sector_size: 4096
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := &Config{Devices: []DeviceConfig{
		{Path: "/dev/sda", ReadOnly: true},
		{Path: "/tmp/fw.img.xz", Image: true, SectorSize: 4096},
	}}
	if diff := deep.Equal(cfg, expected); diff != nil {
		t.Errorf("mismatched config: %v", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	missingPath := filepath.Join(dir, "nodevpath.yaml")
	if err := os.WriteFile(missingPath, []byte("devices:\n  - read_only: true\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml")},
		{"device without path", missingPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(tt.path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
