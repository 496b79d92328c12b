package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config lists the devices blkinfo should attach when --config is
// given instead of positional paths.
type Config struct {
	Devices []DeviceConfig `yaml:"devices"`
}

// DeviceConfig describes one device to attach.
type DeviceConfig struct {
	Path       string `yaml:"path"`
	ReadOnly   bool   `yaml:"read_only,omitempty"`
	Image      bool   `yaml:"image,omitempty"` // treat as (possibly compressed) raw image
	SectorSize uint64 `yaml:"sector_size,omitempty"`
}

func loadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	for i, dev := range cfg.Devices {
		if dev.Path == "" {
			return nil, fmt.Errorf("config %s: device %d has no path", path, i)
		}
	}
	return &cfg, nil
}

// devicesFromArgs turns positional arguments or a config file into a
// device list; positional paths are attached read-only.
func devicesFromArgs(args []string) ([]DeviceConfig, error) {
	if flagConfig != "" {
		cfg, err := loadConfig(flagConfig)
		if err != nil {
			return nil, err
		}
		return cfg.Devices, nil
	}
	devices := make([]DeviceConfig, 0, len(args))
	for _, path := range args {
		devices = append(devices, DeviceConfig{Path: path, ReadOnly: true, SectorSize: flagSectorSize})
	}
	return devices, nil
}
