// Package config loads the heap description used by kheapctl from YAML.
//
// Example:
//
//	region:
//	  size: 16MiB
//	  base: 0x100000     # 0 reserves real memory
//	  carve_offset: 4KiB
//	classes:
//	  min_shift: 3
//	  count: 14
//	log:
//	  level: info
//	  format: text
package config

import (
	"bytes"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/kheap/heap"
	"github.com/joshuapare/kheap/heap/alloc"
	"github.com/joshuapare/kheap/internal/format"
	"github.com/joshuapare/kheap/internal/logger"
)

// Config is the on-disk heap description.
type Config struct {
	Region  Region  `yaml:"region"`
	Classes Classes `yaml:"classes"`
	Log     Log     `yaml:"log"`
}

// Region describes the memory the heap manages.
type Region struct {
	Size        Size `yaml:"size"`
	Base        Size `yaml:"base"`
	CarveOffset Size `yaml:"carve_offset"`
}

// Classes describes the size classes.
type Classes struct {
	Name     string `yaml:"name,omitempty"`
	MinShift uint   `yaml:"min_shift"`
	Count    int    `yaml:"count"`
}

// Log configures the CLI logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a 16 MiB heap at virtual base 0x100000 with the default classes.
func Default() *Config {
	return &Config{
		Region: Region{
			Size: 16 * format.MiB,
			Base: 0x100000,
		},
		Classes: Classes{
			Name:     alloc.DefaultConfig.Name,
			MinShift: alloc.DefaultConfig.MinShift,
			Count:    alloc.DefaultConfig.NumClasses,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: read")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "config: decode")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for values the heap would reject.
func (c *Config) Validate() error {
	if c.Region.Size == 0 {
		return errors.New("config: region.size must be positive")
	}
	if uint64(c.Region.Size) > math.MaxInt {
		return errors.Errorf("config: region.size %s too large", c.Region.Size)
	}
	if c.Region.CarveOffset > c.Region.Size {
		return errors.Errorf("config: region.carve_offset %s exceeds region.size %s",
			c.Region.CarveOffset, c.Region.Size)
	}
	if uint64(c.Region.Base) > math.MaxUint64-uint64(c.Region.Size) {
		return errors.Errorf("config: region.base %#x + region.size overflows", uint64(c.Region.Base))
	}
	if _, err := alloc.NewSizeClassTable(c.sizeClassConfig()); err != nil {
		return errors.Wrap(err, "config: classes")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "config: log.level")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("config: log.format %q (want text or json)", c.Log.Format)
	}
	return nil
}

func (c *Config) sizeClassConfig() alloc.SizeClassConfig {
	name := c.Classes.Name
	if name == "" {
		name = "custom"
	}
	return alloc.SizeClassConfig{
		Name:       name,
		MinShift:   c.Classes.MinShift,
		NumClasses: c.Classes.Count,
	}
}

// HeapConfig converts c to the heap constructor's config.
func (c *Config) HeapConfig() heap.Config {
	return heap.Config{
		Size:        int(c.Region.Size),
		Base:        uintptr(c.Region.Base),
		CarveOffset: int(c.Region.CarveOffset),
		Classes:     c.sizeClassConfig(),
	}
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "config: encode")
	}
	return out, nil
}
