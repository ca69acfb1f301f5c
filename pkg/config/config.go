package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the machine configuration.
type Config struct {
	Offset   Offset  `yaml:"offset" json:"offset"`
	Endmill  Endmill `yaml:"endmill" json:"endmill"`
	Drill    Drill   `yaml:"drill" json:"drill"`
	FeedRate float64 `yaml:"feed_rate" json:"feed_rate"`
	Gap      float64 `yaml:"gap_between_endmill_and_drill" json:"gap_between_endmill_and_drill"`
	Cut      bool    `yaml:"cut" json:"cut"`
}

// Offset is the machine position of the stock origin on each axis. A is the
// rotary axis around the feed axis, B the auxiliary tool axis.
type Offset struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
}

// Endmill describes the trimming tool.
type Endmill struct {
	Radius   float64 `yaml:"radius" json:"radius"`
	Step     float64 `yaml:"step" json:"step"`
	Offset   float64 `yaml:"offset" json:"offset"`
	FeedRate float64 `yaml:"feed_rate" json:"feed_rate"`
}

// Drill describes the drilling tool.
type Drill struct {
	Offset   float64 `yaml:"offset" json:"offset"`
	FeedRate float64 `yaml:"feed_rate" json:"feed_rate"`
	Pulling  float64 `yaml:"pulling" json:"pulling"`
}

// LoadFile reads a YAML or JSON configuration, chosen by extension. Files
// with any other extension are tried as YAML, then as JSON.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data on top of Default and validates the result. ext selects
// the format the way a file extension would (".json", ".yaml", ".yml");
// anything else tries both. Unknown keys are rejected.
func Parse(data []byte, ext string) (Config, error) {
	var (
		cfg Config
		err error
	)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		cfg, err = decodeYAML(data)
		if err != nil {
			return Config{}, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		cfg, err = decodeJSON(data)
		if err != nil {
			return Config{}, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		cfg, err = decodeYAML(data)
		if err != nil {
			var jerr error
			if cfg, jerr = decodeJSON(data); jerr != nil {
				return Config{}, fmt.Errorf("unable to parse config as YAML or JSON: %w", err)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

func decodeJSON(data []byte) (Config, error) {
	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values the emitter divides by or moves with.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %g", name, v))
		}
	}
	positive("feed_rate", c.FeedRate)
	positive("drill.feed_rate", c.Drill.FeedRate)
	if c.Drill.Pulling < 0 {
		errs = append(errs, fmt.Errorf("drill.pulling must not be negative, got %g", c.Drill.Pulling))
	}
	if c.Cut {
		positive("endmill.radius", c.Endmill.Radius)
		positive("endmill.step", c.Endmill.Step)
		positive("endmill.feed_rate", c.Endmill.FeedRate)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
