package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/roman-kulish/specreduce/internal/fits"
	"github.com/roman-kulish/specreduce/internal/render"
	"github.com/roman-kulish/specreduce/internal/spectrum"
)

const (
	DefaultDBPath       = "specreduce.db"
	DefaultReferenceDir = "."
	DefaultCropRange    = "3900:7000"
)

// Config holds runtime configuration shared by all commands.
// Values are populated from .specreduce.yaml, SPECREDUCE_* env vars, and CLI flags.
type Config struct {
	DBPath       string  `mapstructure:"db"`
	ReferenceDir string  `mapstructure:"reference_dir"`
	LinesFile    string  `mapstructure:"lines_file"`
	HeaderLabel  string  `mapstructure:"header_label"`
	CropRange    string  `mapstructure:"crop_range"`
	Smoothing    float64 `mapstructure:"smoothing"`
	Height       int     `mapstructure:"height"`
	Verbose      bool    `mapstructure:"verbose"`
}

// Load reads configuration from v, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load(v *viper.Viper) (*Config, error) {
	v.SetDefault("db", DefaultDBPath)
	v.SetDefault("reference_dir", DefaultReferenceDir)
	v.SetDefault("lines_file", "")
	v.SetDefault("header_label", fits.DefaultLabelKey)
	v.SetDefault("crop_range", DefaultCropRange)
	v.SetDefault("smoothing", float64(spectrum.DefaultSmoothing))
	v.SetDefault("height", render.DefaultHeight)
	v.SetDefault("verbose", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	var err error
	if cfg.DBPath == "" {
		err = errors.New("db path is required")
	} else if cfg.Smoothing < 0 {
		err = fmt.Errorf("smoothing must not be negative: %g", cfg.Smoothing)
	} else if cfg.Height <= 0 {
		err = fmt.Errorf("height must be positive: %d", cfg.Height)
	} else if _, err = ParseCropRange(cfg.CropRange); err != nil {
		err = fmt.Errorf("crop range: %w", err)
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseCropRange parses "low:high" in angstrom.
func ParseCropRange(s string) (*render.CropRange, error) {
	low, high, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("expected low:high, got %q", s)
	}

	l, err := strconv.ParseFloat(strings.TrimSpace(low), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid low bound %q", low)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(high), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid high bound %q", high)
	}
	if l >= h {
		return nil, fmt.Errorf("low bound %g is not below high bound %g", l, h)
	}
	return &render.CropRange{Low: l, High: h}, nil
}
