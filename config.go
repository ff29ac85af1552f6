// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	yaml "go.yaml.in/yaml/v3"
)

// Config is the YAML form of Options.
//
//	name: character-selection
//	policy: join
//	log_level: debug
//	report:
//	  rate_per_sec: 5
//	  burst: 10
type Config struct {
	Name     string       `yaml:"name"`
	Policy   string       `yaml:"policy"`
	LogLevel string       `yaml:"log_level"`
	Report   ReportConfig `yaml:"report"`
}

// ReportConfig configures the LogReporter built by Config.Options.
type ReportConfig struct {
	// Disabled drops unhandled failures instead of logging them.
	Disabled   bool    `yaml:"disabled"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

// ParseConfig decodes YAML. Unknown fields are rejected. Empty input
// yields the zero Config.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("coro: yaml decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("coro: read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks policy, log level and report limits.
func (c Config) Validate() error {
	if _, err := ParsePolicy(c.Policy); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Report.RatePerSec < 0 {
		return fmt.Errorf("coro: report.rate_per_sec must be >= 0")
	}
	if c.Report.Burst < 0 {
		return fmt.Errorf("coro: report.burst must be >= 0")
	}
	return nil
}

// Options builds executor options writing logs and reports to w as JSON.
func (c Config) Options(w io.Writer) (Options, error) {
	if err := c.Validate(); err != nil {
		return Options{}, err
	}
	policy, _ := ParsePolicy(c.Policy)
	level, _ := parseLevel(c.LogLevel)

	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	opts := Options{
		Name:   c.Name,
		Policy: policy,
		Logger: &log,
	}
	if c.Report.Disabled {
		opts.Reporter = NopReporter{}
	} else {
		opts.Reporter = NewLogReporter(log, c.Report.RatePerSec, c.Report.Burst)
	}
	return opts, nil
}

// parseLevel maps an empty level to info.
func parseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	l, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("coro: log_level: %w", err)
	}
	return l, nil
}
