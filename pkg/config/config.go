// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/batch"
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/state"
	"gitlab.com/tozd/go/errors"
)

// ErrUCMMismatch is reported, as a warning, when use_ucm disagrees with the
// kind of view a root is loaded in.
var ErrUCMMismatch = errors.Base("use_ucm does not match the view")

// FileNames are the config file names Find looks for, in order.
var FileNames = []string{".ccvcs.yaml", ".ccvcs.yml", ".ccvcs.hcl", ".ccvcs.toml", ".ccvcs.json"}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🔧 JSONParser reads .json config files. JSON has no expressions, so
// $VAR and ${VAR} references in executable, roots and state_file are expanded
// from the environment, the way the HCL parser offers env.
type JSONParser struct{}

func init() {
	Register(&JSONParser{})
}

// CanParse reports whether filename has a .json extension.
func (p *JSONParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".json")
}

// Parse decodes data strictly and expands environment references.
func (p *JSONParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	cfg.Executable = os.ExpandEnv(cfg.Executable)
	cfg.StateFile = os.ExpandEnv(cfg.StateFile)
	for i, r := range cfg.Roots {
		cfg.Roots[i] = os.ExpandEnv(r)
	}
	return &cfg, nil
}

// 📚 Config represents the complete configuration
type Config struct {
	Executable            string   `json:"executable,omitempty" yaml:"executable,omitempty" toml:"executable,omitempty"`
	Timeout               string   `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	StatusCeiling         int      `json:"status_ceiling,omitempty" yaml:"status_ceiling,omitempty" toml:"status_ceiling,omitempty"`
	DescribeCeiling       int      `json:"describe_ceiling,omitempty" yaml:"describe_ceiling,omitempty" toml:"describe_ceiling,omitempty"`
	CheckoutListThreshold int      `json:"checkout_list_threshold,omitempty" yaml:"checkout_list_threshold,omitempty" toml:"checkout_list_threshold,omitempty"`
	UseUCM                bool     `json:"use_ucm,omitempty" yaml:"use_ucm,omitempty" toml:"use_ucm,omitempty"`
	Roots                 []string `json:"roots" yaml:"roots" toml:"roots"`
	Ignore                []string `json:"ignore,omitempty" yaml:"ignore,omitempty" toml:"ignore,omitempty"`
	StateFile             string   `json:"state_file,omitempty" yaml:"state_file,omitempty" toml:"state_file,omitempty"`
	HistoryLimit          int      `json:"history_limit,omitempty" yaml:"history_limit,omitempty" toml:"history_limit,omitempty"`

	timeout  time.Duration
	location string
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving config path: %w", err)
	}
	cfg.location = abs

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Find walks up from dir looking for one of FileNames.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", dir, err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Errorf("no %s file found", strings.Join(FileNames, ", "))
		}
		dir = parent
	}
}

// 🔍 Validate applies defaults and checks the configuration.
//
// Relative roots and the state file are resolved against the directory of the
// config file, or the working directory for a config that was not loaded from disk.
func (cfg *Config) Validate() error {
	if len(cfg.Roots) == 0 {
		return errors.Errorf("at least one root is required")
	}
	for _, n := range []struct {
		name  string
		value int
	}{
		{"status_ceiling", cfg.StatusCeiling},
		{"describe_ceiling", cfg.DescribeCeiling},
		{"checkout_list_threshold", cfg.CheckoutListThreshold},
		{"history_limit", cfg.HistoryLimit},
	} {
		if n.value < 0 {
			return errors.Errorf("%s must not be negative, got %d", n.name, n.value)
		}
	}
	for _, p := range cfg.Ignore {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid ignore pattern %q", p)
		}
	}

	if cfg.Executable == "" {
		cfg.Executable = cleartool.DefaultExecutable
	}
	cfg.timeout = cleartool.DefaultTimeout
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return errors.Errorf("parsing timeout: %w", err)
		}
		if d <= 0 {
			return errors.Errorf("timeout must be positive, got %s", cfg.Timeout)
		}
		cfg.timeout = d
	}
	if cfg.StatusCeiling == 0 {
		cfg.StatusCeiling = batch.DefaultStatusCeiling
	}
	if cfg.DescribeCeiling == 0 {
		cfg.DescribeCeiling = batch.DefaultDescribeCeiling
	}
	if cfg.CheckoutListThreshold == 0 {
		cfg.CheckoutListThreshold = batch.DefaultCheckoutListThreshold
	}

	base, err := cfg.baseDir()
	if err != nil {
		return err
	}
	for i, r := range cfg.Roots {
		if r == "" {
			return errors.Errorf("roots[%d] is empty", i)
		}
		cfg.Roots[i] = resolve(base, r)
	}
	if cfg.StateFile == "" {
		cfg.StateFile = filepath.Join(cfg.Roots[0], state.DefaultFile)
	} else {
		cfg.StateFile = resolve(base, cfg.StateFile)
	}

	return nil
}

func (cfg *Config) baseDir() (string, error) {
	if cfg.location != "" {
		return filepath.Dir(cfg.location), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Errorf("getting working directory: %w", err)
	}
	return wd, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// TimeoutDuration returns the per-invocation timeout. Valid after Validate.
func (cfg *Config) TimeoutDuration() time.Duration {
	if cfg.timeout <= 0 {
		return cleartool.DefaultTimeout
	}
	return cfg.timeout
}

// Location returns the file the config was loaded from, or "".
func (cfg *Config) Location() string {
	return cfg.location
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	mode := "base"
	if cfg.UseUCM {
		mode = "ucm"
	}
	return fmt.Sprintf("%s (%s) roots=[%s]", cfg.Executable, mode, strings.Join(cfg.Roots, ", "))
}
