// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/awslabs/pytaint/internal/funcutil"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// DefaultMaxFixpointIters bounds the per-SCC fixed-point iteration of the
// interprocedural summarizer. A classifier misclassification must never be
// able to make summarization loop forever.
const DefaultMaxFixpointIters = 100

// Config collects the user-provided settings of the taint engine: custom
// classifier entries, reporting thresholds and resource options.
// If some field is not defined in the config file, it will be empty/zero in
// the struct.
type Config struct {
	Options

	sourceFile string

	// CustomSources are additional taint sources, given as qualified call or
	// attribute names (e.g. "request.headers.get"). They are merged ahead of
	// the built-in tables; a custom entry wins on a name conflict.
	CustomSources []string `yaml:"custom-sources"`

	// CustomSinks are additional sinks. They are merged ahead of the
	// built-in tables; a custom entry wins on a name conflict.
	CustomSinks []SinkEntry `yaml:"custom-sinks"`

	// CustomSanitizers are additional sanitizers, as qualified call names.
	CustomSanitizers []string `yaml:"custom-sanitizers"`

	// ExcludedRules lists rule ids (e.g. "CSP-D101") whose findings are
	// dropped from the final report.
	ExcludedRules []string `yaml:"excluded-rules"`
}

// SinkEntry is the configuration form of a custom sink. Only Name is
// mandatory; VulnType defaults to code execution and Severity to HIGH.
type SinkEntry struct {
	// Name is the qualified call name of the sink. A trailing dot matches a
	// name prefix ("subprocess.") and a leading dot a method suffix
	// (".execute").
	Name string `yaml:"name"`

	// RuleID is the rule id attached to findings through this sink.
	RuleID string `yaml:"rule-id"`

	// VulnType names the vulnerability category (see classify.ParseVulnType).
	VulnType string `yaml:"vuln-type"`

	// Severity is one of LOW, MEDIUM, HIGH, CRITICAL.
	Severity string `yaml:"severity"`

	// Remediation is an optional advice string carried on findings.
	Remediation string `yaml:"remediation"`
}

// Options are the scalar settings of an analysis run.
type Options struct {
	// SeverityThreshold drops findings strictly below the given severity
	// (LOW, MEDIUM, HIGH, CRITICAL). Empty keeps everything.
	SeverityThreshold string `yaml:"severity-threshold"`

	// FailOn is the severity at which the CLI exits non-zero. Empty means
	// any finding fails the run.
	FailOn string `yaml:"fail-on"`

	// MaxFixpointIters bounds fixed-point iteration inside one call-graph
	// SCC. Defaults to DefaultMaxFixpointIters when <= 0.
	MaxFixpointIters int `yaml:"max-fixpoint-iters"`

	// NumWorkers is the size of the worker pool for the per-module pass.
	// Defaults to the number of CPUs when <= 0.
	NumWorkers int `yaml:"num-workers"`

	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:       "",
		CustomSources:    nil,
		CustomSinks:      nil,
		CustomSanitizers: nil,
		ExcludedRules:    nil,
		Options: Options{
			SeverityThreshold: "",
			FailOn:            "",
			MaxFixpointIters:  DefaultMaxFixpointIters,
			NumWorkers:        0,
			LogLevel:          int(InfoLevel),
			SilenceWarn:       false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := LoadBytes(b)
	if err != nil {
		return nil, err
	}
	cfg.sourceFile = filename
	return cfg, nil
}

// LoadBytes reads a configuration from raw yaml bytes.
func LoadBytes(b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if cfg.MaxFixpointIters <= 0 {
		cfg.MaxFixpointIters = DefaultMaxFixpointIters
	}

	for _, entry := range cfg.CustomSinks {
		if entry.Name == "" {
			return nil, fmt.Errorf("custom sink entry without a name")
		}
	}

	return cfg, nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// IsRuleExcluded returns true if the rule id appears in ExcludedRules.
func (c Config) IsRuleExcluded(ruleID string) bool {
	return funcutil.Contains(c.ExcludedRules, func(id string) bool { return id == ruleID })
}

// Verbose returns true if the configured verbosity is larger than Info
// (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
