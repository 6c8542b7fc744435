// Copyright 2025 Tom Barlow
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

// Package config loads the httptrace configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tombee/httptrace/internal/ignore"
	"github.com/tombee/httptrace/internal/log"
	"github.com/tombee/httptrace/internal/tracing"
	httptraceerrors "github.com/tombee/httptrace/pkg/errors"
)

// Interceptor levels.
const (
	LevelRequest = "request"
	LevelPerform = "perform"
	LevelBoth    = "both"
)

// Config is the root of the configuration file.
type Config struct {
	Log         log.Config        `yaml:"log"`
	Tracing     tracing.Config    `yaml:"tracing"`
	Client      ClientConfig      `yaml:"client"`
	Interceptor InterceptorConfig `yaml:"interceptor"`
	Ignore      ignore.Rules      `yaml:"ignore"`
}

// ClientConfig configures the instrumented HTTP client.
type ClientConfig struct {
	// Timeout is the total request timeout (default: 30s).
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is sent when the caller sets none.
	UserAgent string `yaml:"user_agent"`

	// RedactParams adds query parameter names masked in client logs.
	RedactParams []string `yaml:"redact_params"`
}

// InterceptorConfig selects which client boundary is traced.
type InterceptorConfig struct {
	// Level is request, perform or both (default: request).
	Level string `yaml:"level"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Log:     *log.DefaultConfig(),
		Tracing: tracing.DefaultConfig(),
		Client: ClientConfig{
			Timeout: 30 * time.Second,
		},
		Interceptor: InterceptorConfig{
			Level: LevelRequest,
		},
	}
}

// Load reads configPath over the defaults, applies environment overrides
// and validates the result. An empty path loads defaults and environment
// only.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &httptraceerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &httptraceerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// applyDefaults fills zero values left by a partial file.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaults.Tracing.ServiceName
	}
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = defaults.Tracing.ServiceVersion
	}
	if c.Tracing.BatchSize == 0 {
		c.Tracing.BatchSize = defaults.Tracing.BatchSize
	}
	if c.Tracing.BatchInterval == 0 {
		c.Tracing.BatchInterval = defaults.Tracing.BatchInterval
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = defaults.Client.Timeout
	}
	if c.Interceptor.Level == "" {
		c.Interceptor.Level = defaults.Interceptor.Level
	}
}

// loadFromEnv applies environment overrides.
//   - HTTPTRACE_DEBUG, HTTPTRACE_LOG_LEVEL, LOG_LEVEL, LOG_FORMAT, LOG_SOURCE (see log.FromEnv)
//   - OTEL_SERVICE_NAME: tracing.service_name
//   - HTTPTRACE_LEVEL: interceptor.level
//   - HTTPTRACE_TIMEOUT: client.timeout
func (c *Config) loadFromEnv() {
	c.Log.ApplyEnv()

	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		c.Tracing.ServiceName = v
	}
	if v := os.Getenv("HTTPTRACE_LEVEL"); v != "" {
		c.Interceptor.Level = strings.ToLower(v)
	}
	if v := os.Getenv("HTTPTRACE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Client.Timeout = d
		}
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if !log.ValidLevel(c.Log.Level) {
		return &httptraceerrors.ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}
	switch c.Log.Format {
	case log.FormatJSON, log.FormatText:
	default:
		return &httptraceerrors.ValidationError{Field: "log.format", Message: fmt.Sprintf("must be json or text, got %q", c.Log.Format)}
	}

	if err := c.Tracing.Validate(); err != nil {
		return httptraceerrors.Wrap(err, "tracing")
	}

	if c.Client.Timeout <= 0 {
		return &httptraceerrors.ValidationError{Field: "client.timeout", Message: fmt.Sprintf("must be > 0, got %v", c.Client.Timeout)}
	}

	switch c.Interceptor.Level {
	case LevelRequest, LevelPerform, LevelBoth:
	default:
		return &httptraceerrors.ValidationError{
			Field:   "interceptor.level",
			Message: fmt.Sprintf("must be request, perform or both, got %q", c.Interceptor.Level),
		}
	}

	if _, err := ignore.Compile(c.Ignore); err != nil {
		return err
	}
	return nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
