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

// Package errors defines the typed errors surfaced by httptrace and small
// wrapping helpers around the standard library.
package errors

import (
	"fmt"
)

// IncompatibleVersionError is returned when an instrumentation target is
// present but older than the supported version floor. Nothing is installed
// when this error is returned.
type IncompatibleVersionError struct {
	// Target names the instrumented library.
	Target string

	// Version is the version that was found.
	Version string

	// Minimum is the lowest supported version.
	Minimum string

	// Cause is set when the found version could not be parsed.
	Cause error
}

// Error implements the error interface.
func (e *IncompatibleVersionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s version %q is not supported (minimum %s): %v", e.Target, e.Version, e.Minimum, e.Cause)
	}
	return fmt.Sprintf("%s version %s is not supported (minimum %s)", e.Target, e.Version, e.Minimum)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *IncompatibleVersionError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements UserVisibleError.
func (e *IncompatibleVersionError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *IncompatibleVersionError) UserMessage() string {
	return fmt.Sprintf("%s %s is too old to be instrumented", e.Target, e.Version)
}

// Suggestion implements UserVisibleError.
func (e *IncompatibleVersionError) Suggestion() string {
	return fmt.Sprintf("Upgrade %s to %s or later", e.Target, e.Minimum)
}

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "tracing.exporters[0].type")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface. The cause, when set, is appended.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config error: %s", e.Reason)
	if e.Key != "" {
		msg = fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements UserVisibleError.
func (e *ConfigError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *ConfigError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *ConfigError) Suggestion() string {
	return "Check the configuration file passed with --config"
}

// ValidationError represents user input validation failures.
type ValidationError struct {
	// Field identifies which input failed validation
	Field string

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}
