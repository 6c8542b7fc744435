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

package config

import (
	"os"
	"path/filepath"

	"github.com/tombee/httptrace/internal/tracing"
)

// ConfigDir returns the XDG config directory for httptrace
// ($XDG_CONFIG_HOME/httptrace, or ~/.config/httptrace).
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "httptrace"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ResolvePath returns explicit when set, otherwise the default path if a
// file exists there, otherwise "".
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path, err := ConfigPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// DefaultJournalPath returns the span journal location
// ($XDG_DATA_HOME/httptrace/spans.db, or ~/.local/share/httptrace/spans.db).
func DefaultJournalPath() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "httptrace", "spans.db"), nil
}

// JournalPath returns the path of the first journal exporter in cfg, or the
// default location when none is configured.
func (c *Config) JournalPath() (string, error) {
	for _, e := range c.Tracing.Exporters {
		if e.Type == tracing.ExporterJournal && e.Path != "" {
			return expandHome(e.Path)
		}
	}
	return DefaultJournalPath()
}
