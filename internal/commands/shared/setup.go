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

package shared

import (
	"log/slog"

	"github.com/tombee/httptrace/internal/config"
	"github.com/tombee/httptrace/internal/log"
)

// LoadConfig loads the configuration named by --config, or the default file
// when present, and installs the configured logger as the slog default.
// --verbose and --quiet override the configured log level. The resolved path
// is returned so callers can watch it; it is empty when no file was used.
func LoadConfig() (*config.Config, string, error) {
	path := config.ResolvePath(GetConfigPath())

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}

	switch {
	case GetVerbose():
		cfg.Log.Level = "debug"
	case GetQuiet():
		cfg.Log.Level = "error"
	}

	slog.SetDefault(log.New(&cfg.Log))
	return cfg, path, nil
}
