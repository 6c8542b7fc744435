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


package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	// EnvBackendPriority lets environment variables override stored secrets.
	EnvBackendPriority = 100

	envSecretPrefix = "HTTPTRACE_SECRET_"
)

// EnvBackend reads secrets from HTTPTRACE_SECRET_<NAME> variables, where
// NAME is the key uppercased with '.' and '-' replaced by '_'.
type EnvBackend struct{}

// NewEnvBackend creates a new environment variable backend.
func NewEnvBackend() *EnvBackend {
	return &EnvBackend{}
}

func (e *EnvBackend) Name() string { return "env" }

func (e *EnvBackend) Get(ctx context.Context, key string) (string, error) {
	if value := os.Getenv(EnvName(key)); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%w: %s not set", ErrSecretNotFound, EnvName(key))
}

func (e *EnvBackend) Set(ctx context.Context, key, value string) error {
	return ErrReadOnlyBackend
}

func (e *EnvBackend) Delete(ctx context.Context, key string) error {
	return ErrReadOnlyBackend
}

func (e *EnvBackend) Available() bool { return true }

func (e *EnvBackend) Priority() int { return EnvBackendPriority }

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return envSecretPrefix + strings.ToUpper(r.Replace(key))
}
