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
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var referencePattern = regexp.MustCompile(`\$\{secret:([^}]*)\}`)

// Resolver queries available backends in priority order.
type Resolver struct {
	backends []Backend
}

// NewResolver creates a resolver over the available backends.
func NewResolver(backends ...Backend) *Resolver {
	available := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Available() {
			available = append(available, b)
		}
	}
	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Priority() > available[j].Priority()
	})
	return &Resolver{backends: available}
}

// Default returns a resolver over the environment and the OS keychain.
func Default() *Resolver {
	return NewResolver(NewEnvBackend(), NewKeychainBackend())
}

// Backends returns the names of the available backends, highest priority first.
func (r *Resolver) Backends() []string {
	names := make([]string, len(r.backends))
	for i, b := range r.backends {
		names[i] = b.Name()
	}
	return names
}

// Get returns the first value found for key.
func (r *Resolver) Get(ctx context.Context, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if len(r.backends) == 0 {
		return "", fmt.Errorf("%w: no available backends", ErrBackendUnavailable)
	}

	var lastErr error
	for _, b := range r.backends {
		value, err := b.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", key, lastErr)
	}
	return "", fmt.Errorf("%w: %q", ErrSecretNotFound, key)
}

// Set stores value in the named backend, or in the first writable one when
// backend is empty.
func (r *Resolver) Set(ctx context.Context, key, value, backend string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	for _, b := range r.backends {
		if backend != "" && b.Name() != backend {
			continue
		}
		err := b.Set(ctx, key, value)
		if errors.Is(err, ErrReadOnlyBackend) && backend == "" {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to set secret in %s: %w", b.Name(), err)
		}
		return nil
	}
	if backend != "" {
		return fmt.Errorf("%w: %q", ErrBackendUnavailable, backend)
	}
	return fmt.Errorf("%w: no writable backend", ErrBackendUnavailable)
}

// Delete removes key from every writable backend holding it.
func (r *Resolver) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	deleted := false
	for _, b := range r.backends {
		err := b.Delete(ctx, key)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrReadOnlyBackend), errors.Is(err, ErrSecretNotFound):
		default:
			return fmt.Errorf("failed to delete secret from %s: %w", b.Name(), err)
		}
	}
	if !deleted {
		return fmt.Errorf("%w: %q", ErrSecretNotFound, key)
	}
	return nil
}

// HasReference reports whether s contains a ${secret:name} reference.
func HasReference(s string) bool {
	return strings.Contains(s, "${secret:")
}

// Expand replaces every ${secret:name} reference in s.
func (r *Resolver) Expand(ctx context.Context, s string) (string, error) {
	var firstErr error
	out := referencePattern.ReplaceAllStringFunc(s, func(ref string) string {
		if firstErr != nil {
			return ref
		}
		key := referencePattern.FindStringSubmatch(ref)[1]
		value, err := r.Get(ctx, key)
		if err != nil {
			firstErr = err
			return ref
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// ExpandMap returns a copy of m with references expanded in every value.
func (r *Resolver) ExpandMap(ctx context.Context, m map[string]string) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		expanded, err := r.Expand(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = expanded
	}
	return out, nil
}
