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

package interceptor

import (
	"sync"
	"sync/atomic"

	"github.com/tombee/httptrace/pkg/observability"
)

// Config is the tracer and ignore predicate recorded at install time.
type Config[P any] struct {
	Tracer observability.Tracer
	Ignore P
}

// Registration is the process-wide record of one patched client method: the
// captured original implementation of type F and the active Config.
//
// Install and Remove are expected to run during process setup and teardown.
// They are serialized against each other, but a Remove racing in-flight calls
// only guarantees those calls finish against the original implementation.
type Registration[F, P any] struct {
	mu       sync.Mutex
	patched  bool
	original F
	config   atomic.Pointer[Config[P]]
}

// Install binds wrap(original) through store and records cfg. The original
// is read through load only on the first Install; later calls swap cfg and
// leave both the captured original and the bound wrapper untouched.
func (r *Registration[F, P]) Install(cfg Config[P], load func() F, store func(F), wrap func(original F) F) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.config.Store(&cfg)
	if r.patched {
		return
	}

	r.original = load()
	r.patched = true
	store(wrap(r.original))
}

// Remove rebinds the captured original through store and clears all state.
// It reports whether anything was removed; calling it when not installed is
// a no-op.
func (r *Registration[F, P]) Remove(store func(F)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.patched {
		return false
	}

	store(r.original)

	var zero F
	r.original = zero
	r.patched = false
	r.config.Store(nil)
	return true
}

// Installed reports whether the method is currently patched.
func (r *Registration[F, P]) Installed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.patched
}

// Config returns the active configuration, or nil when not installed.
func (r *Registration[F, P]) Config() *Config[P] {
	return r.config.Load()
}
