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

package tracing

import (
	"context"

	"github.com/google/uuid"
)

// CorrelationID ties log lines, outgoing headers and span attributes of one
// logical operation together. It is an RFC 4122 UUID string.
type CorrelationID string

type correlationKey struct{}

const (
	// HeaderCorrelationID carries the correlation ID on outgoing requests.
	HeaderCorrelationID = "X-Correlation-ID"

	// AttrCorrelationID is the span attribute holding the correlation ID.
	AttrCorrelationID = "httptrace.correlation_id"
)

// NewCorrelationID generates a new random correlation ID.
func NewCorrelationID() CorrelationID {
	return CorrelationID(uuid.NewString())
}

func (c CorrelationID) String() string {
	return string(c)
}

// IsValid reports whether c parses as a canonical 36 character UUID.
func (c CorrelationID) IsValid() bool {
	_, ok := ParseCorrelationID(string(c))
	return ok
}

// ParseCorrelationID accepts only the canonical hyphenated UUID form.
func ParseCorrelationID(s string) (CorrelationID, bool) {
	if len(s) != 36 {
		return "", false
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", false
	}
	return CorrelationID(s), true
}

// ToContext returns a copy of ctx carrying id.
func ToContext(ctx context.Context, id CorrelationID) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// FromContextOrEmpty returns the correlation ID in ctx, or "".
func FromContextOrEmpty(ctx context.Context) CorrelationID {
	id, _ := ctx.Value(correlationKey{}).(CorrelationID)
	return id
}
