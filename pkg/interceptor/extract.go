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
	"github.com/tombee/httptrace/pkg/httpclient"
	"github.com/tombee/httptrace/pkg/observability"
)

// MissingPolicy decides how an attribute the request does not expose is
// represented in the tag set.
type MissingPolicy int

const (
	// MissingAsNil keeps the key with a nil value.
	MissingAsNil MissingPolicy = iota

	// MissingOmitted drops the key.
	MissingOmitted
)

// Attributes are the request attributes a span is tagged with. Each value is
// paired with a flag recording whether the request exposed it.
type Attributes struct {
	Method    string
	HasMethod bool

	Path    string
	HasPath bool

	Host    string
	HasHost bool

	Port    int
	HasPort bool
}

// ExtractURI reads host, path and port from uri through its optional
// capabilities. Nothing is guessed: an attribute the value does not expose is
// left unset.
func ExtractURI(uri httpclient.URI) Attributes {
	var a Attributes
	if uri == nil {
		return a
	}

	a.Host, a.HasHost = uri.Host(), true
	if p, ok := uri.(httpclient.PathURI); ok {
		a.Path, a.HasPath = p.Path(), true
	}
	if p, ok := uri.(httpclient.PortURI); ok {
		a.Port, a.HasPort = p.Port(), true
	}
	return a
}

// WithMethod returns a copy of a with the method set.
func (a Attributes) WithMethod(method string) Attributes {
	a.Method, a.HasMethod = method, true
	return a
}

// Tags builds the span tag set for a client call in the canonical key order:
// component, span.kind, http.method, http.url, peer.host, peer.port.
func (a Attributes) Tags(component string, policy MissingPolicy) observability.Tags {
	tags := make(observability.Tags, 0, 6)
	tags = append(tags,
		observability.Tag{Key: observability.TagComponent, Value: component},
		observability.Tag{Key: observability.TagSpanKind, Value: string(observability.SpanKindClient)},
	)

	add := func(key string, value any, present bool) {
		switch {
		case present:
			tags = append(tags, observability.Tag{Key: key, Value: value})
		case policy == MissingAsNil:
			tags = append(tags, observability.Tag{Key: key, Value: nil})
		}
	}
	add(observability.TagHTTPMethod, a.Method, a.HasMethod)
	add(observability.TagHTTPURL, a.Path, a.HasPath)
	add(observability.TagPeerHost, a.Host, a.HasHost)
	add(observability.TagPeerPort, a.Port, a.HasPort)

	return tags
}
