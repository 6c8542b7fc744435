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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tombee/httptrace/pkg/httpclient"
	"github.com/tombee/httptrace/pkg/observability"
)

type hostOnlyURI struct{ host string }

func (u hostOnlyURI) Host() string { return u.host }

func TestExtractURI_FullURL(t *testing.T) {
	a := ExtractURI(httpclient.MustParseURI("http://localhost/api/data"))

	assert.Equal(t, Attributes{
		Path: "/api/data", HasPath: true,
		Host: "localhost", HasHost: true,
		Port: 80, HasPort: true,
	}, a)
}

func TestExtractURI_HostOnly(t *testing.T) {
	a := ExtractURI(hostOnlyURI{host: "localhost"})

	assert.True(t, a.HasHost)
	assert.False(t, a.HasPath)
	assert.False(t, a.HasPort)
	assert.Equal(t, "localhost", a.Host)
}

func TestExtractURI_Nil(t *testing.T) {
	assert.Equal(t, Attributes{}, ExtractURI(nil))
}

func TestAttributesTags_MissingAsNil(t *testing.T) {
	tags := ExtractURI(hostOnlyURI{host: "localhost"}).WithMethod("POST").Tags("HTTP", MissingAsNil)

	assert.Equal(t, observability.Tags{
		{Key: "component", Value: "HTTP"},
		{Key: "span.kind", Value: "client"},
		{Key: "http.method", Value: "POST"},
		{Key: "http.url", Value: nil},
		{Key: "peer.host", Value: "localhost"},
		{Key: "peer.port", Value: nil},
	}, tags)
}

func TestAttributesTags_MissingOmitted(t *testing.T) {
	tags := ExtractURI(hostOnlyURI{host: "localhost"}).Tags("go-httpclient", MissingOmitted)

	assert.Equal(t, observability.Tags{
		{Key: "component", Value: "go-httpclient"},
		{Key: "span.kind", Value: "client"},
		{Key: "peer.host", Value: "localhost"},
	}, tags)
}

func TestAttributesTags_CanonicalOrder(t *testing.T) {
	tags := ExtractURI(httpclient.MustParseURI("https://example.com:8443/x")).WithMethod("GET").Tags("HTTP", MissingOmitted)

	keys := make([]string, 0, len(tags))
	for _, tag := range tags {
		keys = append(keys, tag.Key)
	}
	assert.Equal(t, []string{"component", "span.kind", "http.method", "http.url", "peer.host", "peer.port"}, keys)

	port, _ := tags.Get("peer.port")
	assert.Equal(t, 8443, port)
}
