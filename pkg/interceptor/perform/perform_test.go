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

package perform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/httptrace/internal/testing/mock"
	httptraceerrors "github.com/tombee/httptrace/pkg/errors"
	"github.com/tombee/httptrace/pkg/httpclient"
	"github.com/tombee/httptrace/pkg/interceptor/request"
	"github.com/tombee/httptrace/pkg/observability"
)

type customURI struct{ host string }

func (u customURI) Host() string { return u.host }

type performed struct {
	req     *httpclient.Request
	opts    *httpclient.Options
	traceID string
}

// stubPerform binds a recording Perform implementation that answers with res
// and err. The binding is undone when the test ends.
func stubPerform(t *testing.T, res httpclient.Response, err error) *[]performed {
	t.Helper()
	calls := &[]performed{}
	httpclient.SetPerformMethod(func(c *httpclient.Client, ctx context.Context, req *httpclient.Request, opts *httpclient.Options) (httpclient.Response, error) {
		rec := performed{req: req, opts: opts}
		if req != nil && req.Headers != nil {
			rec.traceID = req.Headers.Get(mock.HeaderTraceID)
		}
		*calls = append(*calls, rec)
		return res, err
	})
	t.Cleanup(func() {
		Remove()
		httpclient.SetPerformMethod(nil)
	})
	return calls
}

func newClient(t *testing.T) *httpclient.Client {
	t.Helper()
	c, err := httpclient.New(httpclient.DefaultConfig())
	require.NoError(t, err)
	return c
}

func okResult() httpclient.Response { return &httpclient.Result{StatusCode: http.StatusOK} }

func TestInstrument_StartsSpan(t *testing.T) {
	stubPerform(t, okResult(), nil)
	tracer := mock.NewTracer()
	require.NoError(t, Instrument(WithTracer(tracer)))

	_, err := newClient(t).Request(context.Background(), "GET", httpclient.MustParseURI("http://localhost:3000"), nil)
	require.NoError(t, err)

	spans := tracer.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "http.request", spans[0].Operation)
	assert.True(t, spans[0].Closed())
}

func TestInstrument_FollowsSemanticConventions(t *testing.T) {
	stubPerform(t, okResult(), nil)
	tracer := mock.NewTracer()
	require.NoError(t, Instrument(WithTracer(tracer)))

	_, err := newClient(t).Request(context.Background(), "post", httpclient.MustParseURI("http://localhost/api/data"), nil)
	require.NoError(t, err)

	assert.Equal(t, observability.Tags{
		{Key: "component", Value: "go-httpclient"},
		{Key: "span.kind", Value: "client"},
		{Key: "http.method", Value: "POST"},
		{Key: "http.url", Value: "/api/data"},
		{Key: "peer.host", Value: "localhost"},
		{Key: "peer.port", Value: 80},
	}, tracer.Spans()[0].StartTags)
}

func TestInstrument_CustomURIOmitsTags(t *testing.T) {
	stubPerform(t, okResult(), nil)
	tracer := mock.NewTracer()
	require.NoError(t, Instrument(WithTracer(tracer)))

	_, err := newClient(t).Request(context.Background(), "POST", customURI{host: "localhost"}, nil)
	require.NoError(t, err)

	assert.Equal(t, observability.Tags{
		{Key: "component", Value: "go-httpclient"},
		{Key: "span.kind", Value: "client"},
		{Key: "http.method", Value: "POST"},
		{Key: "peer.host", Value: "localhost"},
	}, tracer.Spans()[0].StartTags)
}

func TestInstrument_RequestWithoutVerbOmitsMethod(t *testing.T) {
	stubPerform(t, okResult(), nil)
	tracer := mock.NewTracer()
	require.NoError(t, Instrument(WithTracer(tracer)))

	req := &httpclient.Request{URI: customURI{host: "example.com"}}
	_, err := newClient(t).Perform(context.Background(), req, nil)
	require.NoError(t, err)

	tags := tracer.Spans()[0].StartTags
	assert.False(t, tags.Has("http.method"))
	assert.NotNil(t, req.Headers, "headers are allocated so the context is not dropped")
}

func TestInstrument_InjectsIntoRequestHeaders(t *testing.T) {
	calls := stubPerform(t, okResult(), nil)
	tracer := mock.NewTracer()
	require.NoError(t, Instrument(WithTracer(tracer)))
	opts := &httpclient.Options{Headers: http.Header{"X-Test": []string{"foobar"}}}

	_, err := newClient(t).Request(context.Background(), "GET", httpclient.MustParseURI("http://localhost"), opts)
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, tracer.Spans()[0].ID(), got.traceID, "injected before perform ran")
	assert.Empty(t, opts.Headers.Get(mock.HeaderTraceID), "options headers are not the carrier")
	assert.Equal(t, "foobar", got.req.Headers.Get("X-Test"))
}

func TestInstrument_IgnoreRequest(t *testing.T) {
	calls := stubPerform(t, okResult(), nil)
	tracer := mock.NewTracer()
	require.NoError(t, Instrument(
		WithTracer(tracer),
		WithIgnoreRequest(func(req *httpclient.Request, _ *httpclient.Options) bool {
			return req.URI.Host() == "localhost"
		}),
	))
	client := newClient(t)

	_, err := client.Request(context.Background(), "GET", httpclient.MustParseURI("http://localhost:3000"), nil)
	require.NoError(t, err)
	assert.Empty(t, tracer.Spans())
	require.Len(t, *calls, 1)
	assert.Empty(t, (*calls)[0].traceID)

	_, err = client.Request(context.Background(), "GET", httpclient.MustParseURI("http://myhost.com:3000"), nil)
	require.NoError(t, err)
	assert.Len(t, tracer.Spans(), 1)
}

func TestInstrument_TagsErrorShapedResult(t *testing.T) {
	errResult := &httpclient.StatusError{Result: &httpclient.Result{StatusCode: 500}}
	stubPerform(t, errResult, nil)
	tracer := mock.NewTracer()
	require.NoError(t, Instrument(WithTracer(tracer)))

	got, err := newClient(t).Request(context.Background(), "GET", httpclient.MustParseURI("http://localhost:3000"), nil)
	require.NoError(t, err)
	assert.Same(t, errResult, got)

	assert.Equal(t, observability.Tags{
		{Key: "http.status_code", Value: 500},
		{Key: "error", Value: true},
	}, tracer.Spans()[0].SetTags())
}

func TestInstrument_PropagatesDelegatedError(t *testing.T) {
	callErr := context.DeadlineExceeded
	stubPerform(t, nil, callErr)
	tracer := mock.NewTracer()
	require.NoError(t, Instrument(WithTracer(tracer)))

	_, err := newClient(t).Request(context.Background(), "GET", httpclient.MustParseURI("http://localhost"), nil)
	assert.ErrorIs(t, err, callErr)
	assert.Equal(t, callErr, err, "delegated error must not be wrapped")
	assert.True(t, tracer.Spans()[0].Closed())
}

func TestInstrument_MissingClientIsSilentNoop(t *testing.T) {
	stubPerform(t, okResult(), nil)
	before := reflect.ValueOf(httpclient.PerformMethod()).Pointer()

	err := Instrument(WithTracer(mock.NewTracer()), WithLocator(func() (string, bool) { return "", false }))

	require.NoError(t, err)
	assert.False(t, Installed())
	assert.Equal(t, before, reflect.ValueOf(httpclient.PerformMethod()).Pointer())
}

func TestInstrument_IncompatibleVersion(t *testing.T) {
	stubPerform(t, okResult(), nil)
	before := reflect.ValueOf(httpclient.PerformMethod()).Pointer()

	tests := []string{"0.0.9", "v0.0.1", "not-a-version"}
	for _, version := range tests {
		t.Run(version, func(t *testing.T) {
			err := Instrument(WithLocator(func() (string, bool) { return version, true }))

			var versionErr *httptraceerrors.IncompatibleVersionError
			require.True(t, errors.As(err, &versionErr))
			assert.Equal(t, version, versionErr.Version)
			assert.Equal(t, MinimumClientVersion, versionErr.Minimum)
			assert.False(t, Installed())
			assert.Equal(t, before, reflect.ValueOf(httpclient.PerformMethod()).Pointer())
		})
	}
}

func TestInstrument_CompatibleVersions(t *testing.T) {
	stubPerform(t, okResult(), nil)

	for _, version := range []string{"0.1.0", "v0.1.0", "1.2.0", "2.0.0-rc.1"} {
		require.NoError(t, Instrument(WithLocator(func() (string, bool) { return version, true })), version)
		assert.True(t, Installed())
		Remove()
	}
}

func TestInstrument_CompiledClientIsCompatible(t *testing.T) {
	assert.NoError(t, checkVersion(httpclient.Version))
}

func TestRemove_RoundTrip(t *testing.T) {
	stubPerform(t, okResult(), nil)
	original := reflect.ValueOf(httpclient.PerformMethod()).Pointer()

	for i := 0; i < 2; i++ {
		require.NoError(t, Instrument(WithTracer(mock.NewTracer())))
		require.NoError(t, Instrument(WithTracer(mock.NewTracer())))
		Remove()
		assert.Equal(t, original, reflect.ValueOf(httpclient.PerformMethod()).Pointer())
		assert.False(t, Installed())
	}

	Remove()
	assert.Equal(t, original, reflect.ValueOf(httpclient.PerformMethod()).Pointer())
}

func TestInstrument_HeaderReachesTheWire(t *testing.T) {
	var onWire string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		onWire = r.Header.Get(mock.HeaderTraceID)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	t.Cleanup(Remove)

	tracer := mock.NewTracer()
	require.NoError(t, Instrument(WithTracer(tracer)))

	resp, err := newClient(t).Request(context.Background(), "GET", httpclient.MustParseURI(server.URL), &httpclient.Options{ErrorStatus: true})
	require.NoError(t, err)
	assert.IsType(t, &httpclient.StatusError{}, resp)

	span := tracer.Spans()[0]
	assert.Equal(t, span.ID(), onWire)
	assert.Equal(t, observability.Tags{
		{Key: "http.status_code", Value: 500},
		{Key: "error", Value: true},
	}, span.SetTags())
}

func TestBothInterceptorsInstalled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tracer := mock.NewTracer()
	request.Instrument(request.WithTracer(tracer))
	t.Cleanup(request.Remove)
	require.NoError(t, Instrument(WithTracer(tracer)))
	t.Cleanup(Remove)

	_, err := newClient(t).Request(context.Background(), "GET", httpclient.MustParseURI(server.URL), nil)
	require.NoError(t, err)

	spans := tracer.Spans()
	require.Len(t, spans, 2)
	component0, _ := spans[0].StartTags.Get("component")
	component1, _ := spans[1].StartTags.Get("component")
	assert.Equal(t, request.Component, component0)
	assert.Equal(t, Component, component1)
}
