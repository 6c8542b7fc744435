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
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/httptrace/internal/testing/mock"
	"github.com/tombee/httptrace/pkg/httpclient"
	"github.com/tombee/httptrace/pkg/observability"
)

func TestTrace_InjectsBeforeCall(t *testing.T) {
	tracer := mock.NewTracer()
	carrier := http.Header{}

	var seenAtCall string
	res, err := Trace(context.Background(), tracer, observability.Tags{{Key: "component", Value: "test"}}, carrier,
		func(ctx context.Context) (httpclient.Response, error) {
			seenAtCall = carrier.Get(mock.HeaderTraceID)
			return &httpclient.Result{StatusCode: http.StatusOK}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status())

	spans := tracer.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, spans[0].ID(), seenAtCall)
	assert.Equal(t, "http.request", spans[0].Operation)
	assert.Equal(t, observability.Tags{{Key: "http.status_code", Value: 200}}, spans[0].SetTags())
	assert.Equal(t, 1, spans[0].CloseCount())
}

func TestTrace_ErrorShapedResponse(t *testing.T) {
	tracer := mock.NewTracer()
	errResult := &httpclient.StatusError{Result: &httpclient.Result{StatusCode: 500}}

	res, err := Trace(context.Background(), tracer, nil, http.Header{},
		func(ctx context.Context) (httpclient.Response, error) { return errResult, nil })

	require.NoError(t, err)
	assert.Same(t, errResult, res)
	assert.Equal(t, observability.Tags{
		{Key: "http.status_code", Value: 500},
		{Key: "error", Value: true},
	}, tracer.Spans()[0].SetTags())
}

func TestTrace_ReturnedErrorPassesThrough(t *testing.T) {
	tracer := mock.NewTracer()
	callErr := errors.New("connection refused")

	res, err := Trace(context.Background(), tracer, nil, http.Header{},
		func(ctx context.Context) (httpclient.Response, error) { return nil, callErr })

	assert.Nil(t, res)
	assert.Same(t, callErr, err)
	span := tracer.Spans()[0]
	assert.Empty(t, span.SetTags())
	assert.True(t, span.Closed())
}

func TestTrace_TypedNilResponse(t *testing.T) {
	tracer := mock.NewTracer()

	_, err := Trace(context.Background(), tracer, nil, http.Header{},
		func(ctx context.Context) (httpclient.Response, error) { return (*httpclient.Result)(nil), nil })

	require.NoError(t, err)
	assert.Empty(t, tracer.Spans()[0].SetTags())
}

func TestTrace_PanicStillClosesScope(t *testing.T) {
	tracer := mock.NewTracer()

	assert.Panics(t, func() {
		Trace(context.Background(), tracer, nil, http.Header{},
			func(ctx context.Context) (httpclient.Response, error) { panic("boom") })
	})
	assert.True(t, tracer.Spans()[0].Closed())
}

func TestTrace_InjectFailureDoesNotBlockCall(t *testing.T) {
	tracer := mock.NewTracer()
	tracer.InjectErr = errors.New("no propagator")
	called := false

	_, err := Trace(context.Background(), tracer, nil, http.Header{},
		func(ctx context.Context) (httpclient.Response, error) {
			called = true
			return &httpclient.Result{StatusCode: 204}, nil
		})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestIsErrorResponse(t *testing.T) {
	assert.False(t, IsErrorResponse(&httpclient.Result{StatusCode: 500}))
	assert.True(t, IsErrorResponse(&httpclient.StatusError{Result: &httpclient.Result{StatusCode: 500}}))
}
