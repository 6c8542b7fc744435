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
	"log/slog"
	"net/http"
	"reflect"

	"github.com/tombee/httptrace/pkg/httpclient"
	"github.com/tombee/httptrace/pkg/observability"
)

// Trace runs call inside a span started on tracer with tags.
//
// The active trace context is injected into carrier before call runs. After
// call returns, the span is tagged with the response status, and with
// error=true when the response value is itself an error. A returned error is
// passed through untouched. The scope is closed on every exit path, including
// panics.
func Trace(
	ctx context.Context,
	tracer observability.Tracer,
	tags observability.Tags,
	carrier http.Header,
	call func(ctx context.Context) (httpclient.Response, error),
) (httpclient.Response, error) {
	ctx, scope := tracer.StartActiveSpan(ctx, observability.OperationHTTPRequest, tags)
	defer scope.Close()

	span := scope.Span()
	if err := tracer.Inject(span.Context(), observability.FormatHTTPHeaders, carrier); err != nil {
		slog.DebugContext(ctx, "trace context injection failed", "error", err)
	}

	res, err := call(ctx)
	if !isNilResponse(res) {
		span.SetTag(observability.TagHTTPStatusCode, res.Status())
		if IsErrorResponse(res) {
			span.SetTag(observability.TagError, true)
		}
	}

	return res, err
}

// IsErrorResponse reports whether a response value is error-shaped.
func IsErrorResponse(res httpclient.Response) bool {
	_, ok := res.(error)
	return ok
}

func isNilResponse(res httpclient.Response) bool {
	if res == nil {
		return true
	}
	v := reflect.ValueOf(res)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return v.IsNil()
	}
	return false
}
