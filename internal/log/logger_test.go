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

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantLevel  string
		wantFormat Format
		wantSource bool
	}{
		{
			name:      "debug flag wins",
			env:       map[string]string{"HTTPTRACE_DEBUG": "1", "HTTPTRACE_LOG_LEVEL": "error"},
			wantLevel: "debug", wantSource: true,
		},
		{
			name:      "httptrace level over generic",
			env:       map[string]string{"HTTPTRACE_LOG_LEVEL": "WARN", "LOG_LEVEL": "error"},
			wantLevel: "warn",
		},
		{
			name:      "generic level",
			env:       map[string]string{"LOG_LEVEL": "error"},
			wantLevel: "error",
		},
		{
			name:       "format and source",
			env:        map[string]string{"LOG_FORMAT": "TEXT", "LOG_SOURCE": "1"},
			wantLevel:  "info",
			wantFormat: FormatText,
			wantSource: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"HTTPTRACE_DEBUG", "HTTPTRACE_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := FromEnv()
			assert.Equal(t, tt.wantLevel, cfg.Level)
			assert.Equal(t, tt.wantSource, cfg.AddSource)
			if tt.wantFormat != "" {
				assert.Equal(t, tt.wantFormat, cfg.Format)
			}
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "debug", Format: FormatJSON, Output: &buf})

	WithComponent(logger, "HTTP").Debug("span started", DurationKey, 12)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "span started", entry["msg"])
	assert.Equal(t, "HTTP", entry[ComponentKey])
	assert.EqualValues(t, 12, entry[DurationKey])
}

func TestNew_TraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "trace", Format: FormatText, Output: &buf})

	logger.Log(context.Background(), LevelTrace, "tag", "key", "http.url")
	assert.Contains(t, buf.String(), "level=TRACE")

	buf.Reset()
	New(&Config{Level: "debug", Format: FormatText, Output: &buf}).Log(context.Background(), LevelTrace, "hidden")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("trace"))
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))

	assert.True(t, ValidLevel("Info"))
	assert.False(t, ValidLevel("verbose"))
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "debug", Format: FormatText, Output: &buf})

	h := Middleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "status=200")

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "level=WARN")
	assert.Contains(t, line, "status=404")
	assert.Contains(t, line, "path=/missing")
}
