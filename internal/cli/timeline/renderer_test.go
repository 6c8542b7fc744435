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


package timeline

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/tombee/httptrace/pkg/observability"
)

func span(id, parent, component string, start time.Time, d time.Duration, status float64, failed bool) observability.SpanRecord {
	attrs := map[string]any{
		observability.TagComponent:      component,
		observability.TagHTTPMethod:     "GET",
		observability.TagHTTPStatusCode: status,
	}
	if failed {
		attrs[observability.TagError] = true
	}
	return observability.SpanRecord{
		TraceID:    "trace1",
		SpanID:     id,
		ParentID:   parent,
		Name:       "http.request",
		Kind:       observability.SpanKindClient,
		StartTime:  start,
		EndTime:    start.Add(d),
		Attributes: attrs,
	}
}

func TestRenderer_Render(t *testing.T) {
	base := time.Unix(1700000000, 0)
	spans := []observability.SpanRecord{
		span("inner", "outer", "go-httpclient", base.Add(5*time.Millisecond), 80*time.Millisecond, 502, true),
		span("outer", "", "HTTP", base, 100*time.Millisecond, 502, true),
		span("second", "", "HTTP", base.Add(150*time.Millisecond), 50*time.Millisecond, 200, false),
	}

	r, err := NewRenderer(100)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	out, err := r.Render("trace1", spans)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{"Trace: trace1", "Total: 200ms", "HTTP GET", "└─ go-httpclient GET", "502", StatusIconError, StatusIconOK} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	for i, line := range lines {
		if n := utf8.RuneCountInString(line); n != 100 {
			t.Errorf("line %d has width %d, want 100: %q", i, n, line)
		}
	}

	// Header, title, separator, three rows, footer.
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[3], "HTTP GET") || strings.Contains(lines[3], "└─") {
		t.Errorf("expected outer span first, got %q", lines[3])
	}
	if !strings.Contains(lines[4], "go-httpclient") {
		t.Errorf("expected nested span second, got %q", lines[4])
	}
}

func TestRenderer_Errors(t *testing.T) {
	if _, err := NewRenderer(40); err == nil {
		t.Error("expected error for narrow width")
	}

	r, _ := NewRenderer(MinWidth)
	if _, err := r.Render("t", nil); err == nil {
		t.Error("expected error for empty span list")
	}
}

func TestRows_OrphanIsRoot(t *testing.T) {
	base := time.Unix(1700000000, 0)
	rows := Rows([]observability.SpanRecord{
		span("child", "missing-parent", "go-httpclient", base, time.Millisecond, 200, false),
	})
	if len(rows) != 1 || rows[0].Level != 0 {
		t.Fatalf("expected orphan rendered as root, got %+v", rows)
	}
	if rows[0].Status != 200 || rows[0].Failed {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		500 * time.Microsecond:  "500µs",
		42 * time.Millisecond:   "42ms",
		1500 * time.Millisecond: "1.5s",
		90 * time.Second:        "1.5m",
	}
	for d, want := range tests {
		if got := formatDuration(d); got != want {
			t.Errorf("formatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("go-httpclient GET", 10); got != "go-http..." {
		t.Errorf("unexpected truncation: %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("unexpected truncation: %q", got)
	}
}
