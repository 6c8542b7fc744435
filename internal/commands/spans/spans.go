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


// Package spans implements "httptrace spans", which lists spans recorded
// by the journal exporter.
package spans

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/httptrace/internal/cli/timeline"
	"github.com/tombee/httptrace/internal/commands/shared"
	"github.com/tombee/httptrace/internal/tracing/journal"
	"github.com/tombee/httptrace/pkg/observability"
)

// SpanInfo is the JSON form of a journal entry.
type SpanInfo struct {
	TraceID    string         `json:"trace_id"`
	SpanID     string         `json:"span_id"`
	ParentID   string         `json:"parent_id,omitempty"`
	Name       string         `json:"name"`
	Component  string         `json:"component,omitempty"`
	Method     string         `json:"method,omitempty"`
	URL        string         `json:"url,omitempty"`
	Status     int            `json:"status,omitempty"`
	Failed     bool           `json:"failed"`
	StartTime  time.Time      `json:"start_time"`
	DurationMs float64        `json:"duration_ms"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type listOutput struct {
	shared.JSONResponse
	Journal string     `json:"journal"`
	Spans   []SpanInfo `json:"spans"`
}

// NewCommand creates the spans command.
func NewCommand() *cobra.Command {
	var (
		path      string
		traceID   string
		failed    bool
		limit     int
		since     time.Duration
		waterfall bool
	)

	cmd := &cobra.Command{
		Use:   "spans",
		Short: "List spans recorded in the span journal",
		Long: `List spans written by the journal exporter, newest first.

Examples:
  httptrace spans
  httptrace spans --failed --since 1h
  httptrace spans --trace 4bf92f3577b34da6a3ce929d0e0e4736 --json
  httptrace spans --trace 4bf92f3577b34da6a3ce929d0e0e4736 --timeline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if waterfall && traceID == "" {
				return shared.NewConfigError("--timeline requires --trace", nil)
			}

			cfg, _, err := shared.LoadConfig()
			if err != nil {
				return err
			}
			if path == "" {
				if path, err = cfg.JournalPath(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err != nil {
				return shared.NewConfigError(fmt.Sprintf("no span journal at %s", path), err)
			}

			j, err := journal.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer j.Shutdown(cmd.Context())

			filter := journal.Filter{TraceID: traceID, FailedOnly: failed, Limit: limit}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			records, err := j.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			infos := make([]SpanInfo, 0, len(records))
			for i := range records {
				infos = append(infos, toInfo(&records[i]))
			}

			if shared.GetJSON() {
				return shared.EmitJSON(out, listOutput{
					JSONResponse: shared.NewJSONResponse("spans", true),
					Journal:      path,
					Spans:        infos,
				})
			}

			if len(infos) == 0 {
				fmt.Fprintln(out, "No spans recorded.")
				return nil
			}

			if waterfall {
				r, err := timeline.NewRenderer(max(timeline.WidthOf(out), timeline.MinWidth))
				if err != nil {
					return err
				}
				rendered, err := r.Render(traceID, records)
				if err != nil {
					return err
				}
				fmt.Fprint(out, rendered)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TRACE\tSPAN\tCOMPONENT\tMETHOD\tURL\tSTATUS\tDURATION\tSTARTED")
			for _, s := range infos {
				status := "-"
				if s.Status > 0 {
					status = fmt.Sprintf("%d", s.Status)
				}
				if s.Failed {
					status += "!"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.1fms\t%s\n",
					short(s.TraceID), s.SpanID, dash(s.Component), dash(s.Method), dash(s.URL),
					status, s.DurationMs, s.StartTime.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&path, "journal", "", "Span journal path (default from config)")
	cmd.Flags().StringVar(&traceID, "trace", "", "Only show spans of this trace")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only show failed spans")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of spans")
	cmd.Flags().DurationVar(&since, "since", 0, "Only show spans started within this duration")
	cmd.Flags().BoolVar(&waterfall, "timeline", false, "Draw the trace given by --trace as a timeline")

	return cmd
}

func toInfo(r *observability.SpanRecord) SpanInfo {
	info := SpanInfo{
		TraceID:    r.TraceID,
		SpanID:     r.SpanID,
		ParentID:   r.ParentID,
		Name:       r.Name,
		Failed:     r.Failed(),
		StartTime:  r.StartTime,
		DurationMs: float64(r.Duration().Microseconds()) / 1000,
		Attributes: r.Attributes,
	}
	info.Component, _ = r.Attributes[observability.TagComponent].(string)
	info.Method, _ = r.Attributes[observability.TagHTTPMethod].(string)
	info.URL, _ = r.Attributes[observability.TagHTTPURL].(string)
	switch v := r.Attributes[observability.TagHTTPStatusCode].(type) {
	case float64:
		info.Status = int(v)
	case int64:
		info.Status = int(v)
	case int:
		info.Status = v
	}
	return info
}

func short(traceID string) string {
	if len(traceID) > 16 {
		return traceID[:16]
	}
	return traceID
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
