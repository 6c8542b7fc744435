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


// Package timeline renders a trace's HTTP client spans as an ASCII waterfall.
package timeline

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/tombee/httptrace/pkg/observability"
)

const (
	// MinWidth is the narrowest supported output width
	MinWidth = 80
	// DefaultWidth is used when the output is not a terminal
	DefaultWidth = 100

	StatusIconOK    = "✓"
	StatusIconError = "✗"

	labelWidth = 28
)

// Row is one span positioned on the timeline.
type Row struct {
	Label     string
	StartTime time.Time
	Duration  time.Duration
	Status    int
	Failed    bool
	Level     int
}

// Renderer renders ASCII timelines from journal spans.
type Renderer struct {
	Width    int
	BarWidth int
}

// NewRenderer creates a renderer for the given width.
func NewRenderer(width int) (*Renderer, error) {
	if width < MinWidth {
		return nil, fmt.Errorf("width %d is too narrow (minimum %d columns)", width, MinWidth)
	}
	// "│ label bar  duration  status icon │"
	barWidth := width - labelWidth - 22
	if barWidth > 80 {
		barWidth = 80
	}
	return &Renderer{Width: width, BarWidth: barWidth}, nil
}

// WidthOf returns the terminal width of w, or DefaultWidth.
func WidthOf(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return DefaultWidth
}

// Render draws the spans of one trace. Children are indented under their
// parent; spans whose parent is not in the set are drawn as roots.
func (r *Renderer) Render(traceID string, spans []observability.SpanRecord) (string, error) {
	rows := Rows(spans)
	if len(rows) == 0 {
		return "", fmt.Errorf("no spans to render")
	}

	start, end := rows[0].StartTime, rows[0].StartTime.Add(rows[0].Duration)
	for _, row := range rows {
		if row.StartTime.Before(start) {
			start = row.StartTime
		}
		if e := row.StartTime.Add(row.Duration); e.After(end) {
			end = e
		}
	}
	total := end.Sub(start)

	var sb strings.Builder
	inner := r.Width - 2
	border := strings.Repeat("─", inner)
	sb.WriteString("┌" + border + "┐\n")
	title := fmt.Sprintf(" Trace: %s  Total: %s", traceID, formatDuration(total))
	sb.WriteString("│" + pad(title, inner) + "│\n")
	sb.WriteString("├" + border + "┤\n")
	for _, row := range rows {
		sb.WriteString(r.renderRow(row, start, total, inner))
	}
	sb.WriteString("└" + border + "┘\n")

	return sb.String(), nil
}

// Rows orders spans depth-first by start time.
func Rows(spans []observability.SpanRecord) []Row {
	ids := make(map[string]bool, len(spans))
	for _, s := range spans {
		ids[s.SpanID] = true
	}

	children := make(map[string][]*observability.SpanRecord)
	var roots []*observability.SpanRecord
	for i := range spans {
		s := &spans[i]
		if s.ParentID != "" && ids[s.ParentID] {
			children[s.ParentID] = append(children[s.ParentID], s)
		} else {
			roots = append(roots, s)
		}
	}

	byStart := func(list []*observability.SpanRecord) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].StartTime.Before(list[j].StartTime) })
	}
	byStart(roots)

	var rows []Row
	var walk func(s *observability.SpanRecord, level int)
	walk = func(s *observability.SpanRecord, level int) {
		rows = append(rows, toRow(s, level))
		kids := children[s.SpanID]
		byStart(kids)
		for _, c := range kids {
			walk(c, level+1)
		}
	}
	for _, s := range roots {
		walk(s, 0)
	}
	return rows
}

func toRow(s *observability.SpanRecord, level int) Row {
	component, _ := s.Attributes[observability.TagComponent].(string)
	method, _ := s.Attributes[observability.TagHTTPMethod].(string)

	label := s.Name
	if component != "" {
		label = component
	}
	if method != "" {
		label += " " + method
	}

	row := Row{
		Label:     label,
		StartTime: s.StartTime,
		Duration:  s.Duration(),
		Failed:    s.Failed(),
		Level:     level,
	}
	if v, ok := s.Attributes[observability.TagHTTPStatusCode].(float64); ok {
		row.Status = int(v)
	}
	return row
}

func (r *Renderer) renderRow(row Row, start time.Time, total time.Duration, inner int) string {
	startPos, barLength := 0, r.BarWidth
	if total > 0 {
		startPos = int(float64(row.StartTime.Sub(start)) / float64(total) * float64(r.BarWidth))
		barLength = int(float64(row.Duration) / float64(total) * float64(r.BarWidth))
	}
	if startPos >= r.BarWidth {
		startPos = r.BarWidth - 1
	}
	if barLength < 1 {
		barLength = 1
	}
	if startPos+barLength > r.BarWidth {
		barLength = r.BarWidth - startPos
	}
	bar := strings.Repeat("░", startPos) + strings.Repeat("█", barLength) + strings.Repeat("░", r.BarWidth-startPos-barLength)

	prefix := strings.Repeat("  ", row.Level)
	if row.Level > 0 {
		prefix = strings.Repeat("  ", row.Level-1) + "└─ "
	}

	status := "-"
	if row.Status > 0 {
		status = fmt.Sprintf("%d", row.Status)
	}
	icon := StatusIconOK
	if row.Failed {
		icon = StatusIconError
	}

	line := fmt.Sprintf(" %s %s %7s %4s %s",
		pad(truncate(prefix+row.Label, labelWidth), labelWidth),
		bar, formatDuration(row.Duration), status, icon)
	return "│" + pad(line, inner) + "│\n"
}

// pad right-pads s with spaces to width runes, truncating when longer.
func pad(s string, width int) string {
	n := len([]rune(s))
	if n > width {
		return string([]rune(s)[:width])
	}
	return s + strings.Repeat(" ", width-n)
}

// truncate shortens s to maxLen runes with an ellipsis.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}
