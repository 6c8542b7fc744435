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

// Package journal persists finished spans to a local SQLite file so they can
// be inspected after the process exits.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tombee/httptrace/pkg/observability"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Journal is a SQLite-backed span exporter and reader.
type Journal struct {
	db *sql.DB
}

var _ sdktrace.SpanExporter = (*Journal)(nil)

// Open opens or creates the journal at path. ":memory:" is accepted for tests.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and avoids
	// writer contention.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS spans (
			trace_id   TEXT NOT NULL,
			span_id    TEXT NOT NULL,
			parent_id  TEXT,
			name       TEXT NOT NULL,
			kind       TEXT NOT NULL,
			start_time INTEGER NOT NULL,
			end_time   INTEGER NOT NULL,
			failed     INTEGER NOT NULL DEFAULT 0,
			attributes TEXT,
			PRIMARY KEY (trace_id, span_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_spans_start_time ON spans(start_time)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ExportSpans implements sdktrace.SpanExporter.
func (j *Journal) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin journal write: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO spans
		(trace_id, span_id, parent_id, name, kind, start_time, end_time, failed, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range spans {
		rec := Record(s)
		attrs, err := json.Marshal(rec.Attributes)
		if err != nil {
			return fmt.Errorf("failed to encode attributes for span %s: %w", rec.SpanID, err)
		}
		var parent any
		if rec.ParentID != "" {
			parent = rec.ParentID
		}
		if _, err := stmt.ExecContext(ctx,
			rec.TraceID, rec.SpanID, parent, rec.Name, string(rec.Kind),
			rec.StartTime.UnixNano(), rec.EndTime.UnixNano(), rec.Failed(), string(attrs),
		); err != nil {
			return fmt.Errorf("failed to store span %s: %w", rec.SpanID, err)
		}
	}
	return tx.Commit()
}

// Shutdown implements sdktrace.SpanExporter and closes the database.
func (j *Journal) Shutdown(context.Context) error {
	return j.db.Close()
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	TraceID    string
	FailedOnly bool
	Since      time.Time
	// Limit caps the number of rows (default: 100).
	Limit int
}

// List returns stored spans, newest first.
func (j *Journal) List(ctx context.Context, f Filter) ([]observability.SpanRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.TraceID != "" {
		where = append(where, "trace_id = ?")
		args = append(args, f.TraceID)
	}
	if f.FailedOnly {
		where = append(where, "failed = 1")
	}
	if !f.Since.IsZero() {
		where = append(where, "start_time >= ?")
		args = append(args, f.Since.UnixNano())
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT trace_id, span_id, COALESCE(parent_id, ''), name, kind, start_time, end_time, attributes FROM spans`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var out []observability.SpanRecord
	for rows.Next() {
		var (
			rec        observability.SpanRecord
			kind       string
			start, end int64
			attrs      sql.NullString
		)
		if err := rows.Scan(&rec.TraceID, &rec.SpanID, &rec.ParentID, &rec.Name, &kind, &start, &end, &attrs); err != nil {
			return nil, fmt.Errorf("failed to scan span: %w", err)
		}
		rec.Kind = observability.SpanKind(kind)
		rec.StartTime = time.Unix(0, start)
		rec.EndTime = time.Unix(0, end)
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &rec.Attributes); err != nil {
				return nil, fmt.Errorf("failed to decode attributes for span %s: %w", rec.SpanID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Record converts a finished SDK span to a SpanRecord.
func Record(s sdktrace.ReadOnlySpan) observability.SpanRecord {
	rec := observability.SpanRecord{
		TraceID:    s.SpanContext().TraceID().String(),
		SpanID:     s.SpanContext().SpanID().String(),
		Name:       s.Name(),
		Kind:       spanKind(s.SpanKind()),
		StartTime:  s.StartTime(),
		EndTime:    s.EndTime(),
		Attributes: make(map[string]any, len(s.Attributes())),
	}
	if s.Parent().IsValid() {
		rec.ParentID = s.Parent().SpanID().String()
	}
	for _, kv := range s.Attributes() {
		rec.Attributes[string(kv.Key)] = kv.Value.AsInterface()
	}
	return rec
}

func spanKind(k trace.SpanKind) observability.SpanKind {
	switch k {
	case trace.SpanKindClient:
		return observability.SpanKindClient
	case trace.SpanKindServer:
		return observability.SpanKindServer
	default:
		return observability.SpanKindInternal
	}
}
