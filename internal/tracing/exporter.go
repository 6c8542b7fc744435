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

package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tombee/httptrace/internal/tracing/export"
	"github.com/tombee/httptrace/internal/tracing/journal"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// CreateExporter creates a span exporter from configuration.
// A nil exporter with a nil error means the type is "none".
func CreateExporter(ctx context.Context, cfg ExporterConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Type {
	case ExporterConsole:
		return export.NewConsoleExporter(export.ConsoleConfig{PrettyPrint: cfg.Pretty})

	case ExporterOTLP, ExporterOTLPHTTP, "otlp_http":
		tlsConfig, err := export.BuildTLSConfig(export.TLSOptions{
			Enabled:    cfg.TLS.Enabled,
			SkipVerify: cfg.TLS.SkipVerify,
			CACertPath: cfg.TLS.CACertPath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config for %s exporter: %w", cfg.Type, err)
		}
		otlp := export.OTLPConfig{
			Endpoint:  cfg.Endpoint,
			Insecure:  !cfg.TLS.Enabled,
			TLSConfig: tlsConfig,
			Headers:   cfg.Headers,
		}
		if cfg.Type == ExporterOTLP {
			return export.NewOTLPExporter(ctx, otlp)
		}
		return export.NewOTLPHTTPExporter(ctx, otlp)

	case ExporterJournal:
		return journal.Open(ctx, cfg.Path)

	case ExporterNone, "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.Type)
	}
}

// CreateExportersFromConfig creates span processors for all configured
// exporters. Exporter creation failures are logged and skipped.
// Journal exporters are synchronous so spans are on disk once End returns.
func CreateExportersFromConfig(ctx context.Context, cfg Config) []sdktrace.SpanProcessor {
	var processors []sdktrace.SpanProcessor

	for i, exporterCfg := range cfg.Exporters {
		exporter, err := CreateExporter(ctx, exporterCfg)
		if err != nil {
			slog.Warn("failed to create exporter, skipping",
				"index", i,
				"type", exporterCfg.Type,
				"endpoint", exporterCfg.Endpoint,
				"error", err)
			continue
		}
		if exporter == nil {
			continue
		}

		if exporterCfg.Type == ExporterJournal {
			processors = append(processors, sdktrace.NewSimpleSpanProcessor(exporter))
		} else {
			var batchOpts []sdktrace.BatchSpanProcessorOption
			if cfg.BatchSize > 0 {
				batchOpts = append(batchOpts, sdktrace.WithMaxExportBatchSize(cfg.BatchSize))
			}
			if cfg.BatchInterval > 0 {
				batchOpts = append(batchOpts, sdktrace.WithBatchTimeout(cfg.BatchInterval))
			}
			processors = append(processors, sdktrace.NewBatchSpanProcessor(exporter, batchOpts...))
		}

		slog.Debug("created exporter",
			"type", exporterCfg.Type,
			"endpoint", exporterCfg.Endpoint)
	}

	return processors
}
