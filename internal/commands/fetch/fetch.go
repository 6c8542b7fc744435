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

// Package fetch implements "httptrace fetch", which performs traced HTTP
// requests through the instrumented client.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/tombee/httptrace/internal/cli/format"
	"github.com/tombee/httptrace/internal/commands/shared"
	"github.com/tombee/httptrace/internal/config"
	"github.com/tombee/httptrace/internal/jq"
	"github.com/tombee/httptrace/internal/log"
	"github.com/tombee/httptrace/internal/session"
	"github.com/tombee/httptrace/internal/tracing"
	"github.com/tombee/httptrace/pkg/httpclient"
	"github.com/tombee/httptrace/pkg/interceptor"
)

type flags struct {
	method      string
	headers     []string
	data        string
	level       string
	exporters   []string
	endpoint    string
	journal     string
	ignoreHosts []string
	ignorePaths []string
	ignoreExpr  string
	repeat      int
	rate        float64
	metricsAddr string
	errorStatus bool
	watch       bool
	timeout     time.Duration
	body        bool
	jq          string
	rawOutput   bool
}

// Result describes one completed request.
type Result struct {
	Sequence      int    `json:"sequence"`
	Status        int    `json:"status,omitempty"`
	Bytes         int    `json:"bytes"`
	DurationMs    int64  `json:"duration_ms"`
	CorrelationID string `json:"correlation_id"`
	Traceparent   string `json:"traceparent,omitempty"`
	Failed        bool   `json:"failed"`
	Error         string `json:"error,omitempty"`
	ContentType   string `json:"content_type,omitempty"`
	Body          string `json:"body,omitempty"`

	raw []byte
}

type jsonOutput struct {
	shared.JSONResponse
	URL     string   `json:"url"`
	Level   string   `json:"level"`
	Results []Result `json:"results"`
}

// NewCommand creates the fetch command.
func NewCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Perform traced HTTP requests",
		Long: `Send one or more requests through the instrumented HTTP client. Each call
is wrapped in an http.request span by the request-level interceptor, the
perform-level interceptor, or both, and the trace context is propagated to
the server in W3C traceparent headers.

Examples:
  httptrace fetch https://example.com/
  httptrace fetch -X POST -H 'Content-Type: application/json' -d '{}' https://api.example.com/items
  httptrace fetch --level both --exporter journal --repeat 10 --rate 2 https://example.com/
  httptrace fetch --repeat 0 --metrics-addr :9464 --ignore-path '/health' https://example.com/
  httptrace fetch --jq '.items[].id' https://api.example.com/items`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args[0])
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.method, "method", "X", http.MethodGet, "HTTP method")
	fl.StringArrayVarP(&f.headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	fl.StringVarP(&f.data, "data", "d", "", "Request body")
	fl.StringVar(&f.level, "level", "", "Interceptor level: request, perform or both (default from config)")
	fl.StringSliceVar(&f.exporters, "exporter", nil, "Span exporters: console, otlp, otlp-http, journal, none")
	fl.StringVar(&f.endpoint, "endpoint", "localhost:4317", "OTLP endpoint for the otlp and otlp-http exporters")
	fl.StringVar(&f.journal, "journal", "", "Span journal path for the journal exporter")
	fl.StringSliceVar(&f.ignoreHosts, "ignore-host", nil, "Host pattern to leave untraced (repeatable)")
	fl.StringSliceVar(&f.ignorePaths, "ignore-path", nil, "Path glob to leave untraced (repeatable)")
	fl.StringVar(&f.ignoreExpr, "ignore-expr", "", "Expression selecting calls to leave untraced")
	fl.IntVar(&f.repeat, "repeat", 1, "Number of requests to send; 0 repeats until interrupted")
	fl.Float64Var(&f.rate, "rate", 0, "Maximum requests per second; 0 is unlimited")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	fl.BoolVar(&f.errorStatus, "error-status", false, "Treat 4xx and 5xx responses as errors")
	fl.BoolVar(&f.watch, "watch", false, "Reload ignore rules and level when the config file changes")
	fl.DurationVar(&f.timeout, "timeout", 0, "Per-request timeout (default from config)")
	fl.BoolVar(&f.body, "body", false, "Print response bodies")
	fl.StringVar(&f.jq, "jq", "", "Print the result of a jq filter applied to JSON response bodies")
	fl.BoolVarP(&f.rawOutput, "raw-output", "r", false, "With --jq, print strings without quotes")

	return cmd
}

// apply overlays command-line flags onto cfg.
func (f *flags) apply(cfg *config.Config) error {
	if f.level != "" {
		cfg.Interceptor.Level = strings.ToLower(f.level)
	}
	if f.timeout > 0 {
		cfg.Client.Timeout = f.timeout
	}

	cfg.Ignore.Hosts = append(cfg.Ignore.Hosts, f.ignoreHosts...)
	cfg.Ignore.Paths = append(cfg.Ignore.Paths, f.ignorePaths...)
	if f.ignoreExpr != "" {
		if cfg.Ignore.Expr != "" {
			cfg.Ignore.Expr = "(" + cfg.Ignore.Expr + ") || (" + f.ignoreExpr + ")"
		} else {
			cfg.Ignore.Expr = f.ignoreExpr
		}
	}

	if len(f.exporters) > 0 {
		cfg.Tracing.Exporters = nil
		for _, name := range f.exporters {
			e := tracing.ExporterConfig{Type: strings.ToLower(strings.TrimSpace(name))}
			switch e.Type {
			case tracing.ExporterOTLP, tracing.ExporterOTLPHTTP:
				e.Endpoint = f.endpoint
			case tracing.ExporterConsole:
				e.Pretty = true
			case tracing.ExporterJournal:
				path := f.journal
				if path == "" {
					p, err := config.DefaultJournalPath()
					if err != nil {
						return err
					}
					path = p
				}
				e.Path = path
			}
			cfg.Tracing.Exporters = append(cfg.Tracing.Exporters, e)
		}
	}

	return cfg.Validate()
}

func parseHeaders(raw []string) (http.Header, error) {
	h := make(http.Header, len(raw))
	for _, line := range raw {
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", line)
		}
		h.Add(name, strings.TrimSpace(value))
	}
	return h, nil
}

func run(cmd *cobra.Command, f *flags, rawURL string) error {
	uri, err := httpclient.ParseURI(rawURL)
	if err != nil {
		return shared.NewConfigError("invalid url", err)
	}
	headers, err := parseHeaders(f.headers)
	if err != nil {
		return shared.NewConfigError("invalid --header", err)
	}
	if f.repeat < 0 {
		return shared.NewConfigError("--repeat must be >= 0", nil)
	}
	if f.rate < 0 {
		return shared.NewConfigError("--rate must be >= 0", nil)
	}
	var filter *jq.Filter
	if f.jq != "" {
		if filter, err = jq.Compile(f.jq); err != nil {
			return shared.NewConfigError("invalid --jq", err)
		}
	}

	cfg, cfgPath, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	if err := f.apply(cfg); err != nil {
		return shared.NewConfigError("invalid options", err)
	}
	if err := ensureJournalDirs(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := session.Start(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sess.Close(flushCtx); err != nil {
			slog.Warn("failed to flush spans", "error", err)
		}
	}()

	if f.watch {
		if cfgPath == "" {
			return shared.NewConfigError("--watch needs a config file", nil)
		}
		w, err := config.NewWatcher(config.WatcherConfig{
			Path: cfgPath,
			OnChange: func(next *config.Config) {
				if err := f.apply(next); err != nil {
					slog.Warn("ignoring config change", "error", err)
					return
				}
				if err := sess.Apply(next); err != nil {
					slog.Warn("failed to re-instrument", "error", err)
				}
			},
		})
		if err != nil {
			return err
		}
		defer w.Close()
	}

	if f.metricsAddr != "" {
		shutdown, err := serveMetrics(f.metricsAddr, sess.MetricsHandler())
		if err != nil {
			return err
		}
		defer shutdown()
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Client.Timeout,
		UserAgent:    userAgent(cfg),
		RedactParams: cfg.Client.RedactParams,
	})
	if err != nil {
		return shared.NewConfigError("invalid client config", err)
	}

	out := cmd.OutOrStdout()
	isTTY := format.IsTerminal(out)
	results := loop(ctx, client, f, uri, headers, func(r *Result) {
		switch {
		case filter != nil && r.raw != nil:
			r.Body = applyFilter(ctx, filter, r.raw, f.rawOutput)
		case f.body && r.raw != nil:
			if shared.GetJSON() {
				r.Body = string(r.raw)
			} else if rendered, err := format.Body(r.ContentType, r.raw, isTTY); err != nil {
				r.Body = err.Error()
			} else {
				r.Body = rendered
			}
		}
		if !shared.GetJSON() && !shared.GetQuiet() {
			printResult(out, *r, isTTY)
		}
	})

	if shared.GetJSON() {
		summary := jsonOutput{
			JSONResponse: shared.NewJSONResponse("fetch", countFailed(results) == 0),
			URL:          uri.String(),
			Level:        sess.Level(),
			Results:      results,
		}
		if err := shared.EmitJSON(out, summary); err != nil {
			return err
		}
	}

	if n := countFailed(results); n > 0 {
		return shared.NewHTTPError(fmt.Sprintf("%d of %d requests failed", n, len(results)))
	}
	return nil
}

func loop(ctx context.Context, client *httpclient.Client, f *flags, uri httpclient.URI, headers http.Header, emit func(*Result)) []Result {
	limit := rate.Inf
	if f.rate > 0 {
		limit = rate.Limit(f.rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	var results []Result
	for i := 1; f.repeat == 0 || i <= f.repeat; i++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		r := fetchOnce(ctx, client, f, uri, headers, i)
		emit(&r)
		r.raw = nil
		results = append(results, r)
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

func fetchOnce(ctx context.Context, client *httpclient.Client, f *flags, uri httpclient.URI, headers http.Header, seq int) Result {
	id := tracing.NewCorrelationID()
	ctx = tracing.ToContext(ctx, id)

	opts := &httpclient.Options{
		Headers:     headers.Clone(),
		ErrorStatus: f.errorStatus,
	}
	if f.data != "" {
		opts.Body = strings.NewReader(f.data)
	}

	start := time.Now()
	res, err := client.Request(ctx, strings.ToUpper(f.method), uri, opts)

	r := Result{
		Sequence:      seq,
		DurationMs:    time.Since(start).Milliseconds(),
		CorrelationID: id.String(),
		Traceparent:   opts.Headers.Get("traceparent"),
	}
	if err != nil {
		r.Failed = true
		r.Error = err.Error()
		return r
	}

	r.Status = res.Status()
	if interceptor.IsErrorResponse(res) {
		r.Failed = true
		r.Error = res.(error).Error()
	}
	var result *httpclient.Result
	switch v := res.(type) {
	case *httpclient.Result:
		result = v
	case *httpclient.StatusError:
		result = v.Result
	}
	if result != nil {
		if tp := result.Sent.Get("traceparent"); tp != "" {
			r.Traceparent = tp
		}
		r.Bytes = len(result.Body)
		r.ContentType = result.Header.Get("Content-Type")
		r.raw = result.Body
	}
	return r
}

func printResult(w io.Writer, r Result, isTTY bool) {
	status := format.Status(r.Status, isTTY)
	meta := fmt.Sprintf("(%dms) correlation=%s", r.DurationMs, r.CorrelationID)
	if r.Status == 0 {
		fmt.Fprintf(w, "#%d %s %s %s\n", r.Sequence, status, r.Error, format.Muted(meta, isTTY))
		return
	}
	if r.Traceparent != "" {
		meta += " traceparent=" + r.Traceparent
	}
	fmt.Fprintf(w, "#%d %s %d bytes %s\n", r.Sequence, status, r.Bytes, format.Muted(meta, isTTY))
	if r.Body != "" {
		fmt.Fprintln(w, strings.TrimRight(r.Body, "\n"))
	}
}

func applyFilter(ctx context.Context, filter *jq.Filter, body []byte, raw bool) string {
	results, err := filter.Run(ctx, body)
	if err != nil {
		return "jq: " + err.Error()
	}
	out, err := jq.Format(results, raw)
	if err != nil {
		return "jq: " + err.Error()
	}
	return out
}

func countFailed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Failed {
			n++
		}
	}
	return n
}

func userAgent(cfg *config.Config) string {
	if cfg.Client.UserAgent != "" {
		return cfg.Client.UserAgent
	}
	v, _, _ := shared.GetVersion()
	return "httptrace/" + v
}

func ensureJournalDirs(cfg *config.Config) error {
	for _, e := range cfg.Tracing.Exporters {
		if e.Type != tracing.ExporterJournal || e.Path == ":memory:" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(e.Path), 0o700); err != nil {
			return fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	return nil
}

func serveMetrics(addr string, metrics http.Handler) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", log.Middleware(slog.Default(), metrics))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	slog.Info("serving metrics", "addr", ln.Addr().String(), "path", "/metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
