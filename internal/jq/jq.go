// Package jq applies jq filters to JSON response bodies.
package jq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itchyny/gojq"
)

const (
	// DefaultTimeout bounds one filter run.
	DefaultTimeout = time.Second
	// DefaultMaxInputSize bounds the body a filter may read (10MB).
	DefaultMaxInputSize = 10 * 1024 * 1024
)

// Filter is a compiled jq expression.
type Filter struct {
	expression   string
	code         *gojq.Code
	timeout      time.Duration
	maxInputSize int
}

// Compile parses and compiles expression.
func Compile(expression string) (*Filter, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed: %w", err)
	}
	return &Filter{
		expression:   expression,
		code:         code,
		timeout:      DefaultTimeout,
		maxInputSize: DefaultMaxInputSize,
	}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expression }

// Run decodes body as JSON and returns every value the filter emits.
func (f *Filter) Run(ctx context.Context, body []byte) ([]any, error) {
	if len(body) > f.maxInputSize {
		return nil, fmt.Errorf("body size (%d bytes) exceeds maximum (%d bytes)", len(body), f.maxInputSize)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var input any
	if err := dec.Decode(&input); err != nil {
		return nil, fmt.Errorf("body is not JSON: %w", err)
	}
	input = normalize(input)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var results []any
	iter := f.code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				break
			}
			if ctx.Err() != nil {
				return nil, fmt.Errorf("jq execution timeout after %v", f.timeout)
			}
			return nil, err
		}
		results = append(results, v)
	}
	return results, nil
}

// Format renders results one JSON value per line, like jq's default output.
// With raw set, string results are written without quotes.
func Format(results []any, raw bool) (string, error) {
	var sb strings.Builder
	for _, v := range results {
		if s, ok := v.(string); ok && raw {
			sb.WriteString(s)
			sb.WriteByte('\n')
			continue
		}
		b, err := gojq.Marshal(v)
		if err != nil {
			return "", err
		}
		sb.Write(b)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// normalize converts json.Number values into the int and float64 values
// gojq operates on.
func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
	}
	return v
}
