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

// Package ignore compiles user-supplied rules into the ignore predicates
// accepted by the request and perform interceptors.
//
// A call is ignored when any rule matches:
//   - hosts: exact names, "*.example.com" globs, or CIDR ranges for IP hosts
//   - paths: doublestar globs such as "/health" or "/internal/**"
//   - expr: a boolean expression over method, host, path, port, url and header
package ignore

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tombee/httptrace/pkg/errors"
	"github.com/tombee/httptrace/pkg/httpclient"
	"github.com/tombee/httptrace/pkg/interceptor"
	"github.com/tombee/httptrace/pkg/interceptor/perform"
	"github.com/tombee/httptrace/pkg/interceptor/request"
)

// Rules is the configuration form of an ignore matcher.
type Rules struct {
	Hosts []string `yaml:"hosts"`
	Paths []string `yaml:"paths"`
	Expr  string   `yaml:"expr"`
}

// Empty reports whether r has no rules.
func (r Rules) Empty() bool {
	return len(r.Hosts) == 0 && len(r.Paths) == 0 && strings.TrimSpace(r.Expr) == ""
}

// Env is the environment an ignore expression is evaluated against.
type Env struct {
	Method string            `expr:"method"`
	Host   string            `expr:"host"`
	Path   string            `expr:"path"`
	Port   int               `expr:"port"`
	URL    string            `expr:"url"`
	Header map[string]string `expr:"header"`
}

// Matcher evaluates compiled rules. The zero value matches nothing.
type Matcher struct {
	hosts   []string
	nets    []*net.IPNet
	paths   []string
	program *vm.Program
}

// Compile validates r and returns a Matcher.
func Compile(r Rules) (*Matcher, error) {
	m := &Matcher{}

	for _, h := range r.Hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if strings.Contains(h, "/") {
			_, ipNet, err := net.ParseCIDR(h)
			if err != nil {
				return nil, &errors.ValidationError{Field: "ignore.hosts", Message: fmt.Sprintf("invalid CIDR %q: %v", h, err)}
			}
			m.nets = append(m.nets, ipNet)
			continue
		}
		if !doublestar.ValidatePattern(h) {
			return nil, &errors.ValidationError{Field: "ignore.hosts", Message: fmt.Sprintf("invalid host pattern %q", h)}
		}
		m.hosts = append(m.hosts, h)
	}

	for _, p := range r.Paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, &errors.ValidationError{Field: "ignore.paths", Message: fmt.Sprintf("invalid path pattern %q", p)}
		}
		m.paths = append(m.paths, p)
	}

	if src := strings.TrimSpace(r.Expr); src != "" {
		program, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, &errors.ValidationError{Field: "ignore.expr", Message: fmt.Sprintf("failed to compile expression: %v", err)}
		}
		m.program = program
	}

	return m, nil
}

// Match reports whether a call described by env should be ignored.
// Expression evaluation errors count as no match.
func (m *Matcher) Match(env Env) bool {
	if m == nil {
		return false
	}
	if m.matchHost(strings.ToLower(env.Host)) {
		return true
	}
	for _, p := range m.paths {
		if ok, _ := doublestar.Match(p, env.Path); ok {
			return true
		}
	}
	if m.program != nil {
		out, err := expr.Run(m.program, env)
		if err != nil {
			slog.Debug("ignore expression failed", "error", err)
			return false
		}
		ok, _ := out.(bool)
		return ok
	}
	return false
}

func (m *Matcher) matchHost(host string) bool {
	if host == "" {
		return false
	}
	for _, pattern := range m.hosts {
		if pattern == host {
			return true
		}
		// "*.example.com" should also cover nested subdomains.
		if strings.Contains(pattern, "*") {
			if ok, _ := doublestar.Match(strings.ReplaceAll(pattern, "*", "**"), host); ok {
				return true
			}
		}
	}
	if len(m.nets) > 0 {
		if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
			for _, n := range m.nets {
				if n.Contains(ip) {
					return true
				}
			}
		}
	}
	return false
}

// RequestPredicate adapts m to the request-level interceptor.
func (m *Matcher) RequestPredicate() request.IgnoreFunc {
	return func(verb string, uri httpclient.URI, opts *httpclient.Options) bool {
		var headers http.Header
		if opts != nil {
			headers = opts.Headers
		}
		return m.Match(newEnv(interceptor.ExtractURI(uri).WithMethod(verb), uri, headers))
	}
}

// PerformPredicate adapts m to the perform-level interceptor.
func (m *Matcher) PerformPredicate() perform.IgnoreFunc {
	return func(req *httpclient.Request, _ *httpclient.Options) bool {
		if req == nil {
			return false
		}
		return m.Match(newEnv(interceptor.ExtractURI(req.URI).WithMethod(req.Verb), req.URI, req.Headers))
	}
}

func newEnv(a interceptor.Attributes, uri httpclient.URI, headers http.Header) Env {
	env := Env{
		Method: strings.ToUpper(a.Method),
		Host:   a.Host,
		Path:   a.Path,
		Port:   a.Port,
		Header: make(map[string]string, len(headers)),
	}
	if uri != nil {
		if s, ok := uri.(fmt.Stringer); ok {
			env.URL = s.String()
		}
	}
	for k, v := range headers {
		if len(v) > 0 {
			env.Header[http.CanonicalHeaderKey(k)] = v[0]
		}
	}
	return env
}
