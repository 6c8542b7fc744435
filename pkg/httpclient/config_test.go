package httpclient

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_IsUsable(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
	if want := "httptrace/" + Version; cfg.UserAgent != want {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, want)
	}
	if cfg.Transport != nil {
		t.Error("default config should leave the transport to New")
	}
}

func TestConfig_Validate(t *testing.T) {
	cases := map[string]struct {
		mutate  func(*Config)
		wantErr string
	}{
		"defaults":        {mutate: func(*Config) {}},
		"custom redacted": {mutate: func(c *Config) { c.RedactParams = []string{"session"} }},
		"custom transport": {mutate: func(c *Config) {
			c.Transport = http.DefaultTransport
		}},
		"zero timeout":     {mutate: func(c *Config) { c.Timeout = 0 }, wantErr: "timeout must be > 0"},
		"negative timeout": {mutate: func(c *Config) { c.Timeout = -time.Millisecond }, wantErr: "timeout must be > 0"},
		"no user agent":    {mutate: func(c *Config) { c.UserAgent = "" }, wantErr: "user_agent is required"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tc.wantErr)
			}
		})
	}
}
