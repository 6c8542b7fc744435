package httpclient

import (
	"net/url"
	"slices"
	"strings"
)

const redacted = "[REDACTED]"

var defaultRedactParams = []string{
	"api_key",
	"apikey",
	"auth",
	"credential",
	"key",
	"password",
	"secret",
	"signature",
	"token",
}

// redactor masks credentials in URLs before they reach the log.
type redactor struct {
	params []string
}

func newRedactor(extra []string) redactor {
	params := slices.Clone(defaultRedactParams)
	for _, p := range extra {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" && !slices.Contains(params, p) {
			params = append(params, p)
		}
	}
	return redactor{params: params}
}

// URL renders u with its password and sensitive query values masked.
func (r redactor) URL(u *url.URL) string {
	if u == nil {
		return ""
	}

	safe := *u
	if _, ok := u.User.Password(); ok {
		safe.User = url.UserPassword(u.User.Username(), redacted)
	}

	if u.RawQuery != "" {
		q := u.Query()
		for name := range q {
			if r.sensitive(name) {
				q.Set(name, redacted)
			}
		}
		safe.RawQuery = q.Encode()
	}
	return safe.String()
}

func (r redactor) sensitive(name string) bool {
	lower := strings.ToLower(name)
	return slices.ContainsFunc(r.params, func(p string) bool {
		return strings.Contains(lower, p)
	})
}
