package httpclient

import (
	"context"
	"sync"
)

// RequestFunc implements Client.Request.
type RequestFunc func(c *Client, ctx context.Context, verb string, uri URI, opts *Options) (Response, error)

// PerformFunc implements Client.Perform.
type PerformFunc func(c *Client, ctx context.Context, req *Request, opts *Options) (Response, error)

// methods is the process-wide method table shared by every Client. The
// defaults are bound in init: DefaultRequest reaches the table through
// Client.Perform.
var methods struct {
	mu      sync.RWMutex
	request RequestFunc
	perform PerformFunc
}

func init() {
	methods.request = DefaultRequest
	methods.perform = DefaultPerform
}

// RequestMethod returns the implementation currently bound to Client.Request.
func RequestMethod() RequestFunc {
	methods.mu.RLock()
	defer methods.mu.RUnlock()
	return methods.request
}

// SetRequestMethod binds fn to Client.Request. A nil fn binds DefaultRequest.
func SetRequestMethod(fn RequestFunc) {
	if fn == nil {
		fn = DefaultRequest
	}
	methods.mu.Lock()
	defer methods.mu.Unlock()
	methods.request = fn
}

// PerformMethod returns the implementation currently bound to Client.Perform.
func PerformMethod() PerformFunc {
	methods.mu.RLock()
	defer methods.mu.RUnlock()
	return methods.perform
}

// SetPerformMethod binds fn to Client.Perform. A nil fn binds DefaultPerform.
func SetPerformMethod(fn PerformFunc) {
	if fn == nil {
		fn = DefaultPerform
	}
	methods.mu.Lock()
	defer methods.mu.Unlock()
	methods.perform = fn
}
