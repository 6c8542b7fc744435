package httpclient

import (
	"fmt"
	"io"
	"net/http"
)

// Options carries per-call settings for Request and Perform.
type Options struct {
	// Headers are sent with the request. Request copies them onto the
	// built *Request.
	Headers http.Header

	// Body is the request payload.
	Body io.Reader

	// ErrorStatus returns responses with status >= 400 as *StatusError
	// values instead of *Result.
	ErrorStatus bool
}

// Request is an already-built request ready for Perform.
type Request struct {
	Verb    string
	URI     URI
	Headers http.Header
	Body    io.Reader
}

// NewRequest builds a request from verb, uri and the headers and body in
// opts. The request gets its own copy of the headers.
func NewRequest(verb string, uri URI, opts *Options) *Request {
	req := &Request{
		Verb:    verb,
		URI:     uri,
		Headers: make(http.Header),
	}
	if opts != nil {
		if opts.Headers != nil {
			req.Headers = opts.Headers.Clone()
		}
		req.Body = opts.Body
	}
	return req
}

// Response is the result of an executed request.
type Response interface {
	Status() int
}

// Result is a completed HTTP exchange.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Sent holds the request headers as they went on the wire, including
	// any injected by interceptors or the transport.
	Sent http.Header
}

// Status implements Response.
func (r *Result) Status() int {
	return r.StatusCode
}

// StatusError is an error-valued Response. It is returned in place of a
// *Result, with a nil error, when Options.ErrorStatus is set and the server
// answered with a client or server error status.
type StatusError struct {
	Result *Result
}

// Status implements Response.
func (e *StatusError) Status() int {
	return e.Result.StatusCode
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d %s", e.Result.StatusCode, http.StatusText(e.Result.StatusCode))
}
