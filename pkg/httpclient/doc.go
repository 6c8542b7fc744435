// Package httpclient provides the outbound HTTP client whose execution entry
// points can be decorated by the tracing interceptors.
//
// A Client exposes two entry points:
//   - Request(ctx, verb, uri, opts): the high-level "send this verb to this
//     URI with these options" call
//   - Perform(ctx, req, opts): the lower-level "execute this already-built
//     request" call
//
// Request builds a *Request from its arguments and hands it to Perform, so a
// decorator installed at either level observes every call made through the
// client.
//
// # Method Table
//
// Both entry points dispatch through a process-wide method table. The table
// is the only re-bindable boundary of the client:
//
//	original := httpclient.RequestMethod()
//	httpclient.SetRequestMethod(func(c *httpclient.Client, ctx context.Context, verb string, uri httpclient.URI, opts *httpclient.Options) (httpclient.Response, error) {
//	    // observe, then delegate
//	    return original(c, ctx, verb, uri, opts)
//	})
//
// Callers of Client never change their code when the table is rebound.
//
// # URIs
//
// URI is deliberately minimal: only Host is required. Path and Port are
// optional capabilities (PathURI, PortURI) so that custom target values can be
// passed through the client. ParseURI returns a *URL that exposes all three.
//
// # Error-valued Results
//
// When Options.ErrorStatus is set and the server answers with a status of 400
// or above, the client returns a *StatusError as the Response value and a nil
// error. The call itself succeeded; the value describes a failed exchange.
//
// # Observability
//
// All requests emit structured logs via log/slog:
//   - Debug level: successful requests (status < 400)
//   - Warn level: failed requests (status >= 400, transport errors)
//   - Fields: method, url (sanitized), status, duration_ms, error
//   - Correlation IDs automatically propagated when present in request context
package httpclient
