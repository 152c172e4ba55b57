// Package headers defines HTTP header constants used by the augment client.
// This is the single source of truth for header names used in API requests/responses.
package headers

const (
	// Authorization carries the bearer session token on protected routes.
	Authorization = "Authorization"

	// RequestID is the header for request correlation.
	// The client sets a fresh value on every outbound request.
	RequestID = "X-Request-Id"

	// Traceparent carries W3C trace context when the caller's context holds a span.
	Traceparent = "Traceparent"

	// ContentDisposition names the attachment filename on binary responses.
	ContentDisposition = "Content-Disposition"
)
