package augment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/augmentlab/augment-go/headers"
)

// ErrBusy is returned when a control already has a request in flight.
var ErrBusy = errors.New("augment: request already in flight")

// APIError carries a non-2xx response from the service.
// Message is the server-supplied text and may be empty.
type APIError struct {
	Status    int
	Message   string
	RequestID string
	Body      string
}

// Error implements the error interface.
func (e APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("augment: http %d: %s", e.Status, msg)
}

// TransportErrorKind classifies failures that never produced an HTTP response.
type TransportErrorKind string

const (
	TransportErrorTimeout       TransportErrorKind = "timeout"
	TransportErrorCanceled      TransportErrorKind = "canceled"
	TransportErrorConnect       TransportErrorKind = "connect"
	TransportErrorEmptyResponse TransportErrorKind = "empty_response"
	TransportErrorOther         TransportErrorKind = "other"
)

// TransportError wraps network failures; no server message is available.
type TransportError struct {
	Kind    TransportErrorKind
	Message string
	Cause   error
}

func (e TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("augment: %s (%s): %v", e.Message, e.Kind, e.Cause)
	}
	return fmt.Sprintf("augment: %s (%s)", e.Message, e.Kind)
}

func (e TransportError) Unwrap() error { return e.Cause }

// ConfigError reports an invalid client configuration.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string { return "augment: invalid config: " + e.Reason }

// ValidationError is a local validation failure. It is raised before any
// network call and its Message is meant to be shown to the user as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string { return e.Message }

func classifyTransportErrorKind(err error) TransportErrorKind {
	switch {
	case errors.Is(err, context.Canceled):
		return TransportErrorCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return TransportErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportErrorTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return TransportErrorConnect
	}
	return TransportErrorOther
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := APIError{
		Status:    resp.StatusCode,
		RequestID: resp.Header.Get(headers.RequestID),
		Body:      strings.TrimSpace(string(data)),
	}
	if len(data) == 0 {
		return apiErr
	}
	// The service reports failures as {"error": ...}; one route spells it
	// "Error" and the token layer uses {"msg": ...}.
	var payload struct {
		Error      string `json:"error"`
		ErrorUpper string `json:"Error"`
		Msg        string `json:"msg"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return apiErr
	}
	switch {
	case payload.Error != "":
		apiErr.Message = payload.Error
	case payload.ErrorUpper != "":
		apiErr.Message = payload.ErrorUpper
	default:
		apiErr.Message = payload.Msg
	}
	return apiErr
}

// ErrorMessage returns the text to show the user for err: the local
// validation message, the server-supplied message, or fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var verr ValidationError
	if errors.As(err, &verr) && verr.Message != "" {
		return verr.Message
	}
	var apiErr APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsUnverifiedEmail reports whether a login failure means the account's
// email address still has to be confirmed with an OTP.
func IsUnverifiedEmail(err error) bool {
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return MessageIndicatesUnverified(apiErr.Message)
}

// MessageIndicatesUnverified applies the unverified-email rule to a message.
func MessageIndicatesUnverified(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "verify your email") || strings.Contains(lower, "not verified")
}

// IsValidationError reports whether err is a local validation failure.
func IsValidationError(err error) bool {
	var verr ValidationError
	return errors.As(err, &verr)
}
