package oaipmh

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// OAI-PMH error codes with special handling.
const (
	CodeNoRecordsMatch  = "noRecordsMatch"
	CodeNoSetHierarchy  = "noSetHierarchy"
	CodeBadResumption   = "badResumptionToken"
	CodeIDDoesNotExist  = "idDoesNotExist"
	CodeBadResponseBody = "badResponse"
)

// ProtocolError is an error reported inside a well-formed HTTP response.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("oai-pmh: error [%s]: %s", e.Code, e.Message)
}

// TimeoutError indicates the request did not complete in time.
type TimeoutError struct {
	URL string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("oai-pmh: request timeout (URL: %s)", e.URL)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Transient reports that timeouts are worth retrying.
func (e *TimeoutError) Transient() bool { return true }

// HTTPStatusError indicates a non-2xx HTTP response.
type HTTPStatusError struct {
	StatusCode int
	URL        string

	// RetryAfter is the server's requested backoff, zero when absent.
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("oai-pmh: HTTP %d (URL: %s)", e.StatusCode, e.URL)
}

// Transient reports whether the status suggests a later retry may succeed.
func (e *HTTPStatusError) Transient() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return e.StatusCode >= 500
}

// NetworkError is any transport failure other than a timeout.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("oai-pmh: network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Transient reports that network failures are worth retrying.
func (e *NetworkError) Transient() bool { return true }

// IsTimeout checks if the error indicates a request timeout.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// IsHTTPStatus checks if the error is an HTTP failure with the given status.
// A zero status matches any HTTP failure.
func IsHTTPStatus(err error, status int) bool {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return status == 0 || statusErr.StatusCode == status
	}
	return false
}

// IsNetwork checks if the error is a generic transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsProtocol checks if the error is an OAI-PMH protocol error, optionally
// with a specific code.
func IsProtocol(err error, code string) bool {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return code == "" || protoErr.Code == code
	}
	return false
}
