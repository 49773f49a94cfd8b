package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType classifies failures from the upstream scrape API and the
// async job service.
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeMalformed  ErrorType = "malformed"
	ErrorTypeSubmit     ErrorType = "submit"
	ErrorTypeJobFailed  ErrorType = "job_failed"
	ErrorTypeJobTimeout ErrorType = "job_timeout"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error carries the error class plus whatever context is needed to retry
// the call by hand: the HTTP status, the request payload that was sent
// and the response body that came back.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Payload string
	Body    string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// RateLimited reports a single 429 response.
func RateLimited(payload string) *Error {
	return &Error{
		Type:    ErrorTypeRateLimit,
		Message: "rate limit exceeded",
		Code:    429,
		Payload: payload,
	}
}

// UpstreamRequest reports any non-429 failure response. Both the request
// payload and the response body are captured for diagnosis.
func UpstreamRequest(code int, payload, body string) *Error {
	return &Error{
		Type:    ErrorTypeUpstream,
		Message: fmt.Sprintf("upstream request failed with status %d", code),
		Code:    code,
		Payload: payload,
		Body:    body,
	}
}

// Malformed reports a response whose nested payload does not match the
// expected shape for its target.
func Malformed(target string, body string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeMalformed,
		Message: fmt.Sprintf("malformed %s response: %v", target, cause),
		Body:    body,
	}
}

// SubmitFailed reports a job submission that did not yield a job id.
func SubmitFailed(message string) *Error {
	return &Error{
		Type:    ErrorTypeSubmit,
		Message: message,
	}
}

// RemoteJobFailed reports a job that reached the error state remotely.
func RemoteJobFailed(jobID string) *Error {
	return &Error{
		Type:    ErrorTypeJobFailed,
		Message: fmt.Sprintf("remote job %s failed", jobID),
	}
}

// JobTimedOut reports a job that did not reach a terminal state within
// the wall-clock budget. This state is synthesized by the client, never
// returned by the remote service.
func JobTimedOut(jobID string, timeout time.Duration) *Error {
	return &Error{
		Type:    ErrorTypeJobTimeout,
		Message: fmt.Sprintf("remote job %s did not finish within %s", jobID, timeout),
	}
}

// Network reports a transport-level failure before any status code was
// received.
func Network(cause error) *Error {
	return &Error{
		Type:    ErrorTypeNetwork,
		Message: cause.Error(),
	}
}

// IsType reports whether err (or anything it wraps) is an *Error of the
// given type.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsRateLimit reports whether err is a rate-limit failure, either a single
// 429 or retries exhausted against one.
func IsRateLimit(err error) bool {
	return IsType(err, ErrorTypeRateLimit)
}

// IsRetryable reports whether an error type is worth retrying. Only rate
// limiting is retried; every other upstream failure fails the call
// immediately.
func IsRetryable(errorType ErrorType) bool {
	return errorType == ErrorTypeRateLimit
}
