package zai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// Kind classifies a fetch failure for user messaging.
type Kind string

const (
	KindOther        Kind = "other"
	KindAuth         Kind = "auth"
	KindConnectivity Kind = "connectivity"
	KindTimeout      Kind = "timeout"
	// KindCanceled means the caller gave up; it is not a failure of the API.
	KindCanceled Kind = "canceled"
)

// APIError describes a failed sub-request. StatusCode is zero for transport
// failures, in which case Err holds the cause.
type APIError struct {
	Kind       Kind
	Endpoint   string
	StatusCode int
	Body       string
	Timeout    time.Duration
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0:
		body := strings.TrimSpace(e.Body)
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		if body == "" {
			return fmt.Sprintf("zai: %s: HTTP %d", e.Endpoint, e.StatusCode)
		}
		return fmt.Sprintf("zai: %s: HTTP %d: %s", e.Endpoint, e.StatusCode, body)
	case e.Kind == KindTimeout:
		return fmt.Sprintf("zai: %s: request timed out after %s", e.Endpoint, e.Timeout)
	default:
		return fmt.Sprintf("zai: %s: %v", e.Endpoint, e.Err)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

func statusError(endpoint string, status int, body []byte) *APIError {
	kind := KindOther
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = KindAuth
	}
	return &APIError{Kind: kind, Endpoint: endpoint, StatusCode: status, Body: string(body)}
}

func transportError(endpoint string, err error, timeout time.Duration) *APIError {
	return &APIError{Kind: classifyTransport(err), Endpoint: endpoint, Timeout: timeout, Err: err}
}

func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnectivity
	}
	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ENETUNREACH,
		syscall.EHOSTUNREACH,
	} {
		if errors.Is(err, errno) {
			return KindConnectivity
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindConnectivity
	}
	return KindOther
}

// Classify returns the failure class of err. Errors not produced by this
// package are KindOther.
func Classify(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindOther
}

func IsAuth(err error) bool { return Classify(err) == KindAuth }

// IsCanceled reports a call abandoned through its context.
func IsCanceled(err error) bool {
	return Classify(err) == KindCanceled || errors.Is(err, context.Canceled)
}

// IsConnectivity reports network-class failures, timeouts included.
func IsConnectivity(err error) bool {
	k := Classify(err)
	return k == KindConnectivity || k == KindTimeout
}
