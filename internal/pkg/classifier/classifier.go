// Package classifier maps provider result codes onto a closed error taxonomy.
// Classification is total: any integer code yields an ErrorInfo, unknown codes
// fall back to a retryable unknown_error rather than failing closed.
package classifier

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ErrorKind is the closed set of payment error categories
type ErrorKind string

const (
	KindSuccess           ErrorKind = "success"
	KindCancelled         ErrorKind = "cancelled"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindInvalidPhone      ErrorKind = "invalid_phone"
	KindTimeout           ErrorKind = "timeout"
	KindWrongCredential   ErrorKind = "wrong_credential"
	KindAccountInactive   ErrorKind = "account_inactive"
	KindSystemError       ErrorKind = "system_error"
	KindDuplicate         ErrorKind = "duplicate"
	KindAPIUnavailable    ErrorKind = "api_unavailable"
	KindAuthFailed        ErrorKind = "auth_failed"
	KindBadRequest        ErrorKind = "bad_request"
	KindQueueFull         ErrorKind = "queue_full"
	KindUnknown           ErrorKind = "unknown_error"
)

// BackoffClass buckets error kinds by retry-delay policy
type BackoffClass string

const (
	BackoffNone  BackoffClass = "none"
	BackoffShort BackoffClass = "short"
	BackoffLong  BackoffClass = "long"
)

// ErrorInfo carries everything downstream consumers need: the category, a
// user-facing message and the retry flags read by both the outbound retry
// engine and the client response formatter.
type ErrorInfo struct {
	Kind        ErrorKind
	UserMessage string
	Retryable   bool
	ShowRetry   bool
	Backoff     BackoffClass
}

// IsSuccess reports whether the classified code means the payment settled
func (e ErrorInfo) IsSuccess() bool {
	return e.Kind == KindSuccess
}

// knownCodes is the provider result-code table. Code 0 and only code 0 is success.
var knownCodes = map[int]ErrorInfo{
	0: {Kind: KindSuccess, UserMessage: "Payment received successfully.", Retryable: false, ShowRetry: false, Backoff: BackoffNone},
	1: {Kind: KindInsufficientFunds, UserMessage: "Your M-Pesa balance is insufficient for this payment.", Retryable: false, ShowRetry: true, Backoff: BackoffNone},

	1001: {Kind: KindDuplicate, UserMessage: "A payment request is already in progress on this number. Please wait for it to complete.", Retryable: false, ShowRetry: true, Backoff: BackoffNone},
	1019: {Kind: KindTimeout, UserMessage: "The payment request expired before it was completed. Please try again.", Retryable: false, ShowRetry: true, Backoff: BackoffNone},
	1025: {Kind: KindSystemError, UserMessage: "The payment service had a problem processing your request. Please try again.", Retryable: true, ShowRetry: true, Backoff: BackoffShort},
	1031: {Kind: KindCancelled, UserMessage: "The payment request was cancelled.", Retryable: false, ShowRetry: true, Backoff: BackoffNone},
	1032: {Kind: KindCancelled, UserMessage: "You cancelled the payment request on your phone.", Retryable: false, ShowRetry: true, Backoff: BackoffNone},
	1037: {Kind: KindTimeout, UserMessage: "We could not reach your phone. Check that it is on and try again.", Retryable: false, ShowRetry: true, Backoff: BackoffNone},

	2001: {Kind: KindWrongCredential, UserMessage: "The M-Pesa PIN entered was incorrect. Please try again.", Retryable: false, ShowRetry: true, Backoff: BackoffNone},
	2006: {Kind: KindAccountInactive, UserMessage: "Your M-Pesa account is not active. Please contact Safaricom customer care.", Retryable: false, ShowRetry: false, Backoff: BackoffNone},

	9999: {Kind: KindSystemError, UserMessage: "The payment service is temporarily unavailable. Please try again shortly.", Retryable: true, ShowRetry: true, Backoff: BackoffLong},
}

// Classify maps a provider result code to its ErrorInfo. Total over all ints.
func Classify(code int) ErrorInfo {
	if info, ok := knownCodes[code]; ok {
		return info
	}
	return ErrorInfo{
		Kind:        KindUnknown,
		UserMessage: "The payment could not be completed. Please try again.",
		Retryable:   true,
		ShowRetry:   true,
		Backoff:     BackoffShort,
	}
}

// transportKinds carries the HTTP/network-level classifications that have no
// provider result code.
var transportKinds = map[ErrorKind]ErrorInfo{
	KindAPIUnavailable: {Kind: KindAPIUnavailable, UserMessage: "The payment service is temporarily unreachable. Please try again shortly.", Retryable: true, ShowRetry: true, Backoff: BackoffLong},
	KindAuthFailed:     {Kind: KindAuthFailed, UserMessage: "The payment service rejected our credentials. Please contact support.", Retryable: false, ShowRetry: false, Backoff: BackoffNone},
	KindBadRequest:     {Kind: KindBadRequest, UserMessage: "The payment request was rejected as invalid. Please contact support.", Retryable: false, ShowRetry: false, Backoff: BackoffNone},
	KindInvalidPhone:   {Kind: KindInvalidPhone, UserMessage: "The phone number entered is not a valid Safaricom number.", Retryable: false, ShowRetry: true, Backoff: BackoffNone},
	KindTimeout:        {Kind: KindTimeout, UserMessage: "The payment service took too long to respond. Please try again.", Retryable: true, ShowRetry: true, Backoff: BackoffShort},
	KindQueueFull:      {Kind: KindQueueFull, UserMessage: "Too many payments are waiting on the provider. Please try again shortly.", Retryable: false, ShowRetry: true, Backoff: BackoffNone},
	KindSystemError:    {Kind: KindSystemError, UserMessage: "The payment service had a problem processing your request. Please try again.", Retryable: true, ShowRetry: true, Backoff: BackoffShort},
}

// ForKind returns the canonical ErrorInfo for a transport-level kind
func ForKind(kind ErrorKind) ErrorInfo {
	if info, ok := transportKinds[kind]; ok {
		return info
	}
	return Classify(-1)
}

// ClassifyHTTPStatus maps a non-2xx provider HTTP status into the taxonomy
func ClassifyHTTPStatus(status int) ErrorInfo {
	switch {
	case status == 401 || status == 403:
		return ForKind(KindAuthFailed)
	case status == 400:
		return ForKind(KindBadRequest)
	case status == 429 || status == 503:
		return ForKind(KindAPIUnavailable)
	case status >= 500:
		return ForKind(KindSystemError)
	default:
		return Classify(-1)
	}
}

// ClassifyTransport maps a network-level error into the taxonomy
func ClassifyTransport(err error) ErrorInfo {
	if err == nil {
		return Classify(0)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ForKind(KindTimeout)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ForKind(KindTimeout)
	}

	msg := err.Error()
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return ForKind(KindAPIUnavailable)
	}

	return ForKind(KindSystemError)
}

// RetryableKind reports whether the outbound retry engine should retry this
// kind. Only infra-level failures are retried; user outcomes are final.
func RetryableKind(kind ErrorKind) bool {
	switch kind {
	case KindAPIUnavailable, KindSystemError, KindTimeout:
		return true
	default:
		return false
	}
}
