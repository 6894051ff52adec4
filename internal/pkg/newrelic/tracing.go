package newrelic

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// FromEchoContext extracts the New Relic transaction from an Echo context
func FromEchoContext(c echo.Context) *newrelic.Transaction {
	return newrelic.FromContext(c.Request().Context())
}

// FromContext extracts the New Relic transaction from a standard context.
// Use cases and gateways receive the transaction this way.
func FromContext(ctx context.Context) *newrelic.Transaction {
	return newrelic.FromContext(ctx)
}

// StartSegment creates a segment on the transaction, or nil without one
func StartSegment(txn *newrelic.Transaction, name string) *newrelic.Segment {
	if txn == nil {
		return nil
	}
	return txn.StartSegment(name)
}

// SetTransactionName renames the transaction for better visibility
func SetTransactionName(txn *newrelic.Transaction, name string) {
	if txn != nil {
		txn.SetName(name)
	}
}

// NoticeTransactionError reports an error against the transaction
func NoticeTransactionError(txn *newrelic.Transaction, err error) {
	if txn != nil && err != nil {
		txn.NoticeError(err)
	}
}

// WithSegment runs fn inside a named segment when a transaction is present
func WithSegment(ctx context.Context, segmentName string, fn func() error) error {
	segment := StartSegment(FromContext(ctx), segmentName)
	if segment != nil {
		defer segment.End()
	}

	return fn()
}

// TraceHandler wraps an Echo handler with transaction naming and error reporting
func TraceHandler(handlerName string, handler echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		txn := FromEchoContext(c)
		SetTransactionName(txn, handlerName)

		err := handler(c)
		if err != nil {
			NoticeTransactionError(txn, err)
		}

		return err
	}
}
