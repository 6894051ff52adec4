package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// AddAttribute records a custom attribute on the request's New Relic
// transaction, if one is in flight.
func AddAttribute(c echo.Context, key string, value interface{}) {
	if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
		txn.AddAttribute(key, value)
	}
}

// SetBookingID tags the transaction with the booking under payment so traces
// can be searched by booking.
func SetBookingID(c echo.Context, bookingID string) {
	AddAttribute(c, "booking.id", bookingID)
}
