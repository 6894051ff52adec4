package middleware

import (
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/jkarimi/pesaflow/internal/pkg/logger"
)

// PanicRecoveryWithZapMiddleware recovers from handler panics, records the
// panic against the active New Relic transaction, logs the stack trace and
// returns a 500 without leaking internals to the caller.
func PanicRecoveryWithZapMiddleware(zapLogger *logger.ZapLogger) echo.MiddlewareFunc {
	if zapLogger == nil {
		panic("PanicRecoveryWithZapMiddleware requires a logger")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					handlePanic(c, r, zapLogger)
				}
			}()

			return next(c)
		}
	}
}

func handlePanic(c echo.Context, r interface{}, zapLogger *logger.ZapLogger) {
	stackTrace := string(debug.Stack())
	req := c.Request()
	requestID := panicRequestID(c)

	fields := []logger.Field{
		logger.Any("panic_value", r),
		logger.String("panic_type", fmt.Sprintf("%T", r)),
		logger.String("caller", panicCaller(4)),
		logger.String("method", req.Method),
		logger.String("path", req.URL.Path),
		logger.String("client_ip", c.RealIP()),
		logger.String("request_id", requestID),
		logger.String("stack_trace", stackTrace),
	}

	if txn := panicTransaction(c); txn != nil {
		txn.NoticeError(newrelic.Error{
			Message: fmt.Sprintf("panic recovered: %v", r),
			Class:   "PanicError",
			Attributes: map[string]interface{}{
				"panic.value": fmt.Sprintf("%v", r),
				"panic.type":  fmt.Sprintf("%T", r),
				"http.method": req.Method,
				"http.path":   req.URL.Path,
				"request_id":  requestID,
			},
		})
		txn.AddAttribute("panic.recovered", true)

		zapLogger.WithNewRelicContext(txn).Error("Panic recovered during request processing", fields...)
	} else {
		zapLogger.Error("Panic recovered during request processing", fields...)
	}

	if c.Response().Committed {
		return
	}

	body := map[string]interface{}{
		"error":   "Internal Server Error",
		"message": "An unexpected error occurred while processing your request",
	}
	if requestID != "" {
		body["request_id"] = requestID
	}
	if err := c.JSON(http.StatusInternalServerError, body); err != nil {
		c.String(http.StatusInternalServerError, "Internal Server Error")
	}
}

func panicCaller(skip int) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		return fmt.Sprintf("%s:%d %s", file, line, fn.Name())
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func panicRequestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

func panicTransaction(c echo.Context) *newrelic.Transaction {
	if t, ok := c.Get("nr_txn").(*newrelic.Transaction); ok {
		return t
	}
	return nil
}
