package requestcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ContextKey type for context keys to avoid collisions
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
	// UserIDKey is the context key for user ID
	UserIDKey ContextKey = "user_id"
	// TraceIDKey is the context key for trace ID
	TraceIDKey ContextKey = "trace_id"
	// ServiceNameKey is the context key for service name
	ServiceNameKey ContextKey = "service_name"
)

// RequestContext holds request-scoped identifiers that follow a payment
// request through handlers, use cases and gateways
type RequestContext struct {
	RequestID   string
	UserID      string
	TraceID     string
	ServiceName string
	StartTime   time.Time
}

// WithRequestContext adds the request identifiers to the given context
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	ctx = context.WithValue(ctx, RequestIDKey, reqCtx.RequestID)
	ctx = context.WithValue(ctx, UserIDKey, reqCtx.UserID)
	ctx = context.WithValue(ctx, TraceIDKey, reqCtx.TraceID)
	ctx = context.WithValue(ctx, ServiceNameKey, reqCtx.ServiceName)
	return ctx
}

// FromEchoContext builds a request context from an incoming Echo request,
// generating identifiers where the caller supplied none
func FromEchoContext(c echo.Context) *RequestContext {
	reqCtx := &RequestContext{
		StartTime: time.Now(),
	}

	if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
		reqCtx.RequestID = requestID
	} else {
		reqCtx.RequestID = uuid.New().String()
	}

	if userID := c.Get("user_id"); userID != nil {
		if uid, ok := userID.(string); ok {
			reqCtx.UserID = uid
		}
	}

	if traceID := c.Request().Header.Get("X-Trace-ID"); traceID != "" {
		reqCtx.TraceID = traceID
	} else {
		reqCtx.TraceID = uuid.New().String()
	}

	if serviceName := c.Get("service_name"); serviceName != nil {
		if sn, ok := serviceName.(string); ok {
			reqCtx.ServiceName = sn
		}
	}

	return reqCtx
}

// GetRequestID extracts the request ID from a context
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}

// GetUserID extracts the user ID from a context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetTraceID extracts the trace ID from a context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}
