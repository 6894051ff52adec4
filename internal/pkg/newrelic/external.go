package newrelic

import (
	"context"
	"net/http"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// StartExternalSegment opens an external-service segment for an outbound
// HTTP request, or nil when no transaction is in flight
func StartExternalSegment(ctx context.Context, request *http.Request) *newrelic.ExternalSegment {
	txn := FromContext(ctx)
	if txn == nil {
		return nil
	}

	return newrelic.StartExternalSegment(txn, request)
}

// InstrumentHTTPRequest runs doFunc inside an external segment so provider
// latency shows up separately from our own handler time
func InstrumentHTTPRequest(ctx context.Context, req *http.Request, doFunc func() (*http.Response, error)) (*http.Response, error) {
	segment := StartExternalSegment(ctx, req)
	if segment != nil {
		defer segment.End()
	}

	resp, err := doFunc()

	if segment != nil && resp != nil {
		segment.Response = resp
	}

	return resp, err
}
