package constants

// Redis key formats
const (
	// Payment engine
	KeyCallbackRetry  = "payments:callback:retry"  // attempt-store prefix, keyed by checkout request id
	KeyResolveAttempt = "payments:resolve:attempt" // attempt-store prefix, keyed by {booking_id}:{issue}
	KeyProviderToken  = "payments:daraja:token"    // cached provider bearer token
)
