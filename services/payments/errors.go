package payments

import (
	"fmt"

	"github.com/jkarimi/pesaflow/internal/pkg/classifier"
)

// ClientError carries a classified failure to the HTTP layer. Info supplies
// the user-facing message and the retry hint; Err keeps the technical cause
// for logs.
type ClientError struct {
	Info classifier.ErrorInfo
	Err  error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Info.Kind, e.Err)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}
