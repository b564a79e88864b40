// Package invoke abstracts synchronous request/response calls to named
// services. The saga core depends only on the Invoker contract; transport
// and discovery live behind it.
package invoke

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the target resource does not exist on the remote service.
	ErrNotFound = errors.New("invoke: not found")
	// ErrUnavailable means the remote service could not serve the call.
	ErrUnavailable = errors.New("invoke: service unavailable")
	// ErrTimeout means the call exceeded its deadline.
	ErrTimeout = errors.New("invoke: timeout")
)

// Invoker performs a synchronous call against a named service and route.
// A nil body sends no payload; a non-nil body is JSON-encoded.
type Invoker interface {
	Invoke(ctx context.Context, service, route, method string, body any) ([]byte, error)
}
