package hostrpc

import (
	"context"
)

// Transport carries requests to the host service. Implementations are
// stateless with respect to the session: session identity lives in the
// connection manager and is stamped into each request header.
type Transport interface {
	// Ready blocks until the channel is usable or ctx expires.
	Ready(ctx context.Context) error

	// Send transmits the request and waits for the reply. The caller
	// bounds the wait through ctx.
	Send(ctx context.Context, req *Request) (*Response, error)

	// Close releases the channel.
	Close() error
}
