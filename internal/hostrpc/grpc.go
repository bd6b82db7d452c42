package hostrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
)

// sendCommandMethod is the single unary method the host service exposes;
// every command travels through it with a JSON payload.
const sendCommandMethod = "/host.HostService/SendCommand"

const codecName = "mbjson"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec lets grpc carry plain JSON payloads. The host service speaks
// JSON bodies, so no generated message types are involved.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

// GRPCTransport sends host commands over a local gRPC channel.
type GRPCTransport struct {
	endpoint string
	conn     *grpc.ClientConn
}

// NewGRPCTransport opens a channel to the host service. The host runs on
// the loopback interface, so the channel is always plaintext.
func NewGRPCTransport(endpoint string) (*GRPCTransport, error) {
	target := strings.TrimPrefix(endpoint, "grpc://")

	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("open grpc channel to %s: %w", target, err)
	}

	return &GRPCTransport{endpoint: endpoint, conn: conn}, nil
}

// Ready drives the channel to the READY connectivity state, bounded by ctx.
func (t *GRPCTransport) Ready(ctx context.Context) error {
	t.conn.Connect()
	for {
		state := t.conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if state == connectivity.Shutdown {
			return fmt.Errorf("grpc channel to %s is shut down", t.endpoint)
		}
		if !t.conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("grpc channel to %s not ready: %w", t.endpoint, ctx.Err())
		}
	}
}

// Send performs one unary call.
func (t *GRPCTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	var resp Response
	if err := t.conn.Invoke(ctx, sendCommandMethod, req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", req.Header().Command, err)
	}
	return &resp, nil
}

// Close releases the channel.
func (t *GRPCTransport) Close() error {
	return t.conn.Close()
}
