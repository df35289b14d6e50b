package rpc

import (
	"context"
	"fmt"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// Dialer opens JSON-RPC connections to arbitrary nodes
type Dialer struct{}

// NewDialer creates a new dialer
func NewDialer() *Dialer {
	return &Dialer{}
}

// Dial connects to rpcURL. The returned func closes the connection.
func (d *Dialer) Dial(ctx context.Context, rpcURL string) (usecase.Transport, func(), error) {
	client, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}
	return client, client.Close, nil
}

var _ usecase.NodeDialer = (*Dialer)(nil)
