package usecase

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/ensmock/internal/domain"
)

// Transport performs one JSON-RPC request/response round trip.
// *rpc.Client from go-ethereum satisfies it.
type Transport interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// CallOptions holds per-call overrides
type CallOptions struct {
	Transport Transport
}

// CallOption overrides a default for a single call
type CallOption func(*CallOptions)

// WithTransport sends the call through t instead of the client's default transport
func WithTransport(t Transport) CallOption {
	return func(o *CallOptions) {
		o.Transport = t
	}
}

// ResolveCallOptions applies opts in order
func ResolveCallOptions(opts ...CallOption) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// TransportOr returns the override transport, or def when none was given
func (o CallOptions) TransportOr(def Transport) Transport {
	if o.Transport != nil {
		return o.Transport
	}
	return def
}

// StateClient reads and mutates dev node state
type StateClient interface {
	GetCode(ctx context.Context, addr common.Address, opts ...CallOption) ([]byte, error)
	SetCode(ctx context.Context, addr common.Address, code []byte, opts ...CallOption) error
	ListAccounts(ctx context.Context, opts ...CallOption) ([]common.Address, error)
	SetStorageAt(ctx context.Context, addr common.Address, slot, value common.Hash, opts ...CallOption) error
	GetStorageAt(ctx context.Context, addr common.Address, slot common.Hash, opts ...CallOption) (common.Hash, error)
	ChainID(ctx context.Context, opts ...CallOption) (uint64, error)
}

// BytecodeSource provides the opaque bytecode installed for a contract
type BytecodeSource interface {
	Bytecode(ctx context.Context, contract string, addr common.Address) ([]byte, error)
}

// ConsumerPublisher hands the mocked registry location to negotiated consumers
type ConsumerPublisher interface {
	Publish(ctx context.Context, info *domain.RegistryInfo) ([]string, error)
}

// AnvilManager manages local anvil node instances
type AnvilManager interface {
	Start(ctx context.Context, instance *domain.AnvilInstance) error
	Stop(ctx context.Context, instance *domain.AnvilInstance) error
	GetStatus(ctx context.Context, instance *domain.AnvilInstance) (*domain.AnvilStatus, error)
	StreamLogs(ctx context.Context, instance *domain.AnvilInstance, writer io.Writer) error
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// NodeDialer opens a transport to a node other than the configured default
type NodeDialer interface {
	Dial(ctx context.Context, rpcURL string) (Transport, func(), error)
}
