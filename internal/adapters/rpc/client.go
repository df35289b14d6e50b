package rpc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/domain/config"
	"github.com/trebuchet-org/ensmock/internal/ens"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// StateClient issues state reads and writes against a dev node.
// Every call is a single round trip; nothing is cached.
type StateClient struct {
	transport usecase.Transport
	namespace config.CheatcodeNamespace
	log       *slog.Logger
}

// NewStateClient creates a client over the given default transport
func NewStateClient(transport usecase.Transport, namespace config.CheatcodeNamespace, log *slog.Logger) *StateClient {
	if namespace == "" {
		namespace = config.NamespaceHardhat
	}
	if log == nil {
		log = slog.Default()
	}
	return &StateClient{
		transport: transport,
		namespace: namespace,
		log:       log.With("component", "StateClient"),
	}
}

// ProvideStateClient dials the configured node for Wire dependency injection
func ProvideStateClient(cfg *config.RuntimeConfig, log *slog.Logger) (*StateClient, func(), error) {
	client, err := gethrpc.DialContext(context.Background(), cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create RPC client for %s: %w", cfg.RPCURL, err)
	}
	return NewStateClient(client, cfg.Namespace, log), client.Close, nil
}

// GetCode returns the code at addr. An empty slice means no contract is installed.
func (c *StateClient) GetCode(ctx context.Context, addr common.Address, opts ...usecase.CallOption) ([]byte, error) {
	var code hexutil.Bytes
	if err := c.call(ctx, opts, &code, "eth_getCode", addr, "latest"); err != nil {
		return nil, err
	}
	return code, nil
}

// SetCode installs raw bytecode at addr
func (c *StateClient) SetCode(ctx context.Context, addr common.Address, code []byte, opts ...usecase.CallOption) error {
	return c.call(ctx, opts, nil, c.method("setCode"), addr, hexutil.Bytes(code))
}

// ListAccounts returns the node-managed accounts in node order
func (c *StateClient) ListAccounts(ctx context.Context, opts ...usecase.CallOption) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.call(ctx, opts, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SetStorageAt overwrites one storage word. The slot is sent as a QUANTITY,
// the value as a full 32-byte word.
func (c *StateClient) SetStorageAt(ctx context.Context, addr common.Address, slot, value common.Hash, opts ...usecase.CallOption) error {
	return c.call(ctx, opts, nil, c.method("setStorageAt"), addr, ens.SlotQuantity(slot), value)
}

// GetStorageAt reads one storage word at the latest block
func (c *StateClient) GetStorageAt(ctx context.Context, addr common.Address, slot common.Hash, opts ...usecase.CallOption) (common.Hash, error) {
	var word hexutil.Bytes
	if err := c.call(ctx, opts, &word, "eth_getStorageAt", addr, ens.SlotQuantity(slot), "latest"); err != nil {
		return common.Hash{}, err
	}
	if len(word) > common.HashLength {
		return common.Hash{}, &domain.NodeError{
			Method: "eth_getStorageAt",
			Err:    fmt.Errorf("storage word is %d bytes", len(word)),
		}
	}
	return common.BytesToHash(word), nil
}

// ChainID returns the node's chain id
func (c *StateClient) ChainID(ctx context.Context, opts ...usecase.CallOption) (uint64, error) {
	var id hexutil.Uint64
	if err := c.call(ctx, opts, &id, "eth_chainId"); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (c *StateClient) method(name string) string {
	return string(c.namespace) + "_" + name
}

func (c *StateClient) call(ctx context.Context, opts []usecase.CallOption, result any, method string, args ...any) error {
	transport := usecase.ResolveCallOptions(opts...).TransportOr(c.transport)
	if transport == nil {
		return &domain.NodeError{Method: method, Err: fmt.Errorf("no transport configured")}
	}

	c.log.Debug("rpc call", "method", method)
	if err := transport.CallContext(ctx, result, method, args...); err != nil {
		c.log.Debug("rpc call failed", "method", method, "error", err)
		return &domain.NodeError{Method: method, Err: err}
	}
	return nil
}

// Ensure the client implements the interface
var _ usecase.StateClient = (*StateClient)(nil)
