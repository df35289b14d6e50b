// Package ensmock installs a mock ENS registry on a local hardhat or anvil
// node. The registry bytecode is placed at its mainnet address and records are
// written straight into storage, so any account can own any domain.
//
//	mock, err := ensmock.Dial(ctx, "http://localhost:8545", ensmock.WithNamespace("anvil"))
//	if err != nil { ... }
//	defer mock.Close()
//	if _, err := mock.Setup(ctx, 0); err != nil { ... }
//	err = mock.SetDomainOwner(ctx, "vitalik.eth", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
package ensmock

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/ensmock/internal/adapters/bytecode"
	"github.com/trebuchet-org/ensmock/internal/adapters/consumers"
	"github.com/trebuchet-org/ensmock/internal/adapters/rpc"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/domain/config"
	"github.com/trebuchet-org/ensmock/internal/ens"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// Well-known addresses the mock installs contracts at
var (
	RegistryAddress        = domain.RegistryAddress
	DefaultResolverAddress = domain.DefaultResolverAddress
)

// Built-in runtime bytecode installed when no artifact or upstream RPC is
// configured
var (
	RegistryBytecode        = mustEmbedded(domain.ContractRegistry)
	DefaultResolverBytecode = mustEmbedded(domain.ContractResolver)
)

// Errors returned by Mock operations. Match them with errors.Is.
var (
	ErrNodeUnreachable        = domain.ErrNodeUnreachable
	ErrInvalidAddress         = domain.ErrInvalidAddress
	ErrInvalidDomain          = domain.ErrInvalidDomain
	ErrInvalidSlot            = domain.ErrInvalidSlot
	ErrAccountIndexOutOfRange = domain.ErrAccountIndexOutOfRange
	ErrBytecodeUnavailable    = domain.ErrBytecodeUnavailable
)

type (
	// Transport performs JSON-RPC round trips. *rpc.Client from go-ethereum satisfies it.
	Transport = usecase.Transport
	// CallOption overrides defaults for a single call
	CallOption = usecase.CallOption
	// SetupResult reports what Setup changed
	SetupResult = usecase.SetupResult
	// DeployResult reports which contracts were installed
	DeployResult = usecase.DeployResult
	// Record is a registry record read back from storage
	Record = domain.Record
	// Slots holds the storage words of a record
	Slots = domain.Slots
	// StorageWord is one raw registry storage word
	StorageWord = usecase.StorageWord
)

// WithTransport sends a single call through t instead of the mock's transport
func WithTransport(t Transport) CallOption {
	return usecase.WithTransport(t)
}

// NameHash returns the ENS node of name
func NameHash(name string) (common.Hash, error) {
	return ens.NameHash(name)
}

// SlotsFor returns the registry storage slots of name
func SlotsFor(name string) (Slots, error) {
	return ens.SlotsForDomain(name)
}

// Mock drives the mocked registry on one node
type Mock struct {
	uc      *usecase.EnsMock
	closeFn func()
}

// Dial connects to the node at rpcURL
func Dial(ctx context.Context, rpcURL string, opts ...Option) (*Mock, error) {
	client, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNodeUnreachable, err)
	}
	m, err := newMock(client, rpcURL, opts)
	if err != nil {
		client.Close()
		return nil, err
	}
	m.closeFn = client.Close
	return m, nil
}

// New creates a mock over an existing transport
func New(transport Transport, opts ...Option) (*Mock, error) {
	return newMock(transport, "", opts)
}

func newMock(transport Transport, rpcURL string, opts []Option) (*Mock, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	consumerSet, err := domain.NegotiateConsumers(o.consumers)
	if err != nil {
		return nil, err
	}

	projectRoot := o.projectRoot
	if projectRoot == "" {
		if projectRoot, err = os.Getwd(); err != nil {
			return nil, err
		}
	}

	ensCfg := config.DefaultEnsMockConfig()
	ensCfg.InstallDefaultResolver = o.defaultDomain != ""
	if o.defaultDomain != "" {
		ensCfg.DefaultDomain = o.defaultDomain
	}
	ensCfg.RegistryBytecode = o.registryArtifact
	ensCfg.ResolverBytecode = o.resolverArtifact
	ensCfg.BytecodeRPCURL = o.bytecodeRPCURL
	if o.cacheDir != "" {
		ensCfg.CacheDir = o.cacheDir
	}
	ensCfg.Consumers = consumerSet
	if o.outputDir != "" {
		ensCfg.OutputDir = o.outputDir
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot: projectRoot,
		RPCURL:      rpcURL,
		Namespace:   o.namespace,
		Ens:         ensCfg,
	}

	log := o.log.With("component", "ensmock")
	var source usecase.BytecodeSource = bytecode.NewSource(cfg, rpc.NewDialer(), log)
	if len(o.static) > 0 {
		source = &staticSource{code: o.static, fallback: source}
	}

	client := rpc.NewStateClient(transport, o.namespace, log)
	uc := usecase.NewEnsMock(client, source, consumers.NewPublisher(cfg, log), cfg, usecase.NopProgress{}, log)
	return &Mock{uc: uc}, nil
}

// Close releases the connection opened by Dial
func (m *Mock) Close() {
	if m.closeFn != nil {
		m.closeFn()
	}
}

// Setup installs the registry if missing and makes the node account at
// ownerAccountIndex the owner of the root node
func (m *Mock) Setup(ctx context.Context, ownerAccountIndex int, opts ...CallOption) (*SetupResult, error) {
	return m.uc.SetupMock(ctx, ownerAccountIndex, opts...)
}

// EnsureRegistryDeployed installs the registry bytecode unless code is present
func (m *Mock) EnsureRegistryDeployed(ctx context.Context, opts ...CallOption) (*DeployResult, error) {
	return m.uc.EnsureRegistryDeployed(ctx, opts...)
}

// SetDomainOwner writes owner into the record of name
func (m *Mock) SetDomainOwner(ctx context.Context, name, owner string, opts ...CallOption) error {
	return m.uc.SetDomainOwner(ctx, name, owner, opts...)
}

// SetDomainResolver writes resolver into the record of name
func (m *Mock) SetDomainResolver(ctx context.Context, name, resolver string, opts ...CallOption) error {
	return m.uc.SetDomainResolver(ctx, name, resolver, opts...)
}

// Record reads the record of name back from storage
func (m *Mock) Record(ctx context.Context, name string, opts ...CallOption) (*Record, error) {
	return m.uc.GetDomainRecord(ctx, name, opts...)
}

// Storage reads a raw registry storage word. slot may be a QUANTITY ("0x5")
// or a full 32-byte word.
func (m *Mock) Storage(ctx context.Context, slot string, opts ...CallOption) (*StorageWord, error) {
	return m.uc.ReadStorage(ctx, slot, opts...)
}

// SetStorage writes a raw registry storage word. value may be an address.
func (m *Mock) SetStorage(ctx context.Context, slot, value string, opts ...CallOption) (*StorageWord, error) {
	return m.uc.WriteStorage(ctx, slot, value, opts...)
}

func mustEmbedded(contract string) []byte {
	code, ok := bytecode.Embedded(contract)
	if !ok {
		panic("no built-in bytecode for " + contract)
	}
	return code
}

// staticSource serves bytecode handed in through options before falling back
type staticSource struct {
	code     map[string][]byte
	fallback usecase.BytecodeSource
}

func (s *staticSource) Bytecode(ctx context.Context, contract string, addr common.Address) ([]byte, error) {
	if code, ok := s.code[contract]; ok {
		return code, nil
	}
	return s.fallback.Bytecode(ctx, contract, addr)
}
