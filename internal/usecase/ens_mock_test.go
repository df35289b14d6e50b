package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/ensmock/internal/adapters/rpc"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/domain/config"
	"github.com/trebuchet-org/ensmock/internal/ens"
	"github.com/trebuchet-org/ensmock/internal/testutil/devnode"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

var (
	accountA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	accountB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	accountC = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	registryCode = []byte{0x60, 0x80, 0x60, 0x40, 0x52}
	resolverCode = []byte{0x60, 0x80, 0x60, 0x40, 0x52, 0x34}
)

// MockBytecodeSource is a mock implementation of BytecodeSource
type MockBytecodeSource struct {
	mock.Mock
}

func (m *MockBytecodeSource) Bytecode(ctx context.Context, contract string, addr common.Address) ([]byte, error) {
	args := m.Called(ctx, contract, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockConsumerPublisher is a mock implementation of ConsumerPublisher
type MockConsumerPublisher struct {
	mock.Mock
}

func (m *MockConsumerPublisher) Publish(ctx context.Context, info *domain.RegistryInfo) ([]string, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type recordingProgress struct {
	usecase.NopProgress
	stages []string
}

func (r *recordingProgress) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	r.stages = append(r.stages, event.Stage)
}

type fixture struct {
	node      *devnode.Node
	bytecode  *MockBytecodeSource
	publisher *MockConsumerPublisher
	progress  *recordingProgress
	cfg       *config.RuntimeConfig
	mock      *usecase.EnsMock
}

func newFixture(t *testing.T, accounts ...common.Address) *fixture {
	t.Helper()
	f := &fixture{
		node:      devnode.New(accounts...),
		bytecode:  new(MockBytecodeSource),
		publisher: new(MockConsumerPublisher),
		progress:  &recordingProgress{},
		cfg: &config.RuntimeConfig{
			RPCURL:    "http://localhost:8545",
			Namespace: config.NamespaceHardhat,
			Ens:       config.DefaultEnsMockConfig(),
		},
	}
	f.bytecode.On("Bytecode", mock.Anything, domain.ContractRegistry, domain.RegistryAddress).Return(registryCode, nil).Maybe()
	f.bytecode.On("Bytecode", mock.Anything, domain.ContractResolver, domain.DefaultResolverAddress).Return(resolverCode, nil).Maybe()
	t.Cleanup(func() { f.bytecode.AssertExpectations(t) })
	return f
}

func (f *fixture) build() *usecase.EnsMock {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := rpc.NewStateClient(f.node, config.NamespaceHardhat, log)
	f.mock = usecase.NewEnsMock(client, f.bytecode, f.publisher, f.cfg, f.progress, log)
	return f.mock
}

func rootOwner(node *devnode.Node) common.Hash {
	return node.Storage(domain.RegistryAddress, ens.SlotsFor(ens.RootNode).Owner)
}

func TestEnsureRegistryDeployed_InstallsOnce(t *testing.T) {
	f := newFixture(t, accountA)
	m := f.build()
	ctx := context.Background()

	first, err := m.EnsureRegistryDeployed(ctx)
	require.NoError(t, err)
	assert.True(t, first.RegistryInstalled)
	assert.Nil(t, first.ResolverAddress)
	assert.Equal(t, registryCode, f.node.Code(domain.RegistryAddress))

	second, err := m.EnsureRegistryDeployed(ctx)
	require.NoError(t, err)
	assert.False(t, second.RegistryInstalled)

	assert.Equal(t, 1, f.node.CountCalls("hardhat_setCode"))
	f.bytecode.AssertNumberOfCalls(t, "Bytecode", 1)
}

func TestEnsureRegistryDeployed_ExistingCodeUntouched(t *testing.T) {
	f := newFixture(t, accountA)
	existing := []byte{0xfe}
	f.node.SetCode(domain.RegistryAddress, existing)

	result, err := f.build().EnsureRegistryDeployed(context.Background())
	require.NoError(t, err)
	assert.False(t, result.RegistryInstalled)
	assert.Equal(t, existing, f.node.Code(domain.RegistryAddress))
	assert.Zero(t, f.node.CountCalls("hardhat_setCode"))
}

func TestEnsureRegistryDeployed_WithDefaultResolver(t *testing.T) {
	f := newFixture(t, accountA)
	f.cfg.Ens.InstallDefaultResolver = true

	result, err := f.build().EnsureRegistryDeployed(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.ResolverAddress)
	assert.Equal(t, domain.DefaultResolverAddress, *result.ResolverAddress)
	assert.True(t, result.ResolverInstalled)
	assert.Equal(t, resolverCode, f.node.Code(domain.DefaultResolverAddress))
}

func TestEnsureRegistryDeployed_BytecodeUnavailable(t *testing.T) {
	f := &fixture{
		node:      devnode.New(accountA),
		bytecode:  new(MockBytecodeSource),
		publisher: new(MockConsumerPublisher),
		progress:  &recordingProgress{},
		cfg:       &config.RuntimeConfig{Ens: config.DefaultEnsMockConfig()},
	}
	f.bytecode.On("Bytecode", mock.Anything, domain.ContractRegistry, domain.RegistryAddress).
		Return(nil, domain.ErrBytecodeUnavailable)

	_, err := f.build().EnsureRegistryDeployed(context.Background())
	require.ErrorIs(t, err, domain.ErrBytecodeUnavailable)
	assert.Zero(t, f.node.CountCalls("hardhat_setCode"))
}

func TestSetupMock_SecondAccountBecomesRootOwner(t *testing.T) {
	f := newFixture(t, accountA, accountB)

	result, err := f.build().SetupMock(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, accountB, result.Owner)
	assert.Equal(t, 1, result.OwnerIndex)
	assert.Equal(t, common.HexToHash("0xad3228b676f7d3cd4284a5443f17f1962b36e491b30a40b2405849e597ba5fb5"), result.RootOwnerSlot)
	assert.Equal(t, ens.PadAddress(accountB), rootOwner(f.node))
	assert.NotEmpty(t, f.node.Code(domain.RegistryAddress))
	assert.Empty(t, result.Published)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)

	assert.Equal(t, []string{
		usecase.StageCheckingCode,
		usecase.StageInstalling,
		usecase.StageWritingSlot,
	}, f.progress.stages)
}

func TestSetupMock_Idempotent(t *testing.T) {
	f := newFixture(t, accountA, accountB)
	m := f.build()
	ctx := context.Background()

	_, err := m.SetupMock(ctx, 0)
	require.NoError(t, err)
	before := f.node.StorageSnapshot(domain.RegistryAddress)

	_, err = m.SetupMock(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, before, f.node.StorageSnapshot(domain.RegistryAddress))
	assert.Equal(t, 1, f.node.CountCalls("hardhat_setCode"))
}

func TestSetupMock_AccountIndexOutOfRange(t *testing.T) {
	f := newFixture(t, accountA, accountB, accountC)

	_, err := f.build().SetupMock(context.Background(), 5)
	require.ErrorIs(t, err, domain.ErrAccountIndexOutOfRange)

	var idxErr domain.AccountIndexErr
	require.True(t, errors.As(err, &idxErr))
	assert.Equal(t, 5, idxErr.Index)
	assert.Equal(t, 3, idxErr.Accounts)

	assert.Zero(t, f.node.CountCalls("hardhat_setStorageAt"))
	assert.Equal(t, common.Hash{}, rootOwner(f.node))
}

func TestSetupMock_NegativeIndexMakesNoCalls(t *testing.T) {
	f := newFixture(t, accountA)

	_, err := f.build().SetupMock(context.Background(), -1)
	require.ErrorIs(t, err, domain.ErrAccountIndexOutOfRange)
	assert.Empty(t, f.node.Calls())
}

func TestSetupMock_DefaultResolver(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
	}{
		{"disabled", false},
		{"enabled", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, accountA)
			f.cfg.Ens.InstallDefaultResolver = tt.enabled

			result, err := f.build().SetupMock(context.Background(), 0)
			require.NoError(t, err)

			slots := ens.SlotsFor(ens.MustNameHash(domain.DefaultResolverDomain))
			word := f.node.Storage(domain.RegistryAddress, slots.Resolver)
			if tt.enabled {
				assert.Equal(t, ens.PadAddress(domain.DefaultResolverAddress), word)
				assert.Equal(t, domain.DefaultResolverDomain, result.DefaultDomain)
				assert.NotEmpty(t, f.node.Code(domain.DefaultResolverAddress))
			} else {
				assert.Equal(t, common.Hash{}, word)
				assert.Empty(t, result.DefaultDomain)
				assert.Empty(t, f.node.Code(domain.DefaultResolverAddress))
			}
		})
	}
}

func TestSetupMock_PublishesToConsumers(t *testing.T) {
	f := newFixture(t, accountA, accountB)
	f.cfg.Ens.Consumers = []domain.Consumer{domain.ConsumerDotenv}
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(info *domain.RegistryInfo) bool {
		return info.RegistryAddress == domain.RegistryAddress &&
			info.Owner == accountB &&
			info.ChainID == 31337 &&
			info.RPCURL == "http://localhost:8545" &&
			info.ResolverAddress == nil
	})).Return([]string{"/tmp/.env"}, nil)

	result, err := f.build().SetupMock(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/.env"}, result.Published)
	f.publisher.AssertExpectations(t)
}

func TestSetupMock_PublishFailure(t *testing.T) {
	f := newFixture(t, accountA)
	f.cfg.Ens.Consumers = []domain.Consumer{domain.ConsumerJSON}
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

	_, err := f.build().SetupMock(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSetupMock_NodeUnreachable(t *testing.T) {
	f := newFixture(t, accountA)
	f.node.Fail = errors.New("connection refused")

	_, err := f.build().SetupMock(context.Background(), 0)
	require.ErrorIs(t, err, domain.ErrNodeUnreachable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSetupMock_WithTransportTargetsOtherNode(t *testing.T) {
	f := newFixture(t, accountA)
	other := devnode.New(accountC)

	result, err := f.build().SetupMock(context.Background(), 0, usecase.WithTransport(other))
	require.NoError(t, err)
	assert.Equal(t, accountC, result.Owner)
	assert.Equal(t, ens.PadAddress(accountC), rootOwner(other))
	assert.Empty(t, f.node.Calls())
}

func TestSetDomainOwner_RoundTrip(t *testing.T) {
	f := newFixture(t, accountA)
	m := f.build()
	ctx := context.Background()

	require.NoError(t, m.SetDomainOwner(ctx, "eth", accountA.Hex()))
	require.NoError(t, m.SetDomainOwner(ctx, "foo.eth", accountB.Hex()))

	record, err := m.GetDomainRecord(ctx, "foo.eth")
	require.NoError(t, err)
	assert.Equal(t, accountB, record.Owner)
	assert.Equal(t, common.HexToHash("0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"), record.Node)

	parent, err := m.GetDomainRecord(ctx, "eth")
	require.NoError(t, err)
	assert.Equal(t, accountA, parent.Owner)

	child, err := m.GetDomainRecord(ctx, "bar.foo.eth")
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, child.Owner)

	// Does not deploy
	assert.Zero(t, f.node.CountCalls("hardhat_setCode"))
	assert.Zero(t, f.node.CountCalls("eth_getCode"))
}

func TestSetDomainOwner_OverwriteLeavesOthers(t *testing.T) {
	f := newFixture(t, accountA)
	m := f.build()
	ctx := context.Background()

	require.NoError(t, m.SetDomainOwner(ctx, "other.eth", accountA.Hex()))
	require.NoError(t, m.SetDomainOwner(ctx, "random.eth", accountA.Hex()))
	require.NoError(t, m.SetDomainOwner(ctx, "random.eth", accountB.Hex()))

	random, err := ens.SlotsForDomain("random.eth")
	require.NoError(t, err)
	other, err := ens.SlotsForDomain("other.eth")
	require.NoError(t, err)

	assert.Equal(t, ens.PadAddress(accountB), f.node.Storage(domain.RegistryAddress, random.Owner))
	assert.Equal(t, ens.PadAddress(accountA), f.node.Storage(domain.RegistryAddress, other.Owner))
	assert.Len(t, f.node.StorageSnapshot(domain.RegistryAddress), 2)
}

func TestSetDomainOwner_NormalizesName(t *testing.T) {
	f := newFixture(t, accountA)
	m := f.build()
	ctx := context.Background()

	require.NoError(t, m.SetDomainOwner(ctx, "Foo.ETH", accountB.Hex()))

	record, err := m.GetDomainRecord(ctx, "foo.eth")
	require.NoError(t, err)
	assert.Equal(t, accountB, record.Owner)
}

func TestSetDomainResolver_OnlyTouchesResolverSlot(t *testing.T) {
	f := newFixture(t, accountA)
	m := f.build()
	ctx := context.Background()

	require.NoError(t, m.SetDomainOwner(ctx, "foo.eth", accountA.Hex()))
	require.NoError(t, m.SetDomainResolver(ctx, "foo.eth", domain.DefaultResolverAddress.Hex()))

	record, err := m.GetDomainRecord(ctx, "foo.eth")
	require.NoError(t, err)
	assert.Equal(t, accountA, record.Owner)
	assert.Equal(t, domain.DefaultResolverAddress, record.Resolver)
	assert.Zero(t, record.TTL)
}

func TestSetDomainField_ValidationBeforeRPC(t *testing.T) {
	tests := []struct {
		name    string
		domain  string
		address string
		wantErr error
	}{
		{"bad address", "foo.eth", "0x1234", domain.ErrInvalidAddress},
		{"not hex", "foo.eth", "not-an-address", domain.ErrInvalidAddress},
		{"empty label", "foo..eth", accountA.Hex(), domain.ErrInvalidDomain},
		{"bad address wins over bad domain", "foo..eth", "0x1234", domain.ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, accountA)
			m := f.build()
			ctx := context.Background()

			err := m.SetDomainOwner(ctx, tt.domain, tt.address)
			require.ErrorIs(t, err, tt.wantErr)

			err = m.SetDomainResolver(ctx, tt.domain, tt.address)
			require.ErrorIs(t, err, tt.wantErr)

			assert.Empty(t, f.node.Calls())
		})
	}
}

func TestWriteStorage_RoundTrip(t *testing.T) {
	f := newFixture(t, accountA)
	m := f.build()
	ctx := context.Background()

	written, err := m.WriteStorage(ctx, "0x5", accountB.Hex())
	require.NoError(t, err)
	assert.Equal(t, common.BigToHash(big.NewInt(5)), written.Slot)
	assert.Equal(t, ens.PadAddress(accountB), written.Value)

	read, err := m.ReadStorage(ctx, "0x0000000000000000000000000000000000000000000000000000000000000005")
	require.NoError(t, err)
	assert.Equal(t, ens.PadAddress(accountB), read.Value)
	assert.Equal(t, []string{usecase.StageWritingSlot}, f.progress.stages)
}

func TestStorage_InvalidSlotBeforeRPC(t *testing.T) {
	tests := []struct {
		name  string
		slot  string
		value string
	}{
		{"missing prefix", "5", "0x1"},
		{"not hex", "0xzz", "0x1"},
		{"too wide", "0x1" + strings.Repeat("0", 64), "0x1"},
		{"bad value", "0x1", "0xzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, accountA)
			m := f.build()

			_, err := m.WriteStorage(context.Background(), tt.slot, tt.value)
			require.ErrorIs(t, err, domain.ErrInvalidSlot)
			assert.Empty(t, f.node.Calls())
		})
	}

	f := newFixture(t, accountA)
	_, err := f.build().ReadStorage(context.Background(), "slot-0")
	require.ErrorIs(t, err, domain.ErrInvalidSlot)
	assert.Empty(t, f.node.Calls())
}

func TestNewEnsMock_LeavesSharedConfigAlone(t *testing.T) {
	f := newFixture(t, accountA)
	f.cfg.Ens = nil
	m := f.build()

	_, err := m.SetupMock(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, f.cfg.Ens)
}

func TestParseAddress(t *testing.T) {
	addr, err := usecase.ParseAddress("0xBBbbBBbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	require.NoError(t, err)
	assert.Equal(t, accountB, addr)

	_, err = usecase.ParseAddress("")
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}
