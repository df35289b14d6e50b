package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/domain/config"
	"github.com/trebuchet-org/ensmock/internal/ens"
)

// Progress stages reported by EnsMock
const (
	StageCheckingCode = "checking_code"
	StageInstalling   = "installing"
	StageWritingSlot  = "writing_slot"
	StagePublishing   = "publishing"
)

// EnsMock mocks the ENS registry on a dev node by installing bytecode and
// writing registry storage directly
type EnsMock struct {
	client    StateClient
	bytecode  BytecodeSource
	publisher ConsumerPublisher
	cfg       *config.RuntimeConfig
	settings  *config.EnsMockConfig
	progress  ProgressSink
	log       *slog.Logger
}

// NewEnsMock creates a new ENS mock use case
func NewEnsMock(
	client StateClient,
	bytecode BytecodeSource,
	publisher ConsumerPublisher,
	cfg *config.RuntimeConfig,
	progress ProgressSink,
	log *slog.Logger,
) *EnsMock {
	ensCfg := cfg.Ens
	if ensCfg == nil {
		ensCfg = config.DefaultEnsMockConfig()
	}
	return &EnsMock{
		client:    client,
		bytecode:  bytecode,
		publisher: publisher,
		cfg:       cfg,
		settings:  ensCfg,
		progress:  progress,
		log:       log.With("component", "EnsMock"),
	}
}

// DeployResult describes what EnsureRegistryDeployed installed
type DeployResult struct {
	RegistryAddress   common.Address `json:"registryAddress"`
	RegistryInstalled bool           `json:"registryInstalled"`

	ResolverAddress   *common.Address `json:"resolverAddress,omitempty"`
	ResolverInstalled bool            `json:"resolverInstalled,omitempty"`
}

// SetupResult contains the result of SetupMock
type SetupResult struct {
	Deploy        *DeployResult  `json:"deploy"`
	OwnerIndex    int            `json:"ownerIndex"`
	Owner         common.Address `json:"owner"`
	RootOwnerSlot common.Hash    `json:"rootOwnerSlot"`
	DefaultDomain string         `json:"defaultDomain,omitempty"`
	Published     []string       `json:"published,omitempty"`
}

// EnsureRegistryDeployed installs the registry bytecode, and the default
// resolver when configured, unless code is already present. Calling it again
// is a no-op.
func (m *EnsMock) EnsureRegistryDeployed(ctx context.Context, opts ...CallOption) (*DeployResult, error) {
	result := &DeployResult{RegistryAddress: domain.RegistryAddress}

	installed, err := m.ensureCode(ctx, domain.ContractRegistry, domain.RegistryAddress, opts)
	if err != nil {
		return nil, err
	}
	result.RegistryInstalled = installed

	if m.settings.InstallDefaultResolver {
		addr := domain.DefaultResolverAddress
		result.ResolverAddress = &addr

		installed, err := m.ensureCode(ctx, domain.ContractResolver, addr, opts)
		if err != nil {
			return nil, err
		}
		result.ResolverInstalled = installed
	}

	return result, nil
}

func (m *EnsMock) ensureCode(ctx context.Context, contract string, addr common.Address, opts []CallOption) (bool, error) {
	m.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageCheckingCode,
		Message: fmt.Sprintf("Checking %s code at %s", contract, addr.Hex()),
		Spinner: true,
	})

	code, err := m.client.GetCode(ctx, addr, opts...)
	if err != nil {
		return false, fmt.Errorf("failed to check %s code: %w", contract, err)
	}
	if len(code) > 0 {
		m.log.Debug("code already present", "contract", contract, "address", addr.Hex(), "size", len(code))
		return false, nil
	}

	bytecode, err := m.bytecode.Bytecode(ctx, contract, addr)
	if err != nil {
		return false, fmt.Errorf("failed to load %s bytecode: %w", contract, err)
	}
	if len(bytecode) == 0 {
		return false, fmt.Errorf("%w: %s bytecode is empty", domain.ErrBytecodeUnavailable, contract)
	}

	m.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageInstalling,
		Message: fmt.Sprintf("Installing %s at %s", contract, addr.Hex()),
		Spinner: true,
	})
	if err := m.client.SetCode(ctx, addr, bytecode, opts...); err != nil {
		return false, fmt.Errorf("failed to install %s: %w", contract, err)
	}

	m.log.Debug("installed code", "contract", contract, "address", addr.Hex(), "size", len(bytecode))
	return true, nil
}

// SetupMock deploys the registry, makes the account at ownerAccountIndex the
// owner of the root node and, when enabled, points the default domain at the
// default resolver. The registry location is then published to consumers.
func (m *EnsMock) SetupMock(ctx context.Context, ownerAccountIndex int, opts ...CallOption) (*SetupResult, error) {
	if ownerAccountIndex < 0 {
		return nil, domain.AccountIndexErr{Index: ownerAccountIndex}
	}

	var defaultSlots domain.Slots
	if m.settings.InstallDefaultResolver {
		slots, err := ens.SlotsForDomain(m.settings.DefaultDomain)
		if err != nil {
			return nil, fmt.Errorf("default resolver domain: %w", err)
		}
		defaultSlots = slots
	}

	deploy, err := m.EnsureRegistryDeployed(ctx, opts...)
	if err != nil {
		return nil, err
	}

	accounts, err := m.client.ListAccounts(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if ownerAccountIndex >= len(accounts) {
		return nil, domain.AccountIndexErr{Index: ownerAccountIndex, Accounts: len(accounts)}
	}
	owner := accounts[ownerAccountIndex]

	rootSlots := ens.SlotsFor(ens.RootNode)
	if err := m.writeSlot(ctx, "root owner", rootSlots.Owner, ens.PadAddress(owner), opts); err != nil {
		return nil, err
	}

	result := &SetupResult{
		Deploy:        deploy,
		OwnerIndex:    ownerAccountIndex,
		Owner:         owner,
		RootOwnerSlot: rootSlots.Owner,
	}

	if m.settings.InstallDefaultResolver {
		if err := m.writeSlot(ctx, "default resolver", defaultSlots.Resolver, ens.PadAddress(domain.DefaultResolverAddress), opts); err != nil {
			return nil, err
		}
		result.DefaultDomain = m.settings.DefaultDomain
	}

	if len(m.settings.Consumers) > 0 {
		published, err := m.publish(ctx, deploy, owner, opts)
		if err != nil {
			return nil, err
		}
		result.Published = published
	}

	m.log.Debug("ENS mock ready", "registry", domain.RegistryAddress.Hex(), "owner", owner.Hex())
	return result, nil
}

func (m *EnsMock) publish(ctx context.Context, deploy *DeployResult, owner common.Address, opts []CallOption) ([]string, error) {
	m.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StagePublishing,
		Message: "Publishing registry address",
	})

	chainID, err := m.client.ChainID(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	info := &domain.RegistryInfo{
		RegistryAddress: deploy.RegistryAddress,
		ResolverAddress: deploy.ResolverAddress,
		Owner:           owner,
		ChainID:         chainID,
		RPCURL:          m.cfg.RPCURL,
	}
	published, err := m.publisher.Publish(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("failed to publish registry address: %w", err)
	}
	return published, nil
}

// SetDomainOwner writes owner into the domain's owner slot. Parent and child
// domains keep their own records.
func (m *EnsMock) SetDomainOwner(ctx context.Context, name, owner string, opts ...CallOption) error {
	return m.setAddressField(ctx, name, owner, "owner", func(s domain.Slots) common.Hash { return s.Owner }, opts)
}

// SetDomainResolver writes resolver into the domain's resolver slot
func (m *EnsMock) SetDomainResolver(ctx context.Context, name, resolver string, opts ...CallOption) error {
	return m.setAddressField(ctx, name, resolver, "resolver", func(s domain.Slots) common.Hash { return s.Resolver }, opts)
}

func (m *EnsMock) setAddressField(
	ctx context.Context,
	name, value, field string,
	pick func(domain.Slots) common.Hash,
	opts []CallOption,
) error {
	addr, err := ParseAddress(value)
	if err != nil {
		return err
	}
	slots, err := ens.SlotsForDomain(name)
	if err != nil {
		return err
	}
	return m.writeSlot(ctx, fmt.Sprintf("%s of %q", field, name), pick(slots), ens.PadAddress(addr), opts)
}

func (m *EnsMock) writeSlot(ctx context.Context, what string, slot, value common.Hash, opts []CallOption) error {
	m.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageWritingSlot,
		Message: fmt.Sprintf("Writing %s", what),
	})
	m.log.Debug("writing slot", "what", what, "slot", slot.Hex(), "value", value.Hex())

	if err := m.client.SetStorageAt(ctx, domain.RegistryAddress, slot, value, opts...); err != nil {
		return fmt.Errorf("failed to write %s: %w", what, err)
	}
	return nil
}

// GetDomainRecord reads the domain's record words back from node storage
func (m *EnsMock) GetDomainRecord(ctx context.Context, name string, opts ...CallOption) (*domain.Record, error) {
	node, err := ens.NameHash(name)
	if err != nil {
		return nil, err
	}
	slots := ens.SlotsFor(node)

	owner, err := m.client.GetStorageAt(ctx, domain.RegistryAddress, slots.Owner, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to read owner: %w", err)
	}
	resolver, err := m.client.GetStorageAt(ctx, domain.RegistryAddress, slots.Resolver, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to read resolver: %w", err)
	}
	ttl, err := m.client.GetStorageAt(ctx, domain.RegistryAddress, slots.TTL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to read ttl: %w", err)
	}

	return &domain.Record{
		Domain:   name,
		Node:     node,
		Owner:    common.BytesToAddress(owner.Bytes()),
		Resolver: common.BytesToAddress(resolver.Bytes()),
		TTL:      new(uint256.Int).SetBytes32(ttl.Bytes()).Uint64(),
		Slots:    slots,
	}, nil
}

// StorageWord is one raw registry storage word
type StorageWord struct {
	Slot  common.Hash `json:"slot"`
	Value common.Hash `json:"value"`
}

// ReadStorage reads a raw registry storage word. slot may be a QUANTITY or
// a full 32-byte word.
func (m *EnsMock) ReadStorage(ctx context.Context, slot string, opts ...CallOption) (*StorageWord, error) {
	position, err := ens.ParseSlot(slot)
	if err != nil {
		return nil, err
	}
	value, err := m.client.GetStorageAt(ctx, domain.RegistryAddress, position, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", position.Hex(), err)
	}
	return &StorageWord{Slot: position, Value: value}, nil
}

// WriteStorage writes a raw registry storage word. Addresses are accepted as
// values and left-padded.
func (m *EnsMock) WriteStorage(ctx context.Context, slot, value string, opts ...CallOption) (*StorageWord, error) {
	position, err := ens.ParseSlot(slot)
	if err != nil {
		return nil, err
	}
	word, err := ens.ParseSlot(value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	if err := m.writeSlot(ctx, "slot "+position.Hex(), position, word, opts); err != nil {
		return nil, err
	}
	return &StorageWord{Slot: position, Value: word}, nil
}

// ParseAddress validates a hex address
func ParseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, value)
	}
	return common.HexToAddress(value), nil
}
