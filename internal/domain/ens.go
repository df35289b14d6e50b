package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

// Well-known mainnet addresses. The mocked contracts are installed at the same
// addresses so that bytecode with baked-in references keeps working.
var (
	// RegistryAddress is the ENS registry (with fallback)
	RegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

	// DefaultResolverAddress is the ENS public resolver
	DefaultResolverAddress = common.HexToAddress("0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63")
)

// DefaultResolverDomain is the domain whose resolver slot points at the
// default resolver when that step is enabled
const DefaultResolverDomain = "resolver.eth"

// Contract names understood by bytecode sources
const (
	ContractRegistry = "registry"
	ContractResolver = "resolver"
)

// Slots holds the three storage words of a registry record
type Slots struct {
	Owner    common.Hash `json:"owner"`
	Resolver common.Hash `json:"resolver"`
	TTL      common.Hash `json:"ttl"`
}

// Record is a registry record as read back from node storage
type Record struct {
	Domain   string         `json:"domain"`
	Node     common.Hash    `json:"node"`
	Owner    common.Address `json:"owner"`
	Resolver common.Address `json:"resolver"`
	// TTL is read from owner+2. The deployed registry keeps ttl packed next
	// to the resolver and never reads this word.
	TTL   uint64 `json:"ttl"`
	Slots Slots  `json:"slots"`
}

// RegistryInfo is what consumers receive once the mock is set up
type RegistryInfo struct {
	RegistryAddress common.Address  `json:"registryAddress" yaml:"registryAddress"`
	ResolverAddress *common.Address `json:"resolverAddress,omitempty" yaml:"resolverAddress,omitempty"`
	Owner           common.Address  `json:"owner" yaml:"owner"`
	ChainID         uint64          `json:"chainId,omitempty" yaml:"chainId,omitempty"`
	RPCURL          string          `json:"rpcUrl,omitempty" yaml:"rpcUrl,omitempty"`
}

// Consumer identifies a sink that is told where the mocked registry lives
type Consumer string

const (
	ConsumerDotenv Consumer = "dotenv"
	ConsumerJSON   Consumer = "json"
	ConsumerYAML   Consumer = "yaml"
)

// AllConsumers lists the consumers that can be negotiated
var AllConsumers = []Consumer{ConsumerDotenv, ConsumerJSON, ConsumerYAML}

// NegotiateConsumers turns configured names into the explicit consumer set.
// Duplicates collapse; unknown names fail.
func NegotiateConsumers(names []string) ([]Consumer, error) {
	var out []Consumer
	seen := make(map[Consumer]bool)
	for _, name := range names {
		c := Consumer(strings.ToLower(strings.TrimSpace(name)))
		if c == "" {
			continue
		}
		if !lo.Contains(AllConsumers, c) {
			return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownConsumer, name, strings.Join(lo.Map(AllConsumers, func(c Consumer, _ int) string { return string(c) }), ", "))
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
