package config

import (
	"time"

	"github.com/trebuchet-org/ensmock/internal/domain"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string

	// Node connection
	RPCURL    string
	Namespace CheatcodeNamespace

	// Execution settings
	Debug   bool
	JSON    bool // Output in JSON format
	Timeout time.Duration

	// Config source tracking
	ConfigSource string // "ensmock.toml" or "" when only env/flags were used

	Ens *EnsMockConfig
}

// CheatcodeNamespace selects the method prefix for state-mutation calls
type CheatcodeNamespace string

const (
	NamespaceHardhat CheatcodeNamespace = "hardhat"
	NamespaceAnvil   CheatcodeNamespace = "anvil"
)

// EnsMockConfig controls the mocked registry
type EnsMockConfig struct {
	Enabled      bool
	OwnerAccount int

	// InstallDefaultResolver installs the public resolver and points
	// DefaultDomain's resolver slot at it
	InstallDefaultResolver bool
	DefaultDomain          string

	// Bytecode sources
	RegistryBytecode string // artifact or hex file
	ResolverBytecode string
	BytecodeRPCURL   string // opt-in upstream fetch, built-in bytecode when empty
	CacheDir         string

	// Consumers negotiated once at config resolution
	Consumers []domain.Consumer
	OutputDir string
}

// DefaultEnsMockConfig returns the defaults applied before user overrides
func DefaultEnsMockConfig() *EnsMockConfig {
	return &EnsMockConfig{
		Enabled:       true,
		OwnerAccount:  0,
		DefaultDomain: domain.DefaultResolverDomain,
		CacheDir:      "/tmp",
		OutputDir:     ".",
	}
}
