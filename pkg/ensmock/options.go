package ensmock

import (
	"log/slog"

	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/domain/config"
)

// Option configures a Mock
type Option func(*options)

type options struct {
	namespace        config.CheatcodeNamespace
	defaultDomain    string
	registryArtifact string
	resolverArtifact string
	static           map[string][]byte
	bytecodeRPCURL   string
	cacheDir         string
	consumers        []string
	outputDir        string
	projectRoot      string
	log              *slog.Logger
}

func defaultOptions() *options {
	return &options{
		namespace: config.NamespaceHardhat,
		static:    map[string][]byte{},
		log:       slog.Default(),
	}
}

// WithNamespace selects the cheatcode prefix: "hardhat" (default) or "anvil"
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = config.CheatcodeNamespace(ns)
	}
}

// WithDefaultResolver installs the public resolver during Setup and points
// domain at it. An empty domain means resolver.eth.
func WithDefaultResolver(name string) Option {
	return func(o *options) {
		if name == "" {
			name = domain.DefaultResolverDomain
		}
		o.defaultDomain = name
	}
}

// WithRegistryBytecode installs code instead of resolving the registry bytecode
func WithRegistryBytecode(code []byte) Option {
	return func(o *options) {
		o.static[domain.ContractRegistry] = code
	}
}

// WithResolverBytecode installs code instead of resolving the resolver bytecode
func WithResolverBytecode(code []byte) Option {
	return func(o *options) {
		o.static[domain.ContractResolver] = code
	}
}

// WithArtifacts reads bytecode from Foundry or Hardhat artifacts, or raw hex files
func WithArtifacts(registry, resolver string) Option {
	return func(o *options) {
		o.registryArtifact = registry
		o.resolverArtifact = resolver
	}
}

// WithBytecodeRPC fetches bytecode from rpcURL instead of using the built-in
// code. An empty URL keeps the built-in code.
func WithBytecodeRPC(rpcURL string) Option {
	return func(o *options) {
		o.bytecodeRPCURL = rpcURL
	}
}

// WithCacheDir caches fetched bytecode in dir
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}

// WithConsumers publishes the registry address after Setup: "dotenv", "json", "yaml"
func WithConsumers(names ...string) Option {
	return func(o *options) {
		o.consumers = append(o.consumers, names...)
	}
}

// WithOutputDir sets where consumer files are written
func WithOutputDir(dir string) Option {
	return func(o *options) {
		o.outputDir = dir
	}
}

// WithProjectRoot resolves relative artifact and output paths against dir
func WithProjectRoot(dir string) Option {
	return func(o *options) {
		o.projectRoot = dir
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}
