package bytecode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/patrickmn/go-cache"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/domain/config"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// Source resolves contract bytecode from, in order: the in-process memo,
// a configured artifact file, the upstream RPC when one is configured (backed
// by an on-disk cache) and finally the built-in bytecode.
type Source struct {
	projectRoot string
	cfg         *config.EnsMockConfig
	dialer      usecase.NodeDialer
	memo        *cache.Cache
	log         *slog.Logger
}

// NewSource creates a new bytecode source
func NewSource(cfg *config.RuntimeConfig, dialer usecase.NodeDialer, log *slog.Logger) *Source {
	ensCfg := cfg.Ens
	if ensCfg == nil {
		ensCfg = config.DefaultEnsMockConfig()
	}
	return &Source{
		projectRoot: cfg.ProjectRoot,
		cfg:         ensCfg,
		dialer:      dialer,
		memo:        cache.New(cache.NoExpiration, 0),
		log:         log.With("component", "BytecodeSource"),
	}
}

// Bytecode returns the runtime bytecode to install for contract at addr
func (s *Source) Bytecode(ctx context.Context, contract string, addr common.Address) ([]byte, error) {
	key := memoKey(contract, addr)
	if cached, ok := s.memo.Get(key); ok {
		return cached.([]byte), nil
	}

	code, err := s.resolve(ctx, contract, addr)
	if err != nil {
		return nil, err
	}

	s.memo.Set(key, code, cache.DefaultExpiration)
	return code, nil
}

func (s *Source) resolve(ctx context.Context, contract string, addr common.Address) ([]byte, error) {
	if path := s.artifactPath(contract); path != "" {
		code, err := LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s bytecode from %s: %w", contract, path, err)
		}
		s.log.Debug("loaded bytecode from artifact", "contract", contract, "path", path)
		return code, nil
	}

	if s.cfg.BytecodeRPCURL != "" {
		return s.upstream(ctx, contract, addr)
	}

	code, ok := Embedded(contract)
	if !ok {
		return nil, fmt.Errorf("%w: %s: no artifact configured and no built-in bytecode", domain.ErrBytecodeUnavailable, contract)
	}
	s.log.Debug("using built-in bytecode", "contract", contract)
	return code, nil
}

// upstream reads the disk cache, fetching and caching on a miss
func (s *Source) upstream(ctx context.Context, contract string, addr common.Address) ([]byte, error) {
	cachePath := s.cachePath(contract, addr)
	if code, err := LoadFile(cachePath); err == nil {
		s.log.Debug("loaded bytecode from cache", "contract", contract, "path", cachePath)
		return code, nil
	}

	code, err := s.fetch(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrBytecodeUnavailable, contract, err)
	}

	if err := os.WriteFile(cachePath, []byte(hexutil.Encode(code)), 0644); err != nil {
		s.log.Warn("failed to cache bytecode", "path", cachePath, "error", err)
	}
	return code, nil
}

// fetch reads the code of the same address on the upstream network
func (s *Source) fetch(ctx context.Context, addr common.Address) ([]byte, error) {
	s.log.Debug("fetching bytecode", "rpc", s.cfg.BytecodeRPCURL, "address", addr.Hex())
	transport, closeFn, err := s.dialer.Dial(ctx, s.cfg.BytecodeRPCURL)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var code hexutil.Bytes
	if err := transport.CallContext(ctx, &code, "eth_getCode", addr, "latest"); err != nil {
		return nil, fmt.Errorf("eth_getCode on %s: %w", s.cfg.BytecodeRPCURL, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("no contract at %s on %s", addr.Hex(), s.cfg.BytecodeRPCURL)
	}
	return code, nil
}

func (s *Source) artifactPath(contract string) string {
	var path string
	switch contract {
	case domain.ContractRegistry:
		path = s.cfg.RegistryBytecode
	case domain.ContractResolver:
		path = s.cfg.ResolverBytecode
	}
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.projectRoot, path)
}

func (s *Source) cachePath(contract string, addr common.Address) string {
	dir := s.cfg.CacheDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("ensmock-%s-%s.bytecode", contract, addr.Hex()))
}

func memoKey(contract string, addr common.Address) string {
	return contract + "@" + addr.Hex()
}

// artifact covers Foundry ({"deployedBytecode": {"object": "0x.."}}) and
// Hardhat ({"deployedBytecode": "0x.."}) artifact shapes
type artifact struct {
	DeployedBytecode json.RawMessage `json:"deployedBytecode"`
}

// LoadFile reads bytecode from an artifact JSON or a raw hex file
func LoadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes bytecode from artifact JSON or raw hex
func Parse(data []byte) ([]byte, error) {
	content := strings.TrimSpace(string(data))
	if strings.HasPrefix(content, "{") {
		hex, err := artifactBytecode([]byte(content))
		if err != nil {
			return nil, err
		}
		content = hex
	}

	if !strings.HasPrefix(content, "0x") {
		content = "0x" + content
	}
	code, err := hexutil.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode hex: %w", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("bytecode is empty")
	}
	return code, nil
}

func artifactBytecode(data []byte) (string, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return "", fmt.Errorf("failed to parse artifact: %w", err)
	}
	if len(a.DeployedBytecode) == 0 {
		return "", fmt.Errorf("artifact has no deployedBytecode")
	}

	var hex string
	if err := json.Unmarshal(a.DeployedBytecode, &hex); err == nil {
		return hex, nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(a.DeployedBytecode, &obj); err != nil {
		return "", fmt.Errorf("unexpected deployedBytecode shape: %w", err)
	}
	return obj.Object, nil
}

var _ usecase.BytecodeSource = (*Source)(nil)
