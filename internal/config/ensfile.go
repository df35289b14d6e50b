package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// EnsFileName is the optional project config file
const EnsFileName = "ensmock.toml"

// EnsFile mirrors ensmock.toml. Pointer fields distinguish unset keys from
// zero values so that only keys present in the file override defaults.
type EnsFile struct {
	RPCURL    *string `toml:"rpc_url"`
	Namespace *string `toml:"namespace"`
	Timeout   *string `toml:"timeout"`

	Ens EnsSection `toml:"ens"`
}

// EnsSection is the [ens] table
type EnsSection struct {
	Enabled                *bool    `toml:"enabled"`
	OwnerAccount           *int     `toml:"owner_account"`
	InstallDefaultResolver *bool    `toml:"install_default_resolver"`
	DefaultDomain          *string  `toml:"default_domain"`
	RegistryBytecode       *string  `toml:"registry_bytecode"`
	ResolverBytecode       *string  `toml:"resolver_bytecode"`
	BytecodeRPCURL         *string  `toml:"bytecode_rpc_url"`
	CacheDir               *string  `toml:"cache_dir"`
	Consumers              []string `toml:"consumers"`
	OutputDir              *string  `toml:"output_dir"`
}

// LoadEnsFile loads and parses ensmock.toml if it exists.
// Returns (nil, nil) when the file does not exist.
func LoadEnsFile(projectRoot string) (*EnsFile, error) {
	path := filepath.Join(projectRoot, EnsFileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var cfg EnsFile
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", EnsFileName, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", EnsFileName, strings.Join(keys, ", "))
	}

	cfg.expandEnv()
	return &cfg, nil
}

// expandEnv resolves ${VAR} references in string values
func (f *EnsFile) expandEnv() {
	for _, s := range []*string{
		f.RPCURL,
		f.Ens.RegistryBytecode,
		f.Ens.ResolverBytecode,
		f.Ens.BytecodeRPCURL,
		f.Ens.CacheDir,
		f.Ens.OutputDir,
	} {
		if s != nil {
			*s = os.ExpandEnv(*s)
		}
	}
}

// Settings flattens the keys present in the file into viper's nested form
func (f *EnsFile) Settings() map[string]interface{} {
	top := map[string]interface{}{}
	ens := map[string]interface{}{}

	set := func(m map[string]interface{}, key string, value interface{}) {
		switch v := value.(type) {
		case *string:
			if v != nil {
				m[key] = *v
			}
		case *bool:
			if v != nil {
				m[key] = *v
			}
		case *int:
			if v != nil {
				m[key] = *v
			}
		case []string:
			if v != nil {
				m[key] = v
			}
		}
	}

	set(top, "rpc_url", f.RPCURL)
	set(top, "namespace", f.Namespace)
	set(top, "timeout", f.Timeout)

	set(ens, "enabled", f.Ens.Enabled)
	set(ens, "owner_account", f.Ens.OwnerAccount)
	set(ens, "install_default_resolver", f.Ens.InstallDefaultResolver)
	set(ens, "default_domain", f.Ens.DefaultDomain)
	set(ens, "registry_bytecode", f.Ens.RegistryBytecode)
	set(ens, "resolver_bytecode", f.Ens.ResolverBytecode)
	set(ens, "bytecode_rpc_url", f.Ens.BytecodeRPCURL)
	set(ens, "cache_dir", f.Ens.CacheDir)
	set(ens, "consumers", f.Ens.Consumers)
	set(ens, "output_dir", f.Ens.OutputDir)

	if len(ens) > 0 {
		top["ens"] = ens
	}
	return top
}
