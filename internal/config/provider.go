package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/domain/config"
)

// EnvPrefix prefixes every environment override, e.g. ENSMOCK_RPC_URL
const EnvPrefix = "ENSMOCK"

// Files that mark a project root, nearest first
var projectMarkers = []string{
	EnsFileName,
	"foundry.toml",
	"hardhat.config.ts",
	"hardhat.config.js",
}

// Flags whose viper key is not the flag name with dashes replaced
var flagKeys = map[string]string{
	"owner-account":    "ens.owner_account",
	"default-resolver": "ens.install_default_resolver",
	"default-domain":   "ens.default_domain",
	"consumer":         "ens.consumers",
	"output-dir":       "ens.output_dir",
	"cache-dir":        "ens.cache_dir",
	"bytecode-rpc-url": "ens.bytecode_rpc_url",
}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		if projectRoot, err = FindProjectRoot(); err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	namespace, err := parseNamespace(v.GetString("namespace"))
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:  projectRoot,
		RPCURL:       v.GetString("rpc_url"),
		Namespace:    namespace,
		Debug:        v.GetBool("debug"),
		JSON:         v.GetBool("json"),
		Timeout:      v.GetDuration("timeout"),
		ConfigSource: v.GetString("config_source"),
	}

	ens, err := ensConfig(v)
	if err != nil {
		return nil, err
	}
	cfg.Ens = ens

	return cfg, nil
}

func ensConfig(v *viper.Viper) (*config.EnsMockConfig, error) {
	ownerAccount := v.GetInt("ens.owner_account")
	if ownerAccount < 0 {
		return nil, fmt.Errorf("ens.owner_account: %w", domain.AccountIndexErr{Index: ownerAccount})
	}

	consumers, err := domain.NegotiateConsumers(splitList(v.GetStringSlice("ens.consumers")))
	if err != nil {
		return nil, fmt.Errorf("ens.consumers: %w", err)
	}

	return &config.EnsMockConfig{
		Enabled:                v.GetBool("ens.enabled"),
		OwnerAccount:           ownerAccount,
		InstallDefaultResolver: v.GetBool("ens.install_default_resolver"),
		DefaultDomain:          v.GetString("ens.default_domain"),
		RegistryBytecode:       v.GetString("ens.registry_bytecode"),
		ResolverBytecode:       v.GetString("ens.resolver_bytecode"),
		BytecodeRPCURL:         v.GetString("ens.bytecode_rpc_url"),
		CacheDir:               v.GetString("ens.cache_dir"),
		Consumers:              consumers,
		OutputDir:              v.GetString("ens.output_dir"),
	}, nil
}

func parseNamespace(value string) (config.CheatcodeNamespace, error) {
	ns := config.CheatcodeNamespace(strings.ToLower(strings.TrimSpace(value)))
	switch ns {
	case "":
		return config.NamespaceHardhat, nil
	case config.NamespaceHardhat, config.NamespaceAnvil:
		return ns, nil
	}
	return "", fmt.Errorf("unsupported namespace %q (supported: %s, %s)", value, config.NamespaceHardhat, config.NamespaceAnvil)
}

// splitList accepts both repeated values and comma separated env strings
func splitList(values []string) []string {
	return lo.FlatMap(values, func(v string, _ int) []string {
		return strings.Split(v, ",")
	})
}

// FindProjectRoot walks up from the current directory to the nearest project
// marker and falls back to the current directory
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetDefaults registers the built-in defaults
func SetDefaults(v *viper.Viper) {
	ens := config.DefaultEnsMockConfig()

	v.SetDefault("rpc_url", "http://localhost:8545")
	v.SetDefault("namespace", string(config.NamespaceHardhat))
	v.SetDefault("timeout", 5*time.Minute)
	v.SetDefault("debug", false)
	v.SetDefault("json", false)

	v.SetDefault("ens.enabled", ens.Enabled)
	v.SetDefault("ens.owner_account", ens.OwnerAccount)
	v.SetDefault("ens.install_default_resolver", ens.InstallDefaultResolver)
	v.SetDefault("ens.default_domain", ens.DefaultDomain)
	v.SetDefault("ens.registry_bytecode", "")
	v.SetDefault("ens.resolver_bytecode", "")
	v.SetDefault("ens.bytecode_rpc_url", ens.BytecodeRPCURL)
	v.SetDefault("ens.cache_dir", ens.CacheDir)
	v.SetDefault("ens.consumers", []string{})
	v.SetDefault("ens.output_dir", ens.OutputDir)
}

// SetupViper creates and configures a viper instance. Precedence is flags,
// then ENSMOCK_* environment (including .env), then ensmock.toml, then defaults.
func SetupViper(projectRoot string, cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()

	// .env never overrides variables already set in the environment
	envFile := filepath.Join(projectRoot, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	v.SetDefault("project_root", projectRoot)

	fileCfg, err := LoadEnsFile(projectRoot)
	if err != nil {
		return nil, err
	}
	if fileCfg != nil {
		if err := v.MergeConfigMap(fileCfg.Settings()); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", EnsFileName, err)
		}
		v.Set("config_source", EnsFileName)
	}

	if cmd != nil {
		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(FlagKey(f.Name), f)
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	return v, nil
}

// FlagKey maps a flag name to its viper key
func FlagKey(flag string) string {
	if key, ok := flagKeys[flag]; ok {
		return key
	}
	return strings.ReplaceAll(flag, "-", "_")
}
