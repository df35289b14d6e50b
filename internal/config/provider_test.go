package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/domain/config"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("rpc-url", "", "")
	cmd.Flags().String("namespace", "", "")
	cmd.Flags().Int("owner-account", 0, "")
	cmd.Flags().StringSlice("consumer", nil, "")
	cmd.Flags().Bool("debug", false, "")
	return cmd
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func loadConfig(t *testing.T, dir string, cmd *cobra.Command) (*config.RuntimeConfig, error) {
	t.Helper()
	v, err := SetupViper(dir, cmd)
	if err != nil {
		return nil, err
	}
	return Provider(v)
}

func TestProvider_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig(t, dir, newTestCmd())
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, config.NamespaceHardhat, cfg.Namespace)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.Empty(t, cfg.ConfigSource)

	require.NotNil(t, cfg.Ens)
	assert.True(t, cfg.Ens.Enabled)
	assert.Equal(t, 0, cfg.Ens.OwnerAccount)
	assert.False(t, cfg.Ens.InstallDefaultResolver)
	assert.Equal(t, domain.DefaultResolverDomain, cfg.Ens.DefaultDomain)
	assert.Empty(t, cfg.Ens.BytecodeRPCURL)
	assert.Equal(t, "/tmp", cfg.Ens.CacheDir)
	assert.Empty(t, cfg.Ens.Consumers)
}

func TestProvider_EnsFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ARTIFACTS", "out")
	writeFile(t, dir, EnsFileName, `
rpc_url = "http://127.0.0.1:9545"
namespace = "anvil"

[ens]
owner_account = 2
install_default_resolver = true
registry_bytecode = "${ARTIFACTS}/ENSRegistry.json"
consumers = ["dotenv", "yaml"]
`)

	cfg, err := loadConfig(t, dir, newTestCmd())
	require.NoError(t, err)

	assert.Equal(t, EnsFileName, cfg.ConfigSource)
	assert.Equal(t, "http://127.0.0.1:9545", cfg.RPCURL)
	assert.Equal(t, config.NamespaceAnvil, cfg.Namespace)
	assert.Equal(t, 2, cfg.Ens.OwnerAccount)
	assert.True(t, cfg.Ens.InstallDefaultResolver)
	assert.Equal(t, "out/ENSRegistry.json", cfg.Ens.RegistryBytecode)
	assert.Equal(t, []domain.Consumer{domain.ConsumerDotenv, domain.ConsumerYAML}, cfg.Ens.Consumers)
	// Untouched keys keep their defaults
	assert.True(t, cfg.Ens.Enabled)
	assert.Equal(t, domain.DefaultResolverDomain, cfg.Ens.DefaultDomain)
}

func TestProvider_EnsFileUnknownKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, EnsFileName, `
[ens]
owner = 1
`)

	_, err := loadConfig(t, dir, newTestCmd())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
	assert.Contains(t, err.Error(), "ens.owner")
}

func TestProvider_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, EnsFileName, `
rpc_url = "http://from-file:8545"
[ens]
owner_account = 1
`)
	t.Setenv("ENSMOCK_RPC_URL", "http://from-env:8545")
	t.Setenv("ENSMOCK_ENS_OWNER_ACCOUNT", "2")

	cmd := newTestCmd()
	require.NoError(t, cmd.Flags().Set("owner-account", "3"))

	cfg, err := loadConfig(t, dir, cmd)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:8545", cfg.RPCURL)
	assert.Equal(t, 3, cfg.Ens.OwnerAccount)
}

func TestProvider_DotenvFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "ENSMOCK_NAMESPACE=anvil\nENSMOCK_ENS_CONSUMERS=json,dotenv\n")
	// godotenv.Load writes the process environment; register restores first
	for _, key := range []string{"ENSMOCK_NAMESPACE", "ENSMOCK_ENS_CONSUMERS"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := loadConfig(t, dir, newTestCmd())
	require.NoError(t, err)

	assert.Equal(t, config.NamespaceAnvil, cfg.Namespace)
	assert.Equal(t, []domain.Consumer{domain.ConsumerJSON, domain.ConsumerDotenv}, cfg.Ens.Consumers)
}

func TestProvider_ConsumerFlag(t *testing.T) {
	dir := t.TempDir()
	cmd := newTestCmd()
	require.NoError(t, cmd.Flags().Set("consumer", "yaml"))
	require.NoError(t, cmd.Flags().Set("consumer", "json"))

	cfg, err := loadConfig(t, dir, cmd)
	require.NoError(t, err)
	assert.Equal(t, []domain.Consumer{domain.ConsumerYAML, domain.ConsumerJSON}, cfg.Ens.Consumers)
}

func TestProvider_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown namespace",
			env:     map[string]string{"ENSMOCK_NAMESPACE": "ganache"},
			wantMsg: "unsupported namespace",
		},
		{
			name:    "unknown consumer",
			env:     map[string]string{"ENSMOCK_ENS_CONSUMERS": "ethers"},
			wantErr: domain.ErrUnknownConsumer,
		},
		{
			name:    "negative owner account",
			env:     map[string]string{"ENSMOCK_ENS_OWNER_ACCOUNT": "-1"},
			wantErr: domain.ErrAccountIndexOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := loadConfig(t, t.TempDir(), newTestCmd())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "foundry.toml", "[profile.default]\n")
	nested := filepath.Join(root, "script", "deploy")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	found, err := FindProjectRoot()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "ens.owner_account", FlagKey("owner-account"))
	assert.Equal(t, "rpc_url", FlagKey("rpc-url"))
	assert.Equal(t, "json", FlagKey("json"))
}
