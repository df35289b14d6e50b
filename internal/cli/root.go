package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/ensmock/internal/app"
	"github.com/trebuchet-org/ensmock/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// Commands that run without a wired app
var standalone = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
	"slots":      true,
}

// Execute runs the root command and releases the app whether or not the
// command failed
func Execute() error {
	rootCmd, release := NewRootCmd()
	defer release()
	return rootCmd.Execute()
}

// NewRootCmd creates the root command. The returned release func closes the
// node connection and cancels the command timeout. It is safe to call more
// than once.
func NewRootCmd() (*cobra.Command, func()) {
	var cleanup func()
	release := func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}

	rootCmd := &cobra.Command{
		Use:   "ensmock",
		Short: "Mock the ENS registry on a local dev node",
		Long: `ensmock installs the ENS registry at its mainnet address on a local
hardhat or anvil node and writes registry storage directly, so domains can be
owned and resolved without replaying mainnet history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if standalone[cmd.Name()] {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v, err := config.SetupViper(projectRoot, cmd)
			if err != nil {
				return err
			}

			appInstance, appCleanup, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			cleanup = appCleanup

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				prev := cleanup
				cleanup = func() {
					cancel()
					prev()
				}
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("rpc-url", "", "Node RPC URL (default http://localhost:8545)")
	rootCmd.PersistentFlags().StringP("namespace", "s", "", "Cheatcode namespace: hardhat or anvil (default hardhat)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Command timeout (default 5m)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, cmd := range []*cobra.Command{NewSetupCmd(), NewDeployCmd(), NewDomainCmd(), NewStorageCmd(), NewSlotsCmd()} {
		cmd.GroupID = "main"
		rootCmd.AddCommand(cmd)
	}

	nodeCmd := NewNodeCmd()
	nodeCmd.GroupID = "management"
	rootCmd.AddCommand(nodeCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd, release
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return a, nil
}
