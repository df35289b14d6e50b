package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/ensmock/internal/cli/render"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// NewNodeCmd creates the node command with subcommands
func NewNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage a local anvil node",
		Long: `Manage a local anvil node. Started nodes get the ENS mock installed
unless --skip-mock is given or ens.enabled is false.`,
	}

	cmd.AddCommand(newNodeOpCmd("start", "Start local anvil node", "Start a local anvil node with the ENS mock installed. Fails if already running."))
	cmd.AddCommand(newNodeOpCmd("stop", "Stop local anvil node", "Stop the local anvil node if running."))
	cmd.AddCommand(newNodeOpCmd("restart", "Restart local anvil node", "Restart the local anvil node and install the ENS mock again."))
	cmd.AddCommand(newNodeOpCmd("status", "Show anvil status", "Show status of the local anvil node and whether the registry is installed."))
	cmd.AddCommand(newNodeOpCmd("logs", "Show anvil logs", "Follow logs from the local anvil node."))

	return cmd
}

// anvilFlags holds common flags for anvil commands
type anvilFlags struct {
	name     string
	port     string
	chainID  string
	forkURL  string
	skipMock bool
}

// addAnvilFlags adds common flags to an anvil command
func addAnvilFlags(cmd *cobra.Command, flags *anvilFlags, operation string) {
	cmd.Flags().StringVar(&flags.name, "name", "anvil", "Instance name (e.g. anvil, anvil1)")
	cmd.Flags().StringVar(&flags.port, "port", "8545", "RPC port to bind")
	if operation == "start" || operation == "restart" {
		cmd.Flags().StringVar(&flags.chainID, "chain-id", "", "Chain ID to use for the instance (optional)")
		cmd.Flags().StringVar(&flags.forkURL, "fork-url", "", "Fork state from this RPC URL (optional)")
		cmd.Flags().BoolVar(&flags.skipMock, "skip-mock", false, "Do not install the ENS mock")
		cmd.Flags().Int("owner-account", 0, "Index of the node account that owns the root node")
		cmd.Flags().Bool("default-resolver", false, "Also install the public resolver")
		cmd.Flags().StringSlice("consumer", nil, "Publish the registry address to: dotenv, json, yaml (repeatable)")
	}
}

func newNodeOpCmd(operation, short, long string) *cobra.Command {
	flags := &anvilFlags{}

	cmd := &cobra.Command{
		Use:   operation,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnvilCommand(cmd, operation, flags)
		},
	}

	addAnvilFlags(cmd, flags, operation)
	return cmd
}

// runAnvilCommand executes an anvil management command
func runAnvilCommand(cmd *cobra.Command, operation string, flags *anvilFlags) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	defer stopProgress(a)

	result, err := a.ManageAnvil.Execute(cmd.Context(), usecase.ManageAnvilParams{
		Operation: operation,
		Name:      flags.name,
		Port:      flags.port,
		ChainID:   flags.chainID,
		ForkURL:   flags.forkURL,
		SkipMock:  flags.skipMock,
	})
	if err != nil {
		return err
	}
	stopProgress(a)

	out := cmd.OutOrStdout()
	if operation == "logs" {
		if err := render.NewAnvilRenderer(out).RenderLogsHeader(result); err != nil {
			return err
		}
		return a.AnvilManager.StreamLogs(cmd.Context(), result.Instance, out)
	}

	if a.Config.JSON {
		return render.NewJSONRenderer[*usecase.ManageAnvilResult](out).Render(result)
	}
	return render.NewAnvilRenderer(out).Render(result)
}
