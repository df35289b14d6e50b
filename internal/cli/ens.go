package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/ensmock/internal/app"
	"github.com/trebuchet-org/ensmock/internal/cli/render"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/ens"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// NewSetupCmd creates the setup command
func NewSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install the registry and take ownership of the root node",
		Long: `Install the ENS registry bytecode at its mainnet address if missing, then make
one of the node's accounts the owner of the root node. With --default-resolver
the public resolver is installed too and resolver.eth points at it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			defer stopProgress(a)

			result, err := a.EnsMock.SetupMock(cmd.Context(), a.Config.Ens.OwnerAccount)
			if err != nil {
				return err
			}
			stopProgress(a)

			if a.Config.JSON {
				return render.NewJSONRenderer[*usecase.SetupResult](cmd.OutOrStdout()).Render(result)
			}
			return render.NewEnsRenderer(cmd.OutOrStdout()).RenderSetup(result)
		},
	}

	cmd.Flags().Int("owner-account", 0, "Index of the node account that owns the root node")
	cmd.Flags().Bool("default-resolver", false, "Also install the public resolver and point the default domain at it")
	cmd.Flags().String("default-domain", "", "Domain pointed at the public resolver (default resolver.eth)")
	cmd.Flags().StringSlice("consumer", nil, "Publish the registry address to: dotenv, json, yaml (repeatable)")
	cmd.Flags().String("output-dir", "", "Directory for published files (default project root)")
	addBytecodeFlags(cmd)
	return cmd
}

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Install the registry bytecode without touching storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			defer stopProgress(a)

			result, err := a.EnsMock.EnsureRegistryDeployed(cmd.Context())
			if err != nil {
				return err
			}
			stopProgress(a)

			if a.Config.JSON {
				return render.NewJSONRenderer[*usecase.DeployResult](cmd.OutOrStdout()).Render(result)
			}
			return render.NewEnsRenderer(cmd.OutOrStdout()).RenderDeploy(result)
		},
	}

	cmd.Flags().Bool("default-resolver", false, "Also install the public resolver")
	addBytecodeFlags(cmd)
	return cmd
}

func addBytecodeFlags(cmd *cobra.Command) {
	cmd.Flags().String("bytecode-rpc-url", "", "Fetch bytecode from this RPC instead of using the built-in code")
	cmd.Flags().String("cache-dir", "", "Directory caching fetched bytecode (default /tmp)")
}

// NewDomainCmd creates the domain command group
func NewDomainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domain",
		Short: "Read and write registry records",
	}

	cmd.AddCommand(newDomainSetCmd("set-owner", "owner", "Set the owner of a domain",
		func(a *app.App, cmd *cobra.Command, name, value string) error {
			return a.EnsMock.SetDomainOwner(cmd.Context(), name, value)
		}))
	cmd.AddCommand(newDomainSetCmd("set-resolver", "resolver", "Set the resolver of a domain",
		func(a *app.App, cmd *cobra.Command, name, value string) error {
			return a.EnsMock.SetDomainResolver(cmd.Context(), name, value)
		}))
	cmd.AddCommand(newDomainShowCmd())

	return cmd
}

func newDomainSetCmd(use, field, short string, set func(*app.App, *cobra.Command, string, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <domain> <address>", use),
		Short: short,
		Long: short + `. Only the record of the given domain changes; parent and child
domains keep their own records. The registry must already be installed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			defer stopProgress(a)

			name, value := args[0], args[1]
			if err := set(a, cmd, name, value); err != nil {
				return err
			}
			stopProgress(a)

			addr, _ := usecase.ParseAddress(value)
			if a.Config.JSON {
				return render.NewJSONRenderer[map[string]string](cmd.OutOrStdout()).Render(map[string]string{
					"domain": name,
					field:    addr.Hex(),
				})
			}
			return render.NewEnsRenderer(cmd.OutOrStdout()).RenderDomainUpdate(name, field, addr)
		},
	}
}

func newDomainShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <domain>",
		Short: "Show the registry record of a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			record, err := a.EnsMock.GetDomainRecord(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if a.Config.JSON {
				return render.NewJSONRenderer[*domain.Record](cmd.OutOrStdout()).Render(record)
			}
			return render.NewEnsRenderer(cmd.OutOrStdout()).RenderRecord(record)
		},
	}
}

// NewStorageCmd creates the storage command group for raw registry words
func NewStorageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Read and write raw registry storage words",
		Long: `Read and write raw registry storage. Slots are QUANTITY ("0x5") or full
32-byte words; values may also be addresses, which are left-padded.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <slot>",
		Short: "Read a registry storage word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			word, err := a.EnsMock.ReadStorage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderStorage(cmd, a, word)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <slot> <value>",
		Short: "Write a registry storage word",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			defer stopProgress(a)

			word, err := a.EnsMock.WriteStorage(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			stopProgress(a)
			return renderStorage(cmd, a, word)
		},
	})

	return cmd
}

func renderStorage(cmd *cobra.Command, a *app.App, word *usecase.StorageWord) error {
	if a.Config.JSON {
		return render.NewJSONRenderer[*usecase.StorageWord](cmd.OutOrStdout()).Render(word)
	}
	return render.NewEnsRenderer(cmd.OutOrStdout()).RenderStorage(word)
}

// NewSlotsCmd creates the slots command. It needs no node.
func NewSlotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots <domain>",
		Short: "Print the namehash and registry storage slots of a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := ens.NameHash(args[0])
			if err != nil {
				return err
			}
			slots := ens.SlotsFor(node)

			if jsonFlag(cmd) {
				return render.NewJSONRenderer[map[string]any](cmd.OutOrStdout()).Render(map[string]any{
					"domain": args[0],
					"node":   node,
					"slots":  slots,
				})
			}
			return render.NewEnsRenderer(cmd.OutOrStdout()).RenderSlots(args[0], node, slots)
		},
	}
}

func jsonFlag(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("json")
	return err == nil && v
}

// stopProgress halts a running spinner before results are printed
func stopProgress(a *app.App) {
	if s, ok := a.Progress.(interface{ Stop() }); ok {
		s.Stop()
	}
}
