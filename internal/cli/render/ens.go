package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// EnsRenderer renders ENS mock results
type EnsRenderer struct {
	out io.Writer
}

// NewEnsRenderer creates a new ENS renderer
func NewEnsRenderer(out io.Writer) *EnsRenderer {
	return &EnsRenderer{out: out}
}

// RenderSetup prints what SetupMock changed
func (r *EnsRenderer) RenderSetup(result *usecase.SetupResult) error {
	r.renderDeploy(result.Deploy)
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Root owner set to %s (account #%d)", result.Owner.Hex(), result.OwnerIndex)))
	color.New(color.FgHiBlack).Fprintf(r.out, "   slot %s\n", result.RootOwnerSlot.Hex())

	if result.DefaultDomain != "" && result.Deploy.ResolverAddress != nil {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s resolves through %s", result.DefaultDomain, result.Deploy.ResolverAddress.Hex())))
	}
	for _, path := range result.Published {
		color.New(color.FgYellow).Fprintf(r.out, "📋 Wrote %s\n", path)
	}
	return nil
}

// RenderDeploy prints what EnsureRegistryDeployed installed
func (r *EnsRenderer) RenderDeploy(result *usecase.DeployResult) error {
	r.renderDeploy(result)
	return nil
}

func (r *EnsRenderer) renderDeploy(result *usecase.DeployResult) {
	r.renderInstall("ENS registry", result.RegistryAddress, result.RegistryInstalled)
	if result.ResolverAddress != nil {
		r.renderInstall("Public resolver", *result.ResolverAddress, result.ResolverInstalled)
	}
}

func (r *EnsRenderer) renderInstall(name string, addr common.Address, installed bool) {
	if installed {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s installed at %s", name, addr.Hex())))
		return
	}
	color.New(color.FgBlue).Fprintf(r.out, "ℹ️  %s already present at %s\n", name, addr.Hex())
}

// RenderDomainUpdate confirms a single field write
func (r *EnsRenderer) RenderDomainUpdate(name, field string, value common.Address) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s of %s set to %s", Title(field), name, value.Hex())))
	return nil
}

// RenderRecord prints a record with its storage slots
func (r *EnsRenderer) RenderRecord(record *domain.Record) error {
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "🔎 %s\n", record.Domain)
	color.New(color.FgHiBlack).Fprintf(r.out, "node %s\n\n", record.Node.Hex())

	t := newTable()
	t.AppendHeader(table.Row{"Field", "Value", "Slot"})
	t.AppendRow(table.Row{"owner", FormatAddress(record.Owner), record.Slots.Owner.Hex()})
	t.AppendRow(table.Row{"resolver", FormatAddress(record.Resolver), record.Slots.Resolver.Hex()})
	t.AppendRow(table.Row{"ttl", record.TTL, record.Slots.TTL.Hex()})
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderSlots prints the storage slots of a domain
func (r *EnsRenderer) RenderSlots(name string, node common.Hash, slots domain.Slots) error {
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "🧮 %s\n", name)

	t := newTable()
	t.AppendRow(table.Row{"node", node.Hex()})
	t.AppendRow(table.Row{"owner", slots.Owner.Hex()})
	t.AppendRow(table.Row{"resolver", slots.Resolver.Hex()})
	t.AppendRow(table.Row{"ttl", slots.TTL.Hex()})
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderStorage prints one raw registry storage word
func (r *EnsRenderer) RenderStorage(word *usecase.StorageWord) error {
	t := newTable()
	t.AppendRow(table.Row{"slot", word.Slot.Hex()})
	t.AppendRow(table.Row{"value", word.Value.Hex()})
	fmt.Fprintln(r.out, t.Render())
	return nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Box = table.BoxStyle{
		PaddingRight:     "   ",
		MiddleHorizontal: "─",
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, Colors: text.Colors{text.FgHiBlack}},
	})
	return t
}
