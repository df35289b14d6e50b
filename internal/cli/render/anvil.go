package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// AnvilRenderer renders anvil operation results
type AnvilRenderer struct {
	out io.Writer
	ens *EnsRenderer
}

// NewAnvilRenderer creates a new anvil renderer
func NewAnvilRenderer(out io.Writer) *AnvilRenderer {
	return &AnvilRenderer{out: out, ens: NewEnsRenderer(out)}
}

// Render renders the anvil operation result
func (r *AnvilRenderer) Render(result *usecase.ManageAnvilResult) error {
	switch result.Operation {
	case "start", "restart":
		return r.renderStart(result)
	case "stop":
		return r.renderStop(result)
	case "status":
		return r.renderStatus(result)
	default:
		return fmt.Errorf("unknown operation: %s", result.Operation)
	}
}

func (r *AnvilRenderer) renderStart(result *usecase.ManageAnvilResult) error {
	if !result.Success {
		return nil
	}
	fmt.Fprintln(r.out, FormatSuccess(result.Message))
	color.New(color.FgYellow).Fprintf(r.out, "📋 Logs: %s\n", result.Status.LogFile)
	color.New(color.FgBlue).Fprintf(r.out, "🌐 RPC URL: %s\n", result.Status.RPCURL)

	if result.Setup != nil {
		return r.ens.RenderSetup(result.Setup)
	}
	color.New(color.FgHiBlack).Fprintln(r.out, "ENS mock not installed")
	return nil
}

func (r *AnvilRenderer) renderStop(result *usecase.ManageAnvilResult) error {
	if result.Success {
		fmt.Fprintln(r.out, FormatSuccess(result.Message))
	}
	return nil
}

func (r *AnvilRenderer) renderStatus(result *usecase.ManageAnvilResult) error {
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "📊 Anvil Status ('%s'):\n", result.Instance.Name)

	status := result.Status
	if !status.Running {
		color.New(color.FgRed).Fprintln(r.out, "Status: 🔴 Not running")
		color.New(color.FgHiBlack).Fprintf(r.out, "PID file: %s\n", result.Instance.PidFile)
		color.New(color.FgHiBlack).Fprintf(r.out, "Log file: %s\n", result.Instance.LogFile)
		return nil
	}

	color.New(color.FgGreen).Fprintf(r.out, "Status: 🟢 Running (PID %d)\n", status.PID)
	color.New(color.FgBlue).Fprintf(r.out, "RPC URL: %s\n", status.RPCURL)
	color.New(color.FgYellow).Fprintf(r.out, "Log file: %s\n", status.LogFile)

	if status.RPCHealthy {
		color.New(color.FgGreen).Fprintln(r.out, "RPC Health: ✅ Responding")
	} else {
		color.New(color.FgRed).Fprintf(r.out, "RPC Health: ❌ Not responding (%s)\n", status.Error)
		return nil
	}

	if status.RegistryDeployed {
		color.New(color.FgGreen).Fprintf(r.out, "ENS Registry: ✅ Installed at %s\n", status.RegistryAddress)
	} else {
		color.New(color.FgRed).Fprintln(r.out, "ENS Registry: ❌ Not installed (run 'ensmock setup')")
	}
	return nil
}

// RenderLogsHeader renders the header for logs streaming
func (r *AnvilRenderer) RenderLogsHeader(result *usecase.ManageAnvilResult) error {
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "📋 Showing anvil '%s' logs (Ctrl+C to exit):\n", result.Instance.Name)
	color.New(color.FgHiBlack).Fprintf(r.out, "Log file: %s\n\n", result.Status.LogFile)
	return nil
}

var _ Renderer[*usecase.ManageAnvilResult] = (*AnvilRenderer)(nil)
