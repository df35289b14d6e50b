package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/domain/config"
)

// ManageAnvil handles anvil node management operations. Started nodes get
// the ENS mock installed when it is enabled.
type ManageAnvil struct {
	anvilManager AnvilManager
	ensMock      *EnsMock
	dialer       NodeDialer
	cfg          *config.RuntimeConfig
	progress     ProgressSink
}

// NewManageAnvil creates a new anvil management use case
func NewManageAnvil(
	anvilManager AnvilManager,
	ensMock *EnsMock,
	dialer NodeDialer,
	cfg *config.RuntimeConfig,
	progress ProgressSink,
) *ManageAnvil {
	return &ManageAnvil{
		anvilManager: anvilManager,
		ensMock:      ensMock,
		dialer:       dialer,
		cfg:          cfg,
		progress:     progress,
	}
}

// ManageAnvilParams contains parameters for anvil operations
type ManageAnvilParams struct {
	Operation string // start, stop, restart, status, logs
	Name      string
	Port      string
	ChainID   string
	ForkURL   string
	SkipMock  bool
}

// ManageAnvilResult contains the result of anvil operations
type ManageAnvilResult struct {
	Operation string
	Instance  *domain.AnvilInstance
	Status    *domain.AnvilStatus
	Setup     *SetupResult
	Success   bool
	Message   string
}

// Execute performs the anvil management operation
func (m *ManageAnvil) Execute(ctx context.Context, params ManageAnvilParams) (*ManageAnvilResult, error) {
	instance := &domain.AnvilInstance{
		Name:    params.Name,
		Port:    params.Port,
		ChainID: params.ChainID,
		ForkURL: params.ForkURL,
	}

	switch params.Operation {
	case "start":
		return m.start(ctx, instance, params.SkipMock)
	case "stop":
		return m.stop(ctx, instance)
	case "restart":
		return m.restart(ctx, instance, params.SkipMock)
	case "status":
		return m.status(ctx, instance, "status")
	case "logs":
		return m.status(ctx, instance, "logs")
	default:
		return nil, fmt.Errorf("unknown operation: %s", params.Operation)
	}
}

func (m *ManageAnvil) start(ctx context.Context, instance *domain.AnvilInstance, skipMock bool) (*ManageAnvilResult, error) {
	m.progress.Info(fmt.Sprintf("🔨 Starting local anvil node '%s' on port %s...", instance.Name, instance.Port))

	status, err := m.anvilManager.GetStatus(ctx, instance)
	if err == nil && status.Running {
		return nil, fmt.Errorf("anvil '%s' is already running (PID %d)", instance.Name, status.PID)
	}

	if err := m.anvilManager.Start(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to start anvil: %w", err)
	}

	return m.afterStart(ctx, instance, "start", skipMock)
}

func (m *ManageAnvil) stop(ctx context.Context, instance *domain.AnvilInstance) (*ManageAnvilResult, error) {
	m.progress.Info(fmt.Sprintf("🛑 Stopping anvil '%s'...", instance.Name))

	status, err := m.anvilManager.GetStatus(ctx, instance)
	if err != nil || !status.Running {
		return &ManageAnvilResult{
			Operation: "stop",
			Instance:  instance,
			Success:   true,
			Message:   fmt.Sprintf("Anvil '%s' is not running", instance.Name),
		}, nil
	}

	if err := m.anvilManager.Stop(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to stop anvil: %w", err)
	}

	return &ManageAnvilResult{
		Operation: "stop",
		Instance:  instance,
		Success:   true,
		Message:   "Anvil stopped",
	}, nil
}

func (m *ManageAnvil) restart(ctx context.Context, instance *domain.AnvilInstance, skipMock bool) (*ManageAnvilResult, error) {
	m.progress.Info(fmt.Sprintf("🔄 Restarting anvil '%s'...", instance.Name))

	status, err := m.anvilManager.GetStatus(ctx, instance)
	if err == nil && status.Running {
		if err := m.anvilManager.Stop(ctx, instance); err != nil {
			return nil, fmt.Errorf("failed to stop anvil: %w", err)
		}
	}

	if err := m.anvilManager.Start(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to start anvil: %w", err)
	}

	return m.afterStart(ctx, instance, "restart", skipMock)
}

// afterStart installs the mock on the fresh node and collects its status
func (m *ManageAnvil) afterStart(ctx context.Context, instance *domain.AnvilInstance, operation string, skipMock bool) (*ManageAnvilResult, error) {
	status, err := m.anvilManager.GetStatus(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to get status after %s: %w", operation, err)
	}

	verb := "started"
	if operation == "restart" {
		verb = "restarted"
	}
	result := &ManageAnvilResult{
		Operation: operation,
		Instance:  instance,
		Status:    status,
		Success:   true,
		Message:   fmt.Sprintf("Anvil '%s' %s with PID %d", instance.Name, verb, status.PID),
	}

	settings := m.cfg.Ens
	if settings == nil {
		settings = config.DefaultEnsMockConfig()
	}
	if skipMock || !settings.Enabled {
		return result, nil
	}

	transport, closeFn, err := m.dialer.Dial(ctx, status.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to anvil '%s': %w", instance.Name, err)
	}
	defer closeFn()

	setup, err := m.ensMock.SetupMock(ctx, settings.OwnerAccount, WithTransport(transport))
	if err != nil {
		return nil, fmt.Errorf("failed to set up ENS mock on anvil '%s': %w", instance.Name, err)
	}
	result.Setup = setup

	// Refresh so the status reflects the installed registry
	if status, err = m.anvilManager.GetStatus(ctx, instance); err == nil {
		result.Status = status
	}

	return result, nil
}

func (m *ManageAnvil) status(ctx context.Context, instance *domain.AnvilInstance, operation string) (*ManageAnvilResult, error) {
	status, err := m.anvilManager.GetStatus(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	return &ManageAnvilResult{
		Operation: operation,
		Instance:  instance,
		Status:    status,
		Success:   true,
	}, nil
}
