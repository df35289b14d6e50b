package app

import (
	"github.com/trebuchet-org/ensmock/internal/domain/config"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Use cases
	EnsMock     *usecase.EnsMock
	ManageAnvil *usecase.ManageAnvil

	// Adapters (needed for special cases like log streaming)
	AnvilManager usecase.AnvilManager
	Progress     usecase.ProgressSink
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	ensMock *usecase.EnsMock,
	manageAnvil *usecase.ManageAnvil,
	anvilManager usecase.AnvilManager,
	progress usecase.ProgressSink,
) (*App, error) {
	return &App{
		Config:       cfg,
		EnsMock:      ensMock,
		ManageAnvil:  manageAnvil,
		AnvilManager: anvilManager,
		Progress:     progress,
	}, nil
}
