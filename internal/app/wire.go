//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/ensmock/internal/adapters"
	"github.com/trebuchet-org/ensmock/internal/config"
	"github.com/trebuchet-org/ensmock/internal/logging"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewEnsMock,
		usecase.NewManageAnvil,

		// App
		NewApp,
	)
	return nil, nil, nil
}
