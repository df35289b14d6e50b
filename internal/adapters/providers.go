package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/ensmock/internal/adapters/anvil"
	"github.com/trebuchet-org/ensmock/internal/adapters/bytecode"
	"github.com/trebuchet-org/ensmock/internal/adapters/consumers"
	"github.com/trebuchet-org/ensmock/internal/adapters/progress"
	"github.com/trebuchet-org/ensmock/internal/adapters/rpc"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// RPCSet provides the node state client and the dialer for other nodes
var RPCSet = wire.NewSet(
	rpc.ProvideStateClient,
	wire.Bind(new(usecase.StateClient), new(*rpc.StateClient)),

	rpc.NewDialer,
	wire.Bind(new(usecase.NodeDialer), new(*rpc.Dialer)),
)

// BytecodeSet provides contract bytecode resolution
var BytecodeSet = wire.NewSet(
	bytecode.NewSource,
	wire.Bind(new(usecase.BytecodeSource), new(*bytecode.Source)),
)

// ConsumerSet provides registry address publishing
var ConsumerSet = wire.NewSet(
	consumers.NewPublisher,
	wire.Bind(new(usecase.ConsumerPublisher), new(*consumers.Publisher)),
)

// AnvilSet provides local node management
var AnvilSet = wire.NewSet(
	anvil.NewManager,
	wire.Bind(new(usecase.AnvilManager), new(*anvil.Manager)),
)

// ProgressSet provides the progress sink for the current output mode
var ProgressSet = wire.NewSet(
	progress.ProvideProgressSink,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	RPCSet,
	BytecodeSet,
	ConsumerSet,
	AnvilSet,
	ProgressSet,
)
