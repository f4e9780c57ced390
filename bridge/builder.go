package bridge

import (
	"github.com/ClipFinance/ton-relay-lib/chains/evm/payload"
	"github.com/ClipFinance/ton-relay-lib/chains/ton/contract"
	"github.com/ClipFinance/ton-relay-lib/chains/ton/tvm"
	"github.com/ClipFinance/ton-relay-lib/chains/ton/tvm/process"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Builder is a builder pattern implementation for the bridge facade.
// It allows replacing the bytecode engine and the logger before the
// facade is assembled.
type Builder struct {
	config *types.Config  // Reader configuration.
	engine tvm.Engine     // Engine implementation.
	logger *logrus.Logger // Logger for logging events.
}

// NewBuilder creates a new bridge builder instance.
//
// Parameters:
// - config: the reader configuration.
//
// Returns:
// - *Builder: a new Builder instance.
func NewBuilder(config *types.Config) *Builder {
	return &Builder{
		config: config,
	}
}

// WithEngine sets the engine implementation. Without it the builder starts
// the external engine named by the configuration.
//
// Parameters:
// - engine: the engine implementation.
//
// Returns:
// - *Builder: the updated Builder instance.
func (b *Builder) WithEngine(engine tvm.Engine) *Builder {
	b.engine = engine
	return b
}

// WithLogger sets the logger. Without it the builder creates one at the
// configured log level.
//
// Parameters:
// - logger: the logger for logging events.
//
// Returns:
// - *Builder: the updated Builder instance.
func (b *Builder) WithLogger(logger *logrus.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and creates a new bridge instance.
//
// Returns:
// - *Bridge: a new Bridge instance.
// - error: a configuration error, or ErrEngineNotConfigured when neither an
// engine nor an engine command is available.
func (b *Builder) Build() (*Bridge, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = logrus.New()
		if b.config.LogLevel != "" {
			level, err := logrus.ParseLevel(b.config.LogLevel)
			if err != nil {
				return nil, errors.Wrap(err, "invalid log level")
			}
			logger.SetLevel(level)
		}
	}

	engine := b.engine
	if engine == nil {
		processEngine, err := process.NewEngine(b.config, logger)
		if err != nil {
			return nil, err
		}
		engine = processEngine
	}

	accessor, err := contract.NewAccessor(b.config.SchemaVersion)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create accessor")
	}

	return &Bridge{
		config:  b.config,
		reader:  contract.NewReader(accessor, tvm.NewSimulator(engine, logger), logger),
		encoder: payload.NewEncoder(logger),
		logger:  logger,
	}, nil
}
