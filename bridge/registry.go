package bridge

import (
	"context"
	"sort"
	"sync"

	"github.com/ClipFinance/ton-relay-lib/chains/ton/tvm"
	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Registry holds one bridge per schema version and reads contracts whose
// version is not known in advance.
type Registry struct {
	logger       *logrus.Logger
	engine       tvm.Engine
	bridges      map[types.SchemaVersion]*Bridge
	bridgesMutex sync.RWMutex
}

// NewRegistry creates an empty registry.
//
// Parameters:
// - engine: the engine shared by all bridges; nil starts the engine named by
// each configuration.
// - logger: the logger for logging events.
//
// Returns:
// - *Registry: a new Registry instance.
func NewRegistry(engine tvm.Engine, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		logger:  logger,
		engine:  engine,
		bridges: make(map[types.SchemaVersion]*Bridge),
	}
}

// Add builds a bridge for config and registers it under its schema version,
// replacing any previous one.
//
// Parameters:
// - config: the bridge configuration.
//
// Returns:
// - error: an error if the bridge cannot be built.
func (r *Registry) Add(config *types.Config) error {
	builder := NewBuilder(config).WithLogger(r.logger)
	if r.engine != nil {
		builder = builder.WithEngine(r.engine)
	}
	b, err := builder.Build()
	if err != nil {
		return err
	}

	r.bridgesMutex.Lock()
	r.bridges[config.SchemaVersion] = b
	r.bridgesMutex.Unlock()

	return nil
}

// Get returns the bridge registered for version, or nil.
func (r *Registry) Get(version types.SchemaVersion) *Bridge {
	r.bridgesMutex.RLock()
	b := r.bridges[version]
	r.bridgesMutex.RUnlock()
	return b
}

// Remove unregisters the bridge of version.
func (r *Registry) Remove(version types.SchemaVersion) {
	r.bridgesMutex.Lock()
	delete(r.bridges, version)
	r.bridgesMutex.Unlock()
}

// GetDetails reads an event contract with every registered bridge, newest
// schema version first, and returns the first successful read.
//
// Parameters:
// - ctx: the context for managing the request.
// - accountState: the BOC serialized account state of the event contract.
//
// Returns:
// - *types.EventDetails: the decoded details.
// - *Bridge: the bridge that decoded them.
// - error: the error of the last attempt if no bridge could read the contract.
func (r *Registry) GetDetails(ctx context.Context, accountState []byte) (*types.EventDetails, *Bridge, error) {
	r.bridgesMutex.RLock()
	versions := make([]types.SchemaVersion, 0, len(r.bridges))
	for version := range r.bridges {
		versions = append(versions, version)
	}
	r.bridgesMutex.RUnlock()

	if len(versions) == 0 {
		return nil, nil, errors.Wrap(relayerrors.ErrInvalidConfig, "no bridges registered")
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })

	var lastErr error
	for _, version := range versions {
		b := r.Get(version)
		if b == nil {
			continue
		}
		details, err := b.GetDetails(ctx, accountState)
		if err == nil {
			return details, b, nil
		}
		if errors.Is(err, relayerrors.ErrAccountStateDecode) ||
			errors.Is(err, relayerrors.ErrAccountNotActive) ||
			errors.Is(err, relayerrors.ErrAccountWithoutCode) ||
			errors.Is(err, relayerrors.ErrAccountWithoutData) {
			return nil, nil, err
		}

		r.logger.WithFields(logrus.Fields{
			"version": version,
			"error":   err,
		}).Debug("schema version did not match")
		lastErr = err
	}
	return nil, nil, lastErr
}
