package types

import (
	"time"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultEngineTimeout bounds a single external engine run.
const DefaultEngineTimeout = 30 * time.Second

// Config holds the configuration of the event reader.
//
// Fields:
// - SchemaVersion: layout of the getDetails reply and of the payload envelope.
// - EngineCommand: executable of the external TVM engine.
// - EngineArgs: extra arguments passed to the engine executable.
// - EngineTimeout: upper bound for a single engine run.
// - LogLevel: logrus level name for the logger a builder creates when none
// is supplied. Empty keeps the logrus default.
type Config struct {
	SchemaVersion SchemaVersion
	EngineCommand string
	EngineArgs    []string
	EngineTimeout time.Duration
	LogLevel      string
}

// Validate checks that the configuration can be used to build a reader.
//
// Returns:
// - error: ErrInvalidSchemaVersion or ErrInvalidConfig when a field is unusable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.Wrap(relayerrors.ErrInvalidConfig, "config is nil")
	}
	if c.SchemaVersion != SchemaV1 && c.SchemaVersion != SchemaV2 {
		return errors.Wrapf(relayerrors.ErrInvalidSchemaVersion, "%q", c.SchemaVersion)
	}
	if c.EngineTimeout < 0 {
		return errors.Wrap(relayerrors.ErrInvalidConfig, "negative engine timeout")
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return errors.Wrap(relayerrors.ErrInvalidConfig, err.Error())
		}
	}
	return nil
}
