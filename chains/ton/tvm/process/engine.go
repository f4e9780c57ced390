// Package process runs an external TVM implementation as a subprocess. Every
// execution starts the configured command, writes one Request frame to its
// standard input and reads one Response frame from its standard output.
package process

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/ClipFinance/ton-relay-lib/chains/ton/tvm"
	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Engine is a tvm.Engine backed by an external executable.
type Engine struct {
	command string         // Engine executable.
	args    []string       // Extra arguments.
	timeout time.Duration  // Upper bound for a single run.
	logger  *logrus.Logger // Logger for logging events.
}

var _ tvm.Engine = (*Engine)(nil)

// NewEngine creates a subprocess engine from the configuration.
//
// Parameters:
// - config: the configuration holding the engine command, arguments and timeout.
// - logger: the logger for logging events.
//
// Returns:
// - *Engine: a new engine instance.
// - error: ErrEngineNotConfigured if no command is set.
func NewEngine(config *types.Config, logger *logrus.Logger) (*Engine, error) {
	if config == nil || config.EngineCommand == "" {
		return nil, relayerrors.ErrEngineNotConfigured
	}

	timeout := config.EngineTimeout
	if timeout == 0 {
		timeout = types.DefaultEngineTimeout
	}

	return &Engine{
		command: config.EngineCommand,
		args:    config.EngineArgs,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Execute runs the engine process once.
//
// Parameters:
// - ctx: the context for managing the request.
// - req: the execution request.
//
// Returns:
// - *tvm.ExecutionResult: the decoded response.
// - error: an error if the process fails or its response is malformed.
func (e *Engine) Execute(ctx context.Context, req *tvm.ExecutionRequest) (*tvm.ExecutionResult, error) {
	var input bytes.Buffer
	if err := (Request{ExecutionRequest: req}).MarshalWithEncoder(bin.NewBinEncoder(&input)); err != nil {
		return nil, errors.Wrap(err, "failed to encode engine request")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = &input
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger := e.logger.WithField("command", e.command)
	started := time.Now()
	if err := cmd.Run(); err != nil {
		logger.WithError(err).WithField("stderr", stderr.String()).Error("engine process failed")
		return nil, errors.Wrapf(err, "engine process failed: %s", stderr.String())
	}
	logger.WithField("elapsed", time.Since(started)).Debug("engine process finished")

	var res Response
	if err := res.UnmarshalWithDecoder(bin.NewBinDecoder(stdout.Bytes())); err != nil {
		return nil, errors.Wrap(err, "failed to decode engine response")
	}
	return res.ExecutionResult, nil
}
