package errors

import "github.com/pkg/errors"

var (
	// Account state decoding.
	ErrAccountStateDecode = errors.New("failed to decode account state")
	ErrAccountNotActive   = errors.New("account is not active")
	ErrAccountWithoutCode = errors.New("account doesn't have code")
	ErrAccountWithoutData = errors.New("account doesn't have data")

	// Call simulation.
	ErrMessageSerialization = errors.New("failed to serialize message")
	ErrInvalidMessageType   = errors.New("invalid message type")
	ErrExecutionFailed      = errors.New("TVM execution failed")
	ErrInvalidActions       = errors.New("failed to parse actions")
	ErrNoOutputMessages     = errors.New("no output messages found")
	ErrMessageWithoutBody   = errors.New("out message must have a body")
	ErrEngineNotConfigured  = errors.New("execution engine not configured")

	// ABI handling.
	ErrInvalidAbi      = errors.New("invalid ABI")
	ErrInvalidSchema   = errors.New("invalid ABI schema")
	ErrEncodeInput     = errors.New("failed to encode input")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrIntegerOverflow = errors.New("integer overflow")

	// Configuration.
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrInvalidSchemaVersion = errors.New("invalid schema version")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrInvalidSignature     = errors.New("invalid signature")
)
