// Package tvm prepares synthetic contract invocations for an external TVM
// engine and extracts the messages the contract sends in reply.
package tvm

import (
	"context"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Engine executes contract code. Implementations must be deterministic:
// identical requests yield identical results.
type Engine interface {
	// Execute runs the request's code with its stack and registers.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - req: code, persistent data (c4), contract info (c7), stack and gas.
	//
	// Returns:
	// - *ExecutionResult: the exit code, final stack and output actions (c5).
	// - error: an error if the engine could not run the code at all.
	Execute(ctx context.Context, req *ExecutionRequest) (*ExecutionResult, error)
}

// GasLimits mirrors the TVM gas state.
type GasLimits struct {
	Limit  int64
	Max    int64
	Credit int64
	Price  int64
}

// SmartContractInfo carries the c7 fields visible to the contract.
type SmartContractInfo struct {
	Address  *address.Address
	Balance  *big.Int
	UnixTime uint32
	BlockLt  uint64
	TransLt  uint64
	RandSeed []byte
}

// ExecutionRequest is a single engine invocation.
type ExecutionRequest struct {
	Code  *cell.Cell        // Contract code.
	Data  *cell.Cell        // Persistent data installed into c4.
	Info  SmartContractInfo // Contract info installed into c7.
	Stack []StackEntry      // Initial stack, bottom first.
	Gas   GasLimits
}

// ExecutionResult is the outcome of a finished execution.
type ExecutionResult struct {
	ExitCode int32
	GasUsed  int64
	Stack    []StackEntry // Final stack, bottom first.
	Data     *cell.Cell   // Final c4, nil when unchanged.
	Actions  *cell.Cell   // Final c5, the output action list.
}

// Success reports whether the exit code is one of the two success codes.
func (r *ExecutionResult) Success() bool {
	return r.ExitCode == 0 || r.ExitCode == 1
}
