package tvm

import (
	"math/big"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// StackEntry is a TVM stack value. The set of implementations is closed.
type StackEntry interface {
	isStackEntry()
}

type (
	// NullEntry is the TVM null value.
	NullEntry struct{}

	// IntEntry is a 257-bit signed integer.
	IntEntry struct {
		Value *big.Int
	}

	CellEntry struct {
		Cell *cell.Cell
	}

	// SliceEntry is a slice spanning the whole of Cell.
	SliceEntry struct {
		Cell *cell.Cell
	}
)

func (NullEntry) isStackEntry()  {}
func (IntEntry) isStackEntry()   {}
func (CellEntry) isStackEntry()  {}
func (SliceEntry) isStackEntry() {}

// NewIntEntry is a shorthand for an integer entry.
func NewIntEntry(v int64) IntEntry {
	return IntEntry{Value: big.NewInt(v)}
}
