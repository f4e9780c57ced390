// Package account decodes serialized account snapshots into the code and
// data of the contract they hold.
package account

import (
	"math/big"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// stateHashBits is the size of the state hash kept by frozen accounts.
const stateHashBits = 256

// State is the lifecycle state of an account.
type State uint8

const (
	StateNone State = iota
	StateUninit
	StateActive
	StateFrozen
)

// String returns a human readable account state.
func (s State) String() string {
	switch s {
	case StateUninit:
		return "uninit"
	case StateActive:
		return "active"
	case StateFrozen:
		return "frozen"
	default:
		return "none"
	}
}

// Account is a decoded account snapshot.
type Account struct {
	Address     *address.Address
	StorageInfo tlb.StorageInfo
	LastTransLt uint64
	Balance     tlb.Coins
	State       State
	StateInit   *tlb.StateInit // set for active accounts
	StateHash   []byte         // set for frozen accounts
}

// Parse decodes a BOC holding an Account.
//
// Parameters:
// - boc: the serialized account snapshot.
//
// Returns:
// - *Account: the decoded account.
// - error: ErrAccountStateDecode if the snapshot is malformed.
func Parse(boc []byte) (*Account, error) {
	root, err := cell.FromBOC(boc)
	if err != nil {
		return nil, errors.Wrap(relayerrors.ErrAccountStateDecode, err.Error())
	}

	var state tlb.AccountState
	if err := state.LoadFromCell(root.BeginParse()); err != nil {
		return nil, errors.Wrap(relayerrors.ErrAccountStateDecode, err.Error())
	}
	acc, err := fromState(&state)
	if err != nil {
		return nil, errors.Wrap(relayerrors.ErrAccountStateDecode, err.Error())
	}
	return acc, nil
}

// Decode extracts the code and data of an active account.
//
// Parameters:
// - boc: the serialized account snapshot.
//
// Returns:
// - *cell.Cell: the contract code.
// - *cell.Cell: the contract persistent data.
// - error: ErrAccountStateDecode, ErrAccountNotActive, ErrAccountWithoutCode or
// ErrAccountWithoutData.
func Decode(boc []byte) (*cell.Cell, *cell.Cell, error) {
	acc, err := Parse(boc)
	if err != nil {
		return nil, nil, err
	}
	if acc.State != StateActive {
		return nil, nil, errors.Wrapf(relayerrors.ErrAccountNotActive, "account is %s", acc.State)
	}
	if acc.StateInit.Code == nil {
		return nil, nil, relayerrors.ErrAccountWithoutCode
	}
	if acc.StateInit.Data == nil {
		return nil, nil, relayerrors.ErrAccountWithoutData
	}
	return acc.StateInit.Code, acc.StateInit.Data, nil
}

func fromState(state *tlb.AccountState) (*Account, error) {
	acc := &Account{}
	if !state.IsValid {
		return acc, nil
	}
	if t := state.Address.Type(); t != address.StdAddress && t != address.VarAddress {
		return nil, errors.New("account address must be internal")
	}

	acc.Address = state.Address
	acc.StorageInfo = state.StorageInfo
	acc.LastTransLt = state.LastTransactionLT
	acc.Balance = state.Balance

	switch state.Status {
	case tlb.AccountStatusActive:
		acc.State = StateActive
		acc.StateInit = state.StateInit
	case tlb.AccountStatusFrozen:
		acc.State = StateFrozen
		acc.StateHash = state.StateHash
	case tlb.AccountStatusUninit:
		acc.State = StateUninit
	default:
		return nil, errors.Errorf("unexpected account status %s", state.Status)
	}
	return acc, nil
}

// ToCell serializes the account. tlb.AccountState only knows how to load
// itself, so the outer layout is written here and the nested structures
// are left to tlb.
func (a *Account) ToCell() (*cell.Cell, error) {
	b := cell.BeginCell()
	if a.State == StateNone {
		if err := b.StoreBoolBit(false); err != nil {
			return nil, err
		}
		return b.EndCell(), nil
	}

	if err := b.StoreBoolBit(true); err != nil {
		return nil, err
	}
	if err := b.StoreAddr(a.Address); err != nil {
		return nil, err
	}
	info, err := tlb.ToCell(storageInfo(a.StorageInfo))
	if err != nil {
		return nil, errors.Wrap(err, "failed to store storage info")
	}
	if err := b.StoreBuilder(info.ToBuilder()); err != nil {
		return nil, err
	}
	if err := b.StoreUInt(a.LastTransLt, 64); err != nil {
		return nil, err
	}
	if err := b.StoreBigCoins(a.Balance.Nano()); err != nil {
		return nil, err
	}
	// no extra currencies
	if err := b.StoreDict(nil); err != nil {
		return nil, err
	}

	switch a.State {
	case StateActive:
		if a.StateInit == nil {
			return nil, errors.New("active account without state init")
		}
		stateInit, err := tlb.ToCell(a.StateInit)
		if err != nil {
			return nil, errors.Wrap(err, "failed to store state init")
		}
		if err := b.StoreBoolBit(true); err != nil {
			return nil, err
		}
		if err := b.StoreBuilder(stateInit.ToBuilder()); err != nil {
			return nil, err
		}
	case StateUninit:
		if err := b.StoreUInt(0b00, 2); err != nil {
			return nil, err
		}
	case StateFrozen:
		if len(a.StateHash)*8 != stateHashBits {
			return nil, errors.New("state hash must be 32 bytes")
		}
		if err := b.StoreUInt(0b01, 2); err != nil {
			return nil, err
		}
		if err := b.StoreSlice(a.StateHash, stateHashBits); err != nil {
			return nil, err
		}
	}
	return b.EndCell(), nil
}

// storageInfo fills unset storage counters with zero.
func storageInfo(info tlb.StorageInfo) tlb.StorageInfo {
	used := &info.StorageUsed
	for _, counter := range []**big.Int{&used.CellsUsed, &used.BitsUsed, &used.PublicCellsUsed} {
		if *counter == nil {
			*counter = new(big.Int)
		}
	}
	return info
}
