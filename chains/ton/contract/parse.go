package contract

import (
	"math/big"

	"github.com/ClipFinance/ton-relay-lib/chains/ton/abi"
	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/holiman/uint256"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// The parse functions below turn a generic ABI value into a typed field.
// Every shape mismatch is reported as ErrInvalidAbi without further detail.

func parseBigUint(v abi.Value) (*big.Int, error) {
	u, ok := v.(abi.UintValue)
	if !ok || u.Number == nil || u.Number.Sign() < 0 {
		return nil, relayerrors.ErrInvalidAbi
	}
	return new(big.Int).Set(u.Number), nil
}

// parseUint reads an unsigned integer whose value fits into bits.
func parseUint(v abi.Value, bits int) (uint64, error) {
	n, err := parseBigUint(v)
	if err != nil {
		return 0, err
	}
	if n.BitLen() > bits {
		return 0, relayerrors.ErrInvalidAbi
	}
	return n.Uint64(), nil
}

func parseUint256(v abi.Value) (*uint256.Int, error) {
	n, err := parseBigUint(v)
	if err != nil {
		return nil, err
	}
	u, overflow := uint256.FromBig(n)
	if overflow {
		return nil, relayerrors.ErrInvalidAbi
	}
	return u, nil
}

func parseCell(v abi.Value) (*cell.Cell, error) {
	c, ok := v.(abi.CellValue)
	if !ok || c.Cell == nil {
		return nil, relayerrors.ErrInvalidAbi
	}
	return c.Cell, nil
}

// parseAddress accepts internal addresses only.
func parseAddress(v abi.Value) (*address.Address, error) {
	a, ok := v.(abi.AddressValue)
	if !ok || a.Address == nil {
		return nil, relayerrors.ErrInvalidAbi
	}
	switch a.Address.Type() {
	case address.StdAddress, address.VarAddress:
		return a.Address, nil
	default:
		return nil, relayerrors.ErrInvalidAbi
	}
}

func parseAddresses(v abi.Value) ([]*address.Address, error) {
	arr, ok := v.(abi.ArrayValue)
	if !ok {
		return nil, relayerrors.ErrInvalidAbi
	}
	addrs := make([]*address.Address, 0, len(arr.Items))
	for _, item := range arr.Items {
		addr, err := parseAddress(item)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func parseBytesList(v abi.Value) ([][]byte, error) {
	arr, ok := v.(abi.ArrayValue)
	if !ok {
		return nil, relayerrors.ErrInvalidAbi
	}
	list := make([][]byte, 0, len(arr.Items))
	for _, item := range arr.Items {
		b, ok := item.(abi.BytesValue)
		if !ok {
			return nil, relayerrors.ErrInvalidAbi
		}
		list = append(list, append([]byte{}, b...))
	}
	return list, nil
}

func parseTuple(v abi.Value) ([]abi.Token, error) {
	t, ok := v.(abi.TupleValue)
	if !ok {
		return nil, relayerrors.ErrInvalidAbi
	}
	return t, nil
}
