package utils

import (
	"math/big"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// PackEthAddress packs an Ethereum address into the uint160 integer used to
// pass it to TON contracts.
//
// Parameters:
// - addr: the Ethereum address.
//
// Returns:
// - *big.Int: the integer representation of the address.
func PackEthAddress(addr common.Address) *big.Int {
	return new(big.Int).SetBytes(addr.Bytes())
}

// ParseEthAddress parses a 0x-prefixed hex address.
//
// Parameters:
// - s: the hex address.
//
// Returns:
// - common.Address: the parsed address.
// - error: ErrInvalidAddress if s is not a 20-byte hex string.
func ParseEthAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Wrapf(relayerrors.ErrInvalidAddress, "%q", s)
	}
	return common.HexToAddress(s), nil
}
