// Package bridge exposes the host entry points of the event reader. A Bridge
// turns an account state into event details and event details into the
// payload relays sign.
package bridge

import (
	"context"

	"github.com/ClipFinance/ton-relay-lib/chains/evm/payload"
	"github.com/ClipFinance/ton-relay-lib/chains/evm/signer"
	"github.com/ClipFinance/ton-relay-lib/chains/evm/utils"
	"github.com/ClipFinance/ton-relay-lib/chains/ton/abi"
	"github.com/ClipFinance/ton-relay-lib/chains/ton/account"
	"github.com/ClipFinance/ton-relay-lib/chains/ton/contract"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Bridge reads bridge event contracts and builds their relay payloads.
// A Bridge holds no mutable state and is safe for concurrent use when its
// engine is.
type Bridge struct {
	config  *types.Config    // Reader configuration.
	reader  *contract.Reader // Reader of the getDetails accessor.
	encoder *payload.Encoder // Encoder of the relay payload.
	logger  *logrus.Logger   // Logger for logging events.
}

// GetConfig returns the bridge configuration.
//
// Returns:
// - *types.Config: the configuration instance.
func (b *Bridge) GetConfig() *types.Config {
	return b.config
}

// GetDetails reads the event details of an event contract.
//
// Parameters:
// - ctx: the context for managing the request.
// - accountState: the BOC serialized account state of the event contract.
//
// Returns:
// - *types.EventDetails: the decoded details.
// - error: an account decoding, simulation or ABI error.
func (b *Bridge) GetDetails(ctx context.Context, accountState []byte) (*types.EventDetails, error) {
	code, data, err := account.Decode(accountState)
	if err != nil {
		return nil, err
	}

	details, err := b.reader.GetDetails(ctx, code, data)
	if err != nil {
		b.logger.WithError(err).Debug("failed to read event details")
		return nil, err
	}
	return details, nil
}

// EncodePayload encodes the relay payload of an event.
//
// Parameters:
// - details: the event details returned by GetDetails.
// - schemaJSON: the event schema, {"name", "inputs", "id"?}.
// - proxy: the destination proxy contract.
//
// Returns:
// - []byte: the Ethereum ABI encoded payload.
// - error: a schema, decoding or mapping error.
func (b *Bridge) EncodePayload(details *types.EventDetails, schemaJSON string, proxy common.Address) ([]byte, error) {
	event, err := abi.ParseEvent([]byte(schemaJSON))
	if err != nil {
		return nil, err
	}
	return b.encoder.Encode(details, event, proxy)
}

// RelaySigners recovers the addresses that signed the payload, one per
// signature in the order they are stored in the event details.
//
// Parameters:
// - details: the event details carrying the relay signatures.
// - payload: the payload the relays signed.
//
// Returns:
// - []common.Address: the recovered addresses.
// - error: ErrInvalidSignature if a signature is malformed.
func (b *Bridge) RelaySigners(details *types.EventDetails, payload []byte) ([]common.Address, error) {
	if details == nil {
		return nil, errors.New("event details are required")
	}

	signers := make([]common.Address, len(details.Signatures))
	for i, signature := range details.Signatures {
		addr, err := signer.RecoverSigner(payload, signature)
		if err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
		signers[i] = addr
	}
	return signers, nil
}

// EncodeEthAddress converts a hex Ethereum address into the decimal uint160
// form used by TON contracts.
//
// Parameters:
// - hexAddr: the 0x prefixed address.
//
// Returns:
// - string: the decimal representation.
// - error: ErrInvalidAddress if hexAddr is not an address.
func EncodeEthAddress(hexAddr string) (string, error) {
	addr, err := utils.ParseEthAddress(hexAddr)
	if err != nil {
		return "", err
	}
	return utils.PackEthAddress(addr).String(), nil
}
