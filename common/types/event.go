package types

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// EventInitData holds the immutable part of a bridge event contract.
//
// Fields:
// - EventTransaction: hash of the transaction that emitted the event.
// - EventTransactionLt: logical time of that transaction.
// - EventTimestamp: unix time of that transaction (SchemaV2 only).
// - EventIndex: index of the event inside the transaction.
// - EventData: event payload, decoded lazily with a caller supplied schema.
// - Configuration: address of the governing event configuration contract.
// - RequiredConfirmations: number of relay confirmations needed.
// - RequiredRejections: number of relay rejections needed.
// - ConfigurationMeta: opaque configuration metadata (SchemaV2 only).
type EventInitData struct {
	EventTransaction      *uint256.Int
	EventTransactionLt    uint64
	EventTimestamp        uint32
	EventIndex            uint32
	EventData             *cell.Cell
	Configuration         *address.Address
	RequiredConfirmations *big.Int
	RequiredRejections    *big.Int
	ConfigurationMeta     *cell.Cell
}

// EventDetails is the decoded reply of the event contract's getDetails accessor.
//
// Fields:
// - Version: schema version the reply was decoded with.
// - InitData: the immutable event data.
// - Status: current voting status.
// - Confirms: relays that confirmed the event, in vote order.
// - Rejections: relays that rejected the event, in vote order.
// - Signatures: relay signatures of the Ethereum payload.
type EventDetails struct {
	Version    SchemaVersion
	InitData   EventInitData
	Status     EventStatus
	Confirms   []*address.Address
	Rejections []*address.Address
	Signatures [][]byte
}
