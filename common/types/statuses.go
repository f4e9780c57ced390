package types

import (
	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
)

// EventStatus is the voting state of a bridge event contract.
type EventStatus string

const (
	// EventInProcess is the status of an event that is still collecting votes.
	EventInProcess EventStatus = "IN_PROCESS"
	// EventConfirmed is the status of an event that reached the confirmation threshold.
	EventConfirmed EventStatus = "CONFIRMED"
	// EventRejected is the status of an event that reached the rejection threshold.
	EventRejected EventStatus = "REJECTED"
)

// String converts EventStatus to string representation.
func (s EventStatus) String() string {
	return string(s)
}

// ParseEventStatus converts the on-chain status code to EventStatus.
//
// Parameters:
// - code: the status code stored by the contract (0, 1 or 2).
//
// Returns:
// - EventStatus: the decoded status.
// - error: ErrInvalidAbi for any other code.
func ParseEventStatus(code uint8) (EventStatus, error) {
	switch code {
	case 0:
		return EventInProcess, nil
	case 1:
		return EventConfirmed, nil
	case 2:
		return EventRejected, nil
	default:
		return "", relayerrors.ErrInvalidAbi
	}
}

// Code returns the on-chain status code of s.
func (s EventStatus) Code() (uint8, error) {
	switch s {
	case EventInProcess:
		return 0, nil
	case EventConfirmed:
		return 1, nil
	case EventRejected:
		return 2, nil
	default:
		return 0, relayerrors.ErrInvalidAbi
	}
}
