package types

import "strings"

// SchemaVersion selects the layout of the event contract's getDetails reply
// and of the Ethereum payload envelope.
type SchemaVersion string

const (
	// SchemaV1 is the first layout: uint256 thresholds, no timestamp.
	SchemaV1 SchemaVersion = "V1"
	// SchemaV2 adds the event timestamp and configuration meta, narrows the
	// thresholds to uint16 and appends the proxy address to the envelope.
	SchemaV2 SchemaVersion = "V2"
	// UnknownSchema represents an unsupported layout.
	UnknownSchema SchemaVersion = "UNKNOWN"
)

// String converts SchemaVersion to string representation.
func (v SchemaVersion) String() string {
	return string(v)
}

// ParseSchemaVersion converts string to SchemaVersion representation.
func ParseSchemaVersion(s string) SchemaVersion {
	switch strings.ToUpper(s) {
	case SchemaV1.String():
		return SchemaV1
	case SchemaV2.String():
		return SchemaV2
	default:
		return UnknownSchema
	}
}
