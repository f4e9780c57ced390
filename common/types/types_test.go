package types

import (
	"strings"
	"testing"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
)

func TestEventStatusCodes(t *testing.T) {
	for code, want := range []EventStatus{EventInProcess, EventConfirmed, EventRejected} {
		status, err := ParseEventStatus(uint8(code))
		require.NoError(t, err)
		assert.Equal(t, want, status)

		back, err := status.Code()
		require.NoError(t, err)
		assert.EqualValues(t, code, back)
	}

	_, err := ParseEventStatus(3)
	assert.ErrorIs(t, err, relayerrors.ErrInvalidAbi)

	_, err = EventStatus("PENDING").Code()
	assert.ErrorIs(t, err, relayerrors.ErrInvalidAbi)
}

func TestParseSchemaVersion(t *testing.T) {
	tests := map[string]SchemaVersion{
		"V1": SchemaV1,
		"v2": SchemaV2,
		"":   UnknownSchema,
		"V3": UnknownSchema,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseSchemaVersion(in), in)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{"valid", &Config{SchemaVersion: SchemaV1}, nil},
		{"with engine", &Config{SchemaVersion: SchemaV2, EngineCommand: "engine", EngineTimeout: DefaultEngineTimeout}, nil},
		{"nil", nil, relayerrors.ErrInvalidConfig},
		{"unknown version", &Config{SchemaVersion: UnknownSchema}, relayerrors.ErrInvalidSchemaVersion},
		{"negative timeout", &Config{SchemaVersion: SchemaV1, EngineTimeout: -1}, relayerrors.ErrInvalidConfig},
		{"log level", &Config{SchemaVersion: SchemaV1, LogLevel: "warn"}, nil},
		{"unknown log level", &Config{SchemaVersion: SchemaV1, LogLevel: "loud"}, relayerrors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRawAddress(t *testing.T) {
	for _, raw := range []string{
		"0:" + strings.Repeat("44", 32),
		"-1:" + strings.Repeat("0a", 31) + "ff",
	} {
		addr, err := address.ParseRawAddr(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, RawAddress(addr))
	}
	assert.Empty(t, RawAddress(nil))
}
