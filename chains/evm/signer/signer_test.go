package signer

import (
	"testing"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	s, err := NewSigner(key)
	require.NoError(t, err)

	payload := []byte("relay payload")
	signature, err := s.Sign(payload)
	require.NoError(t, err)
	require.Len(t, signature, 65)
	assert.Contains(t, []byte{27, 28}, signature[64])

	recovered, err := RecoverSigner(payload, signature)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), recovered)

	other, err := RecoverSigner([]byte("other payload"), signature)
	require.NoError(t, err)
	assert.NotEqual(t, s.Address(), other)
}

func TestRecoverSignerRejectsMalformedSignature(t *testing.T) {
	_, err := RecoverSigner([]byte("payload"), []byte{1, 2, 3})
	assert.ErrorIs(t, err, relayerrors.ErrInvalidSignature)

	bad := make([]byte, 65)
	bad[64] = 30
	_, err = RecoverSigner([]byte("payload"), bad)
	assert.ErrorIs(t, err, relayerrors.ErrInvalidSignature)
}
