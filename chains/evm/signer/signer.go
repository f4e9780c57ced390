package signer

import (
	"crypto/ecdsa"
	"fmt"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// signatureLength is the length of an [R || S || V] signature.
const signatureLength = 65

// Signer is an interface that defines methods for signing relay payloads and
// retrieving the signer's address.
type Signer interface {
	// Sign signs the given payload as an Ethereum personal message.
	//
	// Parameters:
	// - data: the payload to be signed.
	//
	// Returns:
	// - []byte: the signature with V in {27, 28}.
	// - error: an error if the signing process fails.
	Sign(data []byte) ([]byte, error)

	// Address returns the signer's address.
	//
	// Returns:
	// - common.Address: the signer's address.
	Address() common.Address
}

// signer is a concrete implementation of the Signer interface.
type signer struct {
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
	address    common.Address
}

// NewSigner creates a new signer instance with the given private key.
//
// Parameters:
// - privateKey: the private key to be used for signing.
//
// Returns:
// - Signer: a new signer instance.
// - error: an error if the private key is not valid.
func NewSigner(privateKey *ecdsa.PrivateKey) (Signer, error) {
	pubKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("cannot assign public key to ECDSA")
	}

	return &signer{
		privateKey: privateKey,
		publicKey:  pubKeyECDSA,
		address:    crypto.PubkeyToAddress(*pubKeyECDSA),
	}, nil
}

// Sign signs the given payload as an Ethereum personal message.
//
// Parameters:
// - data: the payload to be signed.
//
// Returns:
// - []byte: the signature.
// - error: an error if the signing process fails.
func (s *signer) Sign(data []byte) ([]byte, error) {
	signature, err := crypto.Sign(messageHash(data), s.privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign message")
	}
	signature[64] += 27 // Transform V from 0/1 to 27/28 according to the yellow paper

	return signature, nil
}

// Address returns the signer's address.
//
// Returns:
// - common.Address: the signer's address.
func (s *signer) Address() common.Address {
	return s.address
}

// RecoverSigner returns the address that produced signature over data.
//
// Parameters:
// - data: the signed payload.
// - signature: a 65-byte signature with V in {0, 1} or {27, 28}.
//
// Returns:
// - common.Address: the signer's address.
// - error: ErrInvalidSignature if the signature is malformed.
func RecoverSigner(data, signature []byte) (common.Address, error) {
	if len(signature) != signatureLength {
		return common.Address{}, errors.Wrapf(relayerrors.ErrInvalidSignature, "length %d", len(signature))
	}

	sig := make([]byte, signatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(messageHash(data), sig)
	if err != nil {
		return common.Address{}, errors.Wrap(relayerrors.ErrInvalidSignature, err.Error())
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func messageHash(data []byte) []byte {
	return crypto.Keccak256([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(data), data)))
}
