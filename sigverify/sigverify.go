// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sigverify recovers secp256k1 signer addresses from 65-byte
// [R || S || V] signatures using the standard signed-message prefix
// convention. It is stateless; callers decide what the recovered address
// means.
package sigverify

import (
	"errors"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

const (
	// SignatureLength is the canonical [R || S || V] encoding length.
	SignatureLength = 65
)

var (
	ErrMalformedSignature = errors.New("malformed signature: want 65 bytes [R || S || V]")
	ErrInvalidRecoveryID  = errors.New("invalid signature recovery id")
	ErrZeroAddress        = errors.New("recovered zero address")

	signedMessagePrefix = []byte("\x19Ethereum Signed Message:\n32")
)

// SignedMessageHash applies the fixed signed-message prefix to a 32-byte
// digest, yielding the hash wallets actually sign. Prefixing keeps signatures
// produced for this scheme from being valid transactions or other payloads.
func SignedMessageHash(inner common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256(signedMessagePrefix, inner[:]))
}

// RecoverSigner recovers the address that signed digest. The recovery id may
// be 0/1 or the legacy 27/28; anything else is rejected. A degenerate
// recovery that yields the zero address is an error, never a valid signer.
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, ErrMalformedSignature
	}

	// Normalize the recovery id without mutating the caller's slice.
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	switch normalized[64] {
	case 0, 1:
	case 27, 28:
		normalized[64] -= 27
	default:
		return common.Address{}, ErrInvalidRecoveryID
	}

	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return common.Address{}, ErrMalformedSignature
	}

	signer := common.PubkeyToAddress(*pub)
	if signer == (common.Address{}) {
		return common.Address{}, ErrZeroAddress
	}
	return signer, nil
}
