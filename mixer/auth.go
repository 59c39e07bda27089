// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mixer

import (
	"encoding/binary"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/privacy/contract"
	"github.com/luxfi/privacy/sigverify"
)

// ComputeCommitment derives the commitment for a (nullifier, secret)
// preimage. Depositors run this off-chain; authorizeWithdrawal recomputes it
// as the proof of preimage knowledge.
func ComputeCommitment(nullifier, secret common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256(nullifier[:], secret[:]))
}

// AuthorizationDigest builds the prefix-hashed message a secret holder signs
// to delegate withdrawal. The pool address is the domain separator: a
// signature for one pool instance is meaningless to every other.
func AuthorizationDigest(
	pool common.Address,
	nullifier, secret common.Hash,
	authorized common.Address,
	deadline uint64,
) common.Hash {
	var deadlineWord [32]byte
	binary.BigEndian.PutUint64(deadlineWord[24:], deadline)
	inner := common.BytesToHash(crypto.Keccak256(
		pool.Bytes(),
		nullifier[:],
		secret[:],
		authorized.Bytes(),
		deadlineWord[:],
	))
	return sigverify.SignedMessageHash(inner)
}

// authorization is the per-commitment delegation record: the sole address
// allowed to trigger withdrawal, the recovered signer that granted it, and
// the nullifier fixed at grant time. Cleared when the withdrawal consumes it.
type authorization struct {
	authorized common.Address
	authorizer common.Address
	nullifier  common.Hash
}

func (l ledger) authorizationOf(stateDB contract.StateDB, c common.Hash) (authorization, bool) {
	addrWord := stateDB.GetState(l.pool, authAddressKey(c))
	if addrWord == (common.Hash{}) {
		return authorization{}, false
	}
	signerWord := stateDB.GetState(l.pool, authSignerKey(c))
	return authorization{
		authorized: common.BytesToAddress(addrWord[12:]),
		authorizer: common.BytesToAddress(signerWord[12:]),
		nullifier:  stateDB.GetState(l.pool, authNullifierKey(c)),
	}, true
}

// setAuthorization records or overwrites the binding for c. Overwriting an
// unconsumed binding is allowed: the secret holder may redirect delegation
// with a fresh signature at any point before withdrawal.
func (l ledger) setAuthorization(stateDB contract.StateDB, c common.Hash, auth authorization) {
	var addrWord, signerWord common.Hash
	copy(addrWord[12:], auth.authorized.Bytes())
	copy(signerWord[12:], auth.authorizer.Bytes())
	stateDB.SetState(l.pool, authAddressKey(c), addrWord)
	stateDB.SetState(l.pool, authSignerKey(c), signerWord)
	stateDB.SetState(l.pool, authNullifierKey(c), auth.nullifier)
}

func (l ledger) clearAuthorization(stateDB contract.StateDB, c common.Hash) {
	stateDB.SetState(l.pool, authAddressKey(c), common.Hash{})
	stateDB.SetState(l.pool, authSignerKey(c), common.Hash{})
	stateDB.SetState(l.pool, authNullifierKey(c), common.Hash{})
}
