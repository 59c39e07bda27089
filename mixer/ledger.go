// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mixer

import (
	"encoding/binary"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/privacy/contract"
)

// Storage layout. Everything lives under the pool's own address. Fixed slots
// hold the singletons; per-commitment, per-nullifier and per-index slots are
// derived with domain-tagged keccak, Solidity-mapping style.
var (
	ownerSlot        = common.BytesToHash(crypto.Keccak256([]byte("mixer.owner")))
	feeEnabledSlot   = common.BytesToHash(crypto.Keccak256([]byte("mixer.feeEnabled")))
	depositCountSlot = common.BytesToHash(crypto.Keccak256([]byte("mixer.depositCount")))
)

var (
	tagCommitment    = []byte("mixer.commitment")
	tagNullifier     = []byte("mixer.nullifier")
	tagIndex         = []byte("mixer.index")
	tagAuthAddress   = []byte("mixer.auth.address")
	tagAuthSigner    = []byte("mixer.auth.signer")
	tagAuthNullifier = []byte("mixer.auth.nullifier")
)

// Commitment record word layout:
//
//	byte 0      ever-used marker (set once, never cleared)
//	byte 1      active flag
//	bytes 24:32 createdAt, big-endian seconds
//
// The marker survives deactivation so a commitment value can never be
// deposited twice, even after its first instance was withdrawn or reclaimed.
const (
	recUsedByte   = 0
	recActiveByte = 1
	recTimeOffset = 24
)

func commitmentKey(c common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256(tagCommitment, c[:]))
}

func nullifierKey(n common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256(tagNullifier, n[:]))
}

func indexKey(i uint64) common.Hash {
	var word [8]byte
	binary.BigEndian.PutUint64(word[:], i)
	return common.BytesToHash(crypto.Keccak256(tagIndex, word[:]))
}

func authAddressKey(c common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256(tagAuthAddress, c[:]))
}

func authSignerKey(c common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256(tagAuthSigner, c[:]))
}

func authNullifierKey(c common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256(tagAuthNullifier, c[:]))
}

// ledger wraps the commitment set, the nullifier set and the append-only
// enumeration list of one pool instance. It is a view over the StateDB, not
// a cache; atomicity comes from the caller's snapshot, not from here.
type ledger struct {
	pool common.Address
}

// registerCommitment marks c active at time now and appends it to the
// enumeration list. Any commitment value seen before, active or not, is
// rejected.
func (l ledger) registerCommitment(stateDB contract.StateDB, c common.Hash, now uint64) error {
	key := commitmentKey(c)
	rec := stateDB.GetState(l.pool, key)
	if rec[recUsedByte] != 0 {
		return ErrDuplicateCommitment
	}

	var val common.Hash
	val[recUsedByte] = 1
	val[recActiveByte] = 1
	binary.BigEndian.PutUint64(val[recTimeOffset:], now)
	stateDB.SetState(l.pool, key, val)

	count := l.depositCount(stateDB)
	stateDB.SetState(l.pool, indexKey(count), c)
	l.setDepositCount(stateDB, count+1)
	return nil
}

func (l ledger) isActive(stateDB contract.StateDB, c common.Hash) bool {
	rec := stateDB.GetState(l.pool, commitmentKey(c))
	return rec[recActiveByte] != 0
}

// createdAt returns the registration timestamp, zero if never registered.
func (l ledger) createdAt(stateDB contract.StateDB, c common.Hash) uint64 {
	rec := stateDB.GetState(l.pool, commitmentKey(c))
	if rec[recUsedByte] == 0 {
		return 0
	}
	return binary.BigEndian.Uint64(rec[recTimeOffset:])
}

// ageOf returns now minus the registration timestamp, zero for unknown
// commitments or clock skew.
func (l ledger) ageOf(stateDB contract.StateDB, c common.Hash, now uint64) uint64 {
	created := l.createdAt(stateDB, c)
	if created == 0 || now < created {
		return 0
	}
	return now - created
}

// deactivate clears the active flag, keeping the ever-used marker and the
// timestamp. Idempotent: deactivating an inactive commitment is a no-op, so
// callers must check isActive first when crediting value.
func (l ledger) deactivate(stateDB contract.StateDB, c common.Hash) {
	key := commitmentKey(c)
	rec := stateDB.GetState(l.pool, key)
	if rec[recActiveByte] == 0 {
		return
	}
	rec[recActiveByte] = 0
	stateDB.SetState(l.pool, key, rec)
}

// consumeNullifier marks n consumed, exactly once.
func (l ledger) consumeNullifier(stateDB contract.StateDB, n common.Hash) error {
	key := nullifierKey(n)
	if stateDB.GetState(l.pool, key) != (common.Hash{}) {
		return ErrNullifierAlreadyUsed
	}
	var val common.Hash
	val[0] = 1
	stateDB.SetState(l.pool, key, val)
	return nil
}

func (l ledger) isSpent(stateDB contract.StateDB, n common.Hash) bool {
	return stateDB.GetState(l.pool, nullifierKey(n)) != (common.Hash{})
}

// depositCount is the enumeration list length; indices [0, depositCount) are
// stable once assigned and the list never shrinks.
func (l ledger) depositCount(stateDB contract.StateDB) uint64 {
	val := stateDB.GetState(l.pool, depositCountSlot)
	return binary.BigEndian.Uint64(val[24:])
}

func (l ledger) setDepositCount(stateDB contract.StateDB, count uint64) {
	var val common.Hash
	binary.BigEndian.PutUint64(val[24:], count)
	stateDB.SetState(l.pool, depositCountSlot, val)
}

func (l ledger) commitmentAt(stateDB contract.StateDB, i uint64) common.Hash {
	return stateDB.GetState(l.pool, indexKey(i))
}

// Owner and fee switch accessors.

func (l ledger) owner(stateDB contract.StateDB) common.Address {
	val := stateDB.GetState(l.pool, ownerSlot)
	return common.BytesToAddress(val[12:])
}

func (l ledger) setOwner(stateDB contract.StateDB, owner common.Address) {
	var val common.Hash
	copy(val[12:], owner.Bytes())
	stateDB.SetState(l.pool, ownerSlot, val)
}

func (l ledger) feeEnabled(stateDB contract.StateDB) bool {
	val := stateDB.GetState(l.pool, feeEnabledSlot)
	return val[31] != 0
}

func (l ledger) setFeeEnabled(stateDB contract.StateDB, enabled bool) {
	var val common.Hash
	if enabled {
		val[31] = 1
	}
	stateDB.SetState(l.pool, feeEnabledSlot, val)
}
