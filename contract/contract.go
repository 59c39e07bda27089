// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the boundary between stateful precompiled
// contracts and the host EVM: the state database they mutate, the block
// context they read time from, and the entry-point interface the VM invokes.
package contract

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
)

// StateDB is the subset of the EVM state database available to stateful
// precompiles. Every mutation made through it belongs to the enclosing
// transaction; Snapshot/RevertToSnapshot give precompiles an explicit
// rollback path when an operation must fail atomically.
type StateDB interface {
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash) common.Hash

	GetBalance(common.Address) *uint256.Int
	AddBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason) uint256.Int
	SubBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason) uint256.Int

	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64, tracing.NonceChangeReason)

	CreateAccount(common.Address)
	Exist(common.Address) bool

	AddLog(*ethtypes.Log)

	TxHash() common.Hash
	Snapshot() int
	RevertToSnapshot(int)
}

// BlockContext supplies block-level values fixed for the duration of a call.
// The timestamp is the only clock precompiles may use; it is not
// caller-suppliable.
type BlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// AccessibleState is everything the host exposes to a precompile invocation.
// GetCallValue returns the native value sent with the call; the host credits
// it to the precompile's address before Run and reverses the credit if Run
// returns an error.
type AccessibleState interface {
	GetStateDB() StateDB
	GetBlockContext() BlockContext
	GetCallValue() *uint256.Int
}

// StatefulPrecompiledContract is the interface every stateful precompile
// implements. Run executes the contract with the given input, returning the
// output, remaining gas, and an error if the operation failed. A non-nil
// error instructs the host to revert all state changes made by the call.
type StatefulPrecompiledContract interface {
	Address() common.Address
	Run(
		accessibleState AccessibleState,
		caller common.Address,
		addr common.Address,
		input []byte,
		suppliedGas uint64,
		readOnly bool,
	) ([]byte, uint64, error)
}

// PackAddress right-aligns an address into a 32-byte word.
func PackAddress(addr common.Address) []byte {
	word := make([]byte, common.HashLength)
	copy(word[12:], addr.Bytes())
	return word
}

// UnpackAddress reads a right-aligned address from a 32-byte word.
func UnpackAddress(word []byte) common.Address {
	return common.BytesToAddress(word[12:32])
}

// PackHash copies a hash into a fresh 32-byte slice.
func PackHash(h common.Hash) []byte {
	word := make([]byte, common.HashLength)
	copy(word, h[:])
	return word
}

// PackBool encodes a bool into a 32-byte word (last byte 0 or 1).
func PackBool(v bool) []byte {
	word := make([]byte, common.HashLength)
	if v {
		word[31] = 1
	}
	return word
}

// PackUint256 encodes a uint256 into a big-endian 32-byte word.
func PackUint256(v *uint256.Int) []byte {
	word := v.Bytes32()
	return word[:]
}

// PackUint64 encodes a uint64 into a big-endian 32-byte word.
func PackUint64(v uint64) []byte {
	return PackUint256(uint256.NewInt(v))
}
