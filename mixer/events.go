// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mixer

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/luxfi/privacy/contract"
)

// Event topics. Every state-changing operation emits exactly one record per
// effect; records are append-only and never consumed by the pool itself.
var (
	// Deposit(bytes32 commitment, uint256 index, uint256 timestamp)
	TopicDeposit = common.BytesToHash(crypto.Keccak256([]byte("Deposit(bytes32,uint256,uint256)")))
	// Withdrawal(address recipient, bytes32 nullifier, uint256 fee)
	TopicWithdrawal = common.BytesToHash(crypto.Keccak256([]byte("Withdrawal(address,bytes32,uint256)")))
	// WithdrawalAuthorized(bytes32 commitment, address authorized, address authorizer, uint256 deadline)
	TopicWithdrawalAuthorized = common.BytesToHash(crypto.Keccak256([]byte("WithdrawalAuthorized(bytes32,address,address,uint256)")))
	// Reclaimed(bytes32 commitment, uint256 amount, uint256 timestamp)
	TopicReclaimed = common.BytesToHash(crypto.Keccak256([]byte("Reclaimed(bytes32,uint256,uint256)")))
	// OwnershipTransferred(address previousOwner, address newOwner)
	TopicOwnershipTransferred = common.BytesToHash(crypto.Keccak256([]byte("OwnershipTransferred(address,address)")))
	// FeeToggled(bool enabled)
	TopicFeeToggled = common.BytesToHash(crypto.Keccak256([]byte("FeeToggled(bool)")))
)

func (p *poolPrecompile) emit(
	stateDB contract.StateDB,
	blockNumber uint64,
	topics []common.Hash,
	data []byte,
) {
	stateDB.AddLog(&ethtypes.Log{
		Address:     p.address,
		Topics:      topics,
		Data:        data,
		BlockNumber: blockNumber,
		TxHash:      stateDB.TxHash(),
	})
}

func (p *poolPrecompile) emitDeposit(
	stateDB contract.StateDB,
	blockNumber uint64,
	commitment common.Hash,
	index uint64,
	timestamp uint64,
) {
	data := append(contract.PackUint64(index), contract.PackUint64(timestamp)...)
	p.emit(stateDB, blockNumber, []common.Hash{TopicDeposit, commitment}, data)
}

func (p *poolPrecompile) emitWithdrawal(
	stateDB contract.StateDB,
	blockNumber uint64,
	recipient common.Address,
	nullifier common.Hash,
	fee *uint256.Int,
) {
	topics := []common.Hash{TopicWithdrawal, common.BytesToHash(contract.PackAddress(recipient)), nullifier}
	p.emit(stateDB, blockNumber, topics, contract.PackUint256(fee))
}

func (p *poolPrecompile) emitWithdrawalAuthorized(
	stateDB contract.StateDB,
	blockNumber uint64,
	commitment common.Hash,
	auth authorization,
	deadline uint64,
) {
	data := append(contract.PackAddress(auth.authorizer), contract.PackUint64(deadline)...)
	topics := []common.Hash{
		TopicWithdrawalAuthorized,
		commitment,
		common.BytesToHash(contract.PackAddress(auth.authorized)),
	}
	p.emit(stateDB, blockNumber, topics, data)
}

func (p *poolPrecompile) emitReclaimed(
	stateDB contract.StateDB,
	blockNumber uint64,
	commitment common.Hash,
	amount *uint256.Int,
	timestamp uint64,
) {
	data := append(contract.PackUint256(amount), contract.PackUint64(timestamp)...)
	p.emit(stateDB, blockNumber, []common.Hash{TopicReclaimed, commitment}, data)
}

func (p *poolPrecompile) emitOwnershipTransferred(
	stateDB contract.StateDB,
	blockNumber uint64,
	previous, next common.Address,
) {
	topics := []common.Hash{
		TopicOwnershipTransferred,
		common.BytesToHash(contract.PackAddress(previous)),
		common.BytesToHash(contract.PackAddress(next)),
	}
	p.emit(stateDB, blockNumber, topics, nil)
}

func (p *poolPrecompile) emitFeeToggled(
	stateDB contract.StateDB,
	blockNumber uint64,
	enabled bool,
) {
	p.emit(stateDB, blockNumber, []common.Hash{TopicFeeToggled}, contract.PackBool(enabled))
}
