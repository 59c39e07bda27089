// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mixer

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/privacy/contract"
)

// Reclamation: the controller sweeps commitments whose age exceeds the expiry
// window, deactivating each and crediting the accumulated total to itself in
// one transfer at the end. reclaimAll walks the whole enumeration list and is
// only usable while the list fits one gas budget; reclaimRange exists so an
// operator can sweep a long list in bounded chunks. Both are idempotent: a
// second pass over a swept range finds nothing active and transfers zero.

func (p *poolPrecompile) reclaimAll(
	stateDB contract.StateDB,
	blockCtx contract.BlockContext,
	caller common.Address,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	length := p.ledger().depositCount(stateDB)
	if length == 0 {
		if suppliedGas < GasReclaimBase {
			return nil, 0, ErrInsufficientGas
		}
		if caller != p.ledger().owner(stateDB) {
			return nil, suppliedGas - GasReclaimBase, ErrNotController
		}
		return contract.PackUint64(0), suppliedGas - GasReclaimBase, nil
	}
	return p.reclaim(stateDB, blockCtx, caller, 0, length, suppliedGas)
}

func (p *poolPrecompile) reclaimRange(
	stateDB contract.StateDB,
	blockCtx contract.BlockContext,
	caller common.Address,
	args []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if suppliedGas < GasReclaimBase {
		return nil, 0, ErrInsufficientGas
	}
	if len(args) < 64 {
		return nil, suppliedGas - GasReclaimBase, ErrInvalidInput
	}
	start := binary.BigEndian.Uint64(args[24:32])
	end := binary.BigEndian.Uint64(args[56:64])
	return p.reclaim(stateDB, blockCtx, caller, start, end, suppliedGas)
}

// reclaim sweeps the index interval [start, end). Returns the number of
// commitments reclaimed, packed as a word.
func (p *poolPrecompile) reclaim(
	stateDB contract.StateDB,
	blockCtx contract.BlockContext,
	caller common.Address,
	start, end uint64,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if suppliedGas < GasReclaimBase {
		return nil, 0, ErrInsufficientGas
	}
	remainingGas := suppliedGas - GasReclaimBase

	l := p.ledger()
	if caller != l.owner(stateDB) {
		return nil, remainingGas, ErrNotController
	}
	if start >= end || end > l.depositCount(stateDB) {
		return nil, remainingGas, ErrInvalidRange
	}

	scanGas := (end - start) * GasReclaimPerItem
	if remainingGas < scanGas {
		return nil, 0, ErrInsufficientGas
	}
	remainingGas -= scanGas

	now := blockCtx.Timestamp()
	blockNumber := blockCtx.Number().Uint64()
	total := uint256.NewInt(0)
	reclaimed := uint64(0)

	for i := start; i < end; i++ {
		commitment := l.commitmentAt(stateDB, i)
		if !l.isActive(stateDB, commitment) {
			continue
		}
		if l.ageOf(stateDB, commitment, now) <= p.expiryWindow {
			continue
		}
		l.deactivate(stateDB, commitment)
		total.Add(total, p.denomination)
		reclaimed++
		p.emitReclaimed(stateDB, blockNumber, commitment, p.denomination, now)
	}

	// A single transfer for the whole sweep. Failure reverts the
	// deactivations above; partial reclamation without payout would strand
	// the swept deposits permanently.
	if err := p.transferValue(stateDB, l.owner(stateDB), total); err != nil {
		return nil, remainingGas, err
	}

	return contract.PackUint64(reclaimed), remainingGas, nil
}
