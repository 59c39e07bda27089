// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mixer

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestLedgerCommitmentLifecycle(t *testing.T) {
	stateDB := NewMockStateDB()
	l := ledger{pool: ContractAddress}
	c := common.BytesToHash([]byte{1})

	require.False(t, l.isActive(stateDB, c))
	require.Equal(t, uint64(0), l.createdAt(stateDB, c))

	require.NoError(t, l.registerCommitment(stateDB, c, 1000))
	require.True(t, l.isActive(stateDB, c))
	require.Equal(t, uint64(1000), l.createdAt(stateDB, c))
	require.Equal(t, uint64(1), l.depositCount(stateDB))
	require.Equal(t, c, l.commitmentAt(stateDB, 0))

	require.ErrorIs(t, l.registerCommitment(stateDB, c, 2000), ErrDuplicateCommitment)

	l.deactivate(stateDB, c)
	require.False(t, l.isActive(stateDB, c))
	// Timestamp and marker survive deactivation.
	require.Equal(t, uint64(1000), l.createdAt(stateDB, c))
	require.ErrorIs(t, l.registerCommitment(stateDB, c, 3000), ErrDuplicateCommitment)

	// Deactivating twice is a no-op.
	l.deactivate(stateDB, c)
	require.False(t, l.isActive(stateDB, c))
}

func TestLedgerAge(t *testing.T) {
	stateDB := NewMockStateDB()
	l := ledger{pool: ContractAddress}
	c := common.BytesToHash([]byte{1})

	require.NoError(t, l.registerCommitment(stateDB, c, 1000))

	require.Equal(t, uint64(0), l.ageOf(stateDB, c, 1000))
	require.Equal(t, uint64(500), l.ageOf(stateDB, c, 1500))
	// Clock skew clamps to zero rather than wrapping.
	require.Equal(t, uint64(0), l.ageOf(stateDB, c, 999))
	// Unknown commitments have no age.
	require.Equal(t, uint64(0), l.ageOf(stateDB, common.BytesToHash([]byte{2}), 5000))
}

func TestLedgerNullifierSet(t *testing.T) {
	stateDB := NewMockStateDB()
	l := ledger{pool: ContractAddress}
	n := common.BytesToHash([]byte{1})

	require.False(t, l.isSpent(stateDB, n))
	require.NoError(t, l.consumeNullifier(stateDB, n))
	require.True(t, l.isSpent(stateDB, n))
	require.ErrorIs(t, l.consumeNullifier(stateDB, n), ErrNullifierAlreadyUsed)
}

func TestLedgerEnumeration(t *testing.T) {
	stateDB := NewMockStateDB()
	l := ledger{pool: ContractAddress}

	commitments := []common.Hash{
		common.BytesToHash([]byte{1}),
		common.BytesToHash([]byte{2}),
		common.BytesToHash([]byte{3}),
	}
	for i, c := range commitments {
		require.Equal(t, uint64(i), l.depositCount(stateDB))
		require.NoError(t, l.registerCommitment(stateDB, c, 1000))
	}
	for i, c := range commitments {
		require.Equal(t, c, l.commitmentAt(stateDB, uint64(i)))
	}

	// Indices stay stable across deactivation; the list never shrinks.
	l.deactivate(stateDB, commitments[1])
	require.Equal(t, uint64(3), l.depositCount(stateDB))
	require.Equal(t, commitments[1], l.commitmentAt(stateDB, 1))
}

func TestLedgerPoolIsolation(t *testing.T) {
	stateDB := NewMockStateDB()
	plain := ledger{pool: ContractAddress}
	delegated := ledger{pool: DelegatedContractAddress}
	c := common.BytesToHash([]byte{1})

	require.NoError(t, plain.registerCommitment(stateDB, c, 1000))
	require.True(t, plain.isActive(stateDB, c))

	// The same commitment value is fresh in the other pool instance.
	require.False(t, delegated.isActive(stateDB, c))
	require.NoError(t, delegated.registerCommitment(stateDB, c, 1000))
}

func TestLedgerOwnerAndFee(t *testing.T) {
	stateDB := NewMockStateDB()
	l := ledger{pool: ContractAddress}
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	require.Equal(t, common.Address{}, l.owner(stateDB))
	l.setOwner(stateDB, owner)
	require.Equal(t, owner, l.owner(stateDB))

	require.False(t, l.feeEnabled(stateDB))
	l.setFeeEnabled(stateDB, true)
	require.True(t, l.feeEnabled(stateDB))
	l.setFeeEnabled(stateDB, false)
	require.False(t, l.feeEnabled(stateDB))
}
