// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mixer implements a fixed-denomination mixing pool as stateful
// precompiles. A depositor locks the denomination under a keccak commitment
// to a secret preimage; whoever later proves knowledge of that preimage
// withdraws the same amount to an unlinked address. Two variants share the
// code: the plain pool, where knowing the (nullifier, commitment) pair is
// enough to withdraw, and the delegated pool, where an off-chain signature
// binds each commitment to the single address allowed to trigger its
// withdrawal, so a withdrawal observed in transit cannot be redirected.
//
// Every entry point runs as one atomic unit against the StateDB: a snapshot
// is taken up front and any failure, including a value-transfer failure after
// the ledger was already mutated, reverts the whole call.
package mixer

import (
	"encoding/binary"
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"

	"github.com/luxfi/privacy/contract"
	"github.com/luxfi/privacy/sigverify"
)

// Pool parameters. One denomination per pool instance; the expiry window
// gates owner reclamation of deposits that were never withdrawn.
const (
	FeePercent       uint64 = 2
	ExpiryWindowSecs uint64 = 365 * 24 * 60 * 60
)

// Denomination is 0.1 native unit.
var Denomination = uint256.NewInt(100_000_000_000_000_000)

// Function selectors (first 4 bytes of keccak256 of the signature).
var (
	SelectorDeposit             = [4]byte{0xb2, 0x14, 0xfa, 0xa5} // deposit(bytes32)
	SelectorWithdraw            = [4]byte{0x21, 0xa9, 0x3f, 0x7b} // withdraw(bytes32,bytes32,address)
	SelectorAuthorizeWithdrawal = [4]byte{0x5d, 0x84, 0x7c, 0x36} // authorizeWithdrawal(bytes32,bytes32,address,uint256,bytes)
	SelectorReclaimAll          = [4]byte{0x9e, 0x2c, 0x58, 0xa1} // reclaimAll()
	SelectorReclaimRange        = [4]byte{0x4f, 0x1d, 0xb7, 0x5c} // reclaimRange(uint256,uint256)
	SelectorTransferOwnership   = [4]byte{0xf2, 0xfd, 0xe3, 0x8b} // transferOwnership(address)
	SelectorSetFeeEnabled       = [4]byte{0x6a, 0x1f, 0x40, 0xd2} // setFeeEnabled(bool)

	SelectorOwner               = [4]byte{0x8d, 0xa5, 0xcb, 0x5b} // owner()
	SelectorFeeEnabled          = [4]byte{0x3c, 0xcf, 0xd6, 0x0b} // feeEnabled()
	SelectorDenomination        = [4]byte{0x7a, 0x9b, 0x2c, 0x41} // denomination()
	SelectorDepositCount        = [4]byte{0x2d, 0xfd, 0xf0, 0xb5} // depositCount()
	SelectorIsSpent             = [4]byte{0xe5, 0x28, 0x5d, 0xcc} // isSpent(bytes32)
	SelectorIsCommitmentActive  = [4]byte{0x83, 0x9d, 0xf9, 0x45} // isCommitmentActive(bytes32)
	SelectorCommitmentAge       = [4]byte{0x1b, 0x6e, 0xc2, 0x7d} // commitmentAge(bytes32)
	SelectorAuthorizedRecipient = [4]byte{0xc4, 0x52, 0x19, 0x8e} // authorizedRecipient(bytes32)
)

// Gas costs.
const (
	GasDeposit        uint64 = 20000
	GasWithdraw       uint64 = 25000
	GasAuthorize      uint64 = 15000
	GasReclaimBase    uint64 = 10000
	GasReclaimPerItem uint64 = 2000
	GasAdminWrite     uint64 = 5000
	GasRead           uint64 = 200
)

// Errors. All are terminal: the triggering call aborts and every mutation it
// attempted is reverted via the snapshot taken in Run.
var (
	ErrDuplicateCommitment  = errors.New("commitment already used")
	ErrUnknownCommitment    = errors.New("unknown or inactive commitment")
	ErrNullifierAlreadyUsed = errors.New("nullifier already used")
	ErrAuthorizationExpired = errors.New("authorization deadline passed")
	ErrInvalidSignature     = errors.New("invalid authorization signature")
	ErrNotAuthorized        = errors.New("no withdrawal authorization on record")
	ErrUnauthorized         = errors.New("caller is not the authorized recipient")
	ErrNullifierMismatch    = errors.New("nullifier does not match authorization")
	ErrInvalidRecipient     = errors.New("recipient is the zero address")
	ErrInvalidRange         = errors.New("invalid reclamation range")
	ErrNotController        = errors.New("caller is not the pool controller")
	ErrWrongDenomination    = errors.New("deposit value must equal the denomination")
	ErrUnexpectedValue      = errors.New("call does not accept value")
	ErrTransferFailed       = errors.New("value transfer failed")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientGas      = errors.New("insufficient gas")
	ErrWriteProtection      = errors.New("state mutation in read-only call")
)

// poolPrecompile is one pool instance. The delegated flag selects the richer
// variant that requires a signed withdrawal authorization.
type poolPrecompile struct {
	address      common.Address
	delegated    bool
	denomination *uint256.Int
	feePercent   uint64
	expiryWindow uint64
}

// Address returns the address the pool is reachable at.
func (p *poolPrecompile) Address() common.Address {
	return p.address
}

func (p *poolPrecompile) ledger() ledger {
	return ledger{pool: p.address}
}

// Run executes the pool. Mutating selectors are serialized by the host; the
// state checks below resolve races (two withdrawals on one nullifier: the
// second observes the consumed flag and fails).
func (p *poolPrecompile) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	stateDB := accessibleState.GetStateDB()
	value := accessibleState.GetCallValue()

	if len(input) < 4 {
		// Bare value transfers without a deposit call are rejected outright:
		// silently accepted value would be unrecoverable.
		if value != nil && !value.IsZero() {
			return nil, suppliedGas, ErrUnexpectedValue
		}
		return nil, suppliedGas, ErrInvalidInput
	}

	var selector [4]byte
	copy(selector[:], input[:4])
	args := input[4:]

	// Only deposit carries value, and exactly the denomination.
	if selector != SelectorDeposit && value != nil && !value.IsZero() {
		return nil, suppliedGas, ErrUnexpectedValue
	}

	switch selector {
	case SelectorOwner:
		return p.view(suppliedGas, func() []byte {
			return contract.PackAddress(p.ledger().owner(stateDB))
		})
	case SelectorFeeEnabled:
		return p.view(suppliedGas, func() []byte {
			return contract.PackBool(p.ledger().feeEnabled(stateDB))
		})
	case SelectorDenomination:
		return p.view(suppliedGas, func() []byte {
			return contract.PackUint256(p.denomination)
		})
	case SelectorDepositCount:
		return p.view(suppliedGas, func() []byte {
			return contract.PackUint64(p.ledger().depositCount(stateDB))
		})
	case SelectorIsSpent:
		if len(args) < 32 {
			return nil, suppliedGas, ErrInvalidInput
		}
		n := common.BytesToHash(args[:32])
		return p.view(suppliedGas, func() []byte {
			return contract.PackBool(p.ledger().isSpent(stateDB, n))
		})
	case SelectorIsCommitmentActive:
		if len(args) < 32 {
			return nil, suppliedGas, ErrInvalidInput
		}
		c := common.BytesToHash(args[:32])
		return p.view(suppliedGas, func() []byte {
			return contract.PackBool(p.ledger().isActive(stateDB, c))
		})
	case SelectorCommitmentAge:
		if len(args) < 32 {
			return nil, suppliedGas, ErrInvalidInput
		}
		c := common.BytesToHash(args[:32])
		now := accessibleState.GetBlockContext().Timestamp()
		return p.view(suppliedGas, func() []byte {
			return contract.PackUint64(p.ledger().ageOf(stateDB, c, now))
		})
	case SelectorAuthorizedRecipient:
		if !p.delegated || len(args) < 32 {
			return nil, suppliedGas, ErrInvalidInput
		}
		c := common.BytesToHash(args[:32])
		return p.view(suppliedGas, func() []byte {
			auth, _ := p.ledger().authorizationOf(stateDB, c)
			return contract.PackAddress(auth.authorized)
		})
	}

	// Everything below mutates state.
	if readOnly {
		return nil, suppliedGas, ErrWriteProtection
	}

	snapshot := stateDB.Snapshot()
	ret, remainingGas, err := p.runMutating(accessibleState, caller, selector, args, suppliedGas, value)
	if err != nil {
		stateDB.RevertToSnapshot(snapshot)
	}
	return ret, remainingGas, err
}

func (p *poolPrecompile) runMutating(
	accessibleState contract.AccessibleState,
	caller common.Address,
	selector [4]byte,
	args []byte,
	suppliedGas uint64,
	value *uint256.Int,
) ([]byte, uint64, error) {
	stateDB := accessibleState.GetStateDB()
	blockCtx := accessibleState.GetBlockContext()

	switch selector {
	case SelectorDeposit:
		return p.deposit(stateDB, blockCtx, args, suppliedGas, value)
	case SelectorWithdraw:
		return p.withdraw(stateDB, blockCtx, caller, args, suppliedGas)
	case SelectorAuthorizeWithdrawal:
		return p.authorizeWithdrawal(stateDB, blockCtx, args, suppliedGas)
	case SelectorReclaimAll:
		return p.reclaimAll(stateDB, blockCtx, caller, suppliedGas)
	case SelectorReclaimRange:
		return p.reclaimRange(stateDB, blockCtx, caller, args, suppliedGas)
	case SelectorTransferOwnership:
		return p.transferOwnership(stateDB, blockCtx, caller, args, suppliedGas)
	case SelectorSetFeeEnabled:
		return p.setFeeEnabled(stateDB, blockCtx, caller, args, suppliedGas)
	default:
		return nil, suppliedGas, ErrInvalidInput
	}
}

func (p *poolPrecompile) view(suppliedGas uint64, read func() []byte) ([]byte, uint64, error) {
	if suppliedGas < GasRead {
		return nil, 0, ErrInsufficientGas
	}
	return read(), suppliedGas - GasRead, nil
}

// deposit registers a commitment. The host has already credited the call
// value to the pool address; rejecting here makes the host reverse it.
func (p *poolPrecompile) deposit(
	stateDB contract.StateDB,
	blockCtx contract.BlockContext,
	args []byte,
	suppliedGas uint64,
	value *uint256.Int,
) ([]byte, uint64, error) {
	if suppliedGas < GasDeposit {
		return nil, 0, ErrInsufficientGas
	}
	remainingGas := suppliedGas - GasDeposit

	if len(args) < 32 {
		return nil, remainingGas, ErrInvalidInput
	}
	if value == nil || !value.Eq(p.denomination) {
		return nil, remainingGas, ErrWrongDenomination
	}

	commitment := common.BytesToHash(args[:32])
	now := blockCtx.Timestamp()

	l := p.ledger()
	index := l.depositCount(stateDB)
	if err := l.registerCommitment(stateDB, commitment, now); err != nil {
		return nil, remainingGas, err
	}

	p.emitDeposit(stateDB, blockCtx.Number().Uint64(), commitment, index, now)
	return contract.PackUint64(index), remainingGas, nil
}

// withdraw pays out one deposit. Check order matters and is fixed: commitment
// active, nullifier unused, authorization (delegated variant), recipient,
// then mutate the ledger, then attempt the transfer. The transfer is last so
// a failure reverts a fully-mutated ledger rather than leaving a paid-out
// entry live.
func (p *poolPrecompile) withdraw(
	stateDB contract.StateDB,
	blockCtx contract.BlockContext,
	caller common.Address,
	args []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if suppliedGas < GasWithdraw {
		return nil, 0, ErrInsufficientGas
	}
	remainingGas := suppliedGas - GasWithdraw

	if len(args) < 96 {
		return nil, remainingGas, ErrInvalidInput
	}
	nullifier := common.BytesToHash(args[0:32])
	commitment := common.BytesToHash(args[32:64])
	recipient := contract.UnpackAddress(args[64:96])

	l := p.ledger()
	if !l.isActive(stateDB, commitment) {
		return nil, remainingGas, ErrUnknownCommitment
	}
	if l.isSpent(stateDB, nullifier) {
		return nil, remainingGas, ErrNullifierAlreadyUsed
	}
	if p.delegated {
		auth, ok := l.authorizationOf(stateDB, commitment)
		if !ok {
			return nil, remainingGas, ErrNotAuthorized
		}
		if caller != auth.authorized {
			return nil, remainingGas, ErrUnauthorized
		}
		// The nullifier was fixed when the preimage was proven at
		// authorization time; an unrelated nullifier cannot be burned here.
		if nullifier != auth.nullifier {
			return nil, remainingGas, ErrNullifierMismatch
		}
	}
	if recipient == (common.Address{}) {
		return nil, remainingGas, ErrInvalidRecipient
	}

	// State first, transfer last.
	if err := l.consumeNullifier(stateDB, nullifier); err != nil {
		return nil, remainingGas, err
	}
	l.deactivate(stateDB, commitment)
	if p.delegated {
		l.clearAuthorization(stateDB, commitment)
	}

	payout, fee := p.payoutSplit(stateDB)
	if err := p.transferValue(stateDB, recipient, payout); err != nil {
		return nil, remainingGas, err
	}
	if !fee.IsZero() {
		if err := p.transferValue(stateDB, l.owner(stateDB), fee); err != nil {
			return nil, remainingGas, err
		}
	}

	p.emitWithdrawal(stateDB, blockCtx.Number().Uint64(), recipient, nullifier, fee)
	return nil, remainingGas, nil
}

// authorizeWithdrawal binds a commitment to the sole address permitted to
// withdraw it. Purely a binding step: no value moves. Repeatable until a
// withdrawal consumes the binding.
func (p *poolPrecompile) authorizeWithdrawal(
	stateDB contract.StateDB,
	blockCtx contract.BlockContext,
	args []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if !p.delegated {
		return nil, suppliedGas, ErrInvalidInput
	}
	if suppliedGas < GasAuthorize {
		return nil, 0, ErrInsufficientGas
	}
	remainingGas := suppliedGas - GasAuthorize

	// nullifier(32) | secret(32) | authorized word(32) | deadline word(32) | sig(65)
	if len(args) < 128+sigverify.SignatureLength {
		return nil, remainingGas, ErrInvalidInput
	}
	nullifier := common.BytesToHash(args[0:32])
	secret := common.BytesToHash(args[32:64])
	authorized := contract.UnpackAddress(args[64:96])
	deadline := binary.BigEndian.Uint64(args[120:128])
	sig := args[128 : 128+sigverify.SignatureLength]

	if blockCtx.Timestamp() > deadline {
		return nil, remainingGas, ErrAuthorizationExpired
	}

	// Recomputing the commitment is the proof of preimage knowledge.
	commitment := ComputeCommitment(nullifier, secret)
	l := p.ledger()
	if !l.isActive(stateDB, commitment) {
		return nil, remainingGas, ErrUnknownCommitment
	}

	digest := AuthorizationDigest(p.address, nullifier, secret, authorized, deadline)
	signer, err := sigverify.RecoverSigner(digest, sig)
	if err != nil {
		return nil, remainingGas, ErrInvalidSignature
	}

	auth := authorization{
		authorized: authorized,
		authorizer: signer,
		nullifier:  nullifier,
	}
	l.setAuthorization(stateDB, commitment, auth)

	p.emitWithdrawalAuthorized(stateDB, blockCtx.Number().Uint64(), commitment, auth, deadline)
	return nil, remainingGas, nil
}

func (p *poolPrecompile) transferOwnership(
	stateDB contract.StateDB,
	blockCtx contract.BlockContext,
	caller common.Address,
	args []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if suppliedGas < GasAdminWrite {
		return nil, 0, ErrInsufficientGas
	}
	remainingGas := suppliedGas - GasAdminWrite

	l := p.ledger()
	if caller != l.owner(stateDB) {
		return nil, remainingGas, ErrNotController
	}
	if len(args) < 32 {
		return nil, remainingGas, ErrInvalidInput
	}
	next := contract.UnpackAddress(args[:32])
	if next == (common.Address{}) {
		return nil, remainingGas, ErrInvalidRecipient
	}

	previous := l.owner(stateDB)
	l.setOwner(stateDB, next)
	p.emitOwnershipTransferred(stateDB, blockCtx.Number().Uint64(), previous, next)
	return nil, remainingGas, nil
}

func (p *poolPrecompile) setFeeEnabled(
	stateDB contract.StateDB,
	blockCtx contract.BlockContext,
	caller common.Address,
	args []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if suppliedGas < GasAdminWrite {
		return nil, 0, ErrInsufficientGas
	}
	remainingGas := suppliedGas - GasAdminWrite

	l := p.ledger()
	if caller != l.owner(stateDB) {
		return nil, remainingGas, ErrNotController
	}
	if len(args) < 32 {
		return nil, remainingGas, ErrInvalidInput
	}
	enabled := args[31] != 0
	l.setFeeEnabled(stateDB, enabled)
	p.emitFeeToggled(stateDB, blockCtx.Number().Uint64(), enabled)
	return nil, remainingGas, nil
}

// payoutSplit returns (recipient amount, controller fee) for one withdrawal.
func (p *poolPrecompile) payoutSplit(stateDB contract.StateDB) (*uint256.Int, *uint256.Int) {
	if !p.ledger().feeEnabled(stateDB) {
		return p.denomination.Clone(), uint256.NewInt(0)
	}
	fee := new(uint256.Int).Mul(p.denomination, uint256.NewInt(p.feePercent))
	fee.Div(fee, uint256.NewInt(100))
	payout := new(uint256.Int).Sub(p.denomination, fee)
	return payout, fee
}

// transferValue debits the pool and credits to. All-or-nothing: a short pool
// balance fails the transfer and, through the caller's snapshot, the whole
// operation.
func (p *poolPrecompile) transferValue(
	stateDB contract.StateDB,
	to common.Address,
	amount *uint256.Int,
) error {
	if amount.IsZero() {
		return nil
	}
	if stateDB.GetBalance(p.address).Lt(amount) {
		return ErrTransferFailed
	}
	stateDB.SubBalance(p.address, amount, tracing.BalanceChangeTransfer)
	stateDB.AddBalance(to, amount, tracing.BalanceChangeTransfer)
	return nil
}
