// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mixer

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/privacy/contract"
)

var (
	// ContractAddress is the plain pool (Privacy range, LP-4250).
	ContractAddress = common.HexToAddress("0x0000000000000000000000000000000000004250")
	// DelegatedContractAddress is the delegated-withdrawal pool (LP-4251).
	DelegatedContractAddress = common.HexToAddress("0x0000000000000000000000000000000000004251")

	// MixerPrecompile is the plain pool singleton: withdrawal requires only
	// the (nullifier, commitment) pair.
	MixerPrecompile = newPool(ContractAddress, false)

	// DelegatedMixerPrecompile additionally requires a signed withdrawal
	// authorization binding the commitment to the caller.
	DelegatedMixerPrecompile = newPool(DelegatedContractAddress, true)

	_ contract.StatefulPrecompiledContract = (*poolPrecompile)(nil)
)

func newPool(addr common.Address, delegated bool) *poolPrecompile {
	return &poolPrecompile{
		address:      addr,
		delegated:    delegated,
		denomination: Denomination,
		feePercent:   FeePercent,
		expiryWindow: ExpiryWindowSecs,
	}
}

// Module metadata for the two pool variants.
var (
	Module = &module{
		configKey: "mixerConfig",
		address:   ContractAddress,
		contract:  MixerPrecompile,
	}
	DelegatedModule = &module{
		configKey: "delegatedMixerConfig",
		address:   DelegatedContractAddress,
		contract:  DelegatedMixerPrecompile,
	}
)

type module struct {
	configKey string
	address   common.Address
	contract  contract.StatefulPrecompiledContract
}

// ConfigKey returns the key this module is configured under in chain config.
func (m *module) ConfigKey() string {
	return m.configKey
}

// Address returns the address where the stateful precompile is accessible.
func (m *module) Address() common.Address {
	return m.address
}

// Contract returns a thread-safe singleton that can be used as the
// StatefulPrecompiledContract.
func (m *module) Contract() contract.StatefulPrecompiledContract {
	return m.contract
}

// Configure sets the initial pool controller. Called once at activation;
// ownership changes afterwards only through transferOwnership.
func (m *module) Configure(stateDB contract.StateDB, initialOwner common.Address) error {
	if initialOwner == (common.Address{}) {
		return ErrInvalidRecipient
	}
	l := ledger{pool: m.address}
	l.setOwner(stateDB, initialOwner)
	return nil
}
