// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry wires the mixing pool precompiles into the module
// registerer. Importing it is enough to make both variants resolvable by
// address or config key.
package registry

import (
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/privacy/mixer"
	"github.com/luxfi/privacy/modules"
)

// Privacy family addresses (LP-4xxx). The pools sit in the II=0x50 item
// slots of the C-Chain page.
const (
	MixerCChain          = "0x0000000000000000000000000000000000004250" // LP-4250 plain pool
	DelegatedMixerCChain = "0x0000000000000000000000000000000000004251" // LP-4251 delegated pool
)

// PrecompileInfo contains metadata about a precompile
type PrecompileInfo struct {
	Address     string
	Name        string
	Description string
	GasBase     uint64
}

// AllPrecompiles lists the precompiles this module provides.
var AllPrecompiles = []PrecompileInfo{
	{MixerCChain, "MIXER", "Fixed-denomination mixing pool", mixer.GasDeposit},
	{DelegatedMixerCChain, "DELEGATED_MIXER", "Mixing pool with delegated withdrawal", mixer.GasDeposit},
}

// GetPrecompileAddress returns the address for a precompile by name
func GetPrecompileAddress(name string) common.Address {
	for _, p := range AllPrecompiles {
		if p.Name == name {
			return common.HexToAddress(p.Address)
		}
	}
	return common.Address{}
}

func init() {
	for _, m := range []modules.Module{
		{
			ConfigKey: mixer.Module.ConfigKey(),
			Address:   mixer.Module.Address(),
			Contract:  mixer.Module.Contract(),
		},
		{
			ConfigKey: mixer.DelegatedModule.ConfigKey(),
			Address:   mixer.DelegatedModule.Address(),
			Contract:  mixer.DelegatedModule.Contract(),
		},
	} {
		if err := modules.RegisterModule(m); err != nil {
			panic(fmt.Sprintf("failed to register precompile module: %v", err))
		}
	}
}
