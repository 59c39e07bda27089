// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/privacy/mixer"
	"github.com/luxfi/privacy/modules"
)

func TestGetPrecompileAddress(t *testing.T) {
	require.Equal(t, mixer.ContractAddress, GetPrecompileAddress("MIXER"))
	require.Equal(t, mixer.DelegatedContractAddress, GetPrecompileAddress("DELEGATED_MIXER"))
	require.Equal(t, common.Address{}, GetPrecompileAddress("NO_SUCH_PRECOMPILE"))
}

func TestPoolModulesRegistered(t *testing.T) {
	m, ok := modules.GetPrecompileModuleByAddress(mixer.ContractAddress)
	require.True(t, ok)
	require.Equal(t, "mixerConfig", m.ConfigKey)
	require.Equal(t, mixer.ContractAddress, m.Contract.Address())

	m, ok = modules.GetPrecompileModule("delegatedMixerConfig")
	require.True(t, ok)
	require.Equal(t, mixer.DelegatedContractAddress, m.Address)
}

func TestAllPrecompilesResolvable(t *testing.T) {
	for _, info := range AllPrecompiles {
		addr := common.HexToAddress(info.Address)
		_, ok := modules.GetPrecompileModuleByAddress(addr)
		require.True(t, ok, "precompile %s is not registered", info.Name)
	}
}
