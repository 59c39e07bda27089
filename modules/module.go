// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package modules tracks the stateful precompile modules compiled into the
// chain and the address ranges reserved for them.
package modules

import (
	"bytes"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/privacy/contract"
)

// Module pairs a precompile with the config key and address it is activated
// under.
type Module struct {
	// ConfigKey is the key used in chain config genesis to enable the module.
	ConfigKey string
	// Address is the address where the precompile is accessible.
	Address common.Address
	// Contract is the precompile singleton.
	Contract contract.StatefulPrecompiledContract
}

type moduleArray []Module

func (m moduleArray) Len() int {
	return len(m)
}

func (m moduleArray) Swap(i, j int) {
	m[i], m[j] = m[j], m[i]
}

func (m moduleArray) Less(i, j int) bool {
	return bytes.Compare(m[i].Address.Bytes(), m[j].Address.Bytes()) < 0
}
