// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin names the storage space of every built-in module.
package builtin

import (
	"github.com/vechain/npos/builtin/params"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/thor"
)

// Built-in modules binding.
var (
	Params   = &paramsModule{newModule("Params")}
	Balances = newModule("Balances")
	Staking  = newModule("Staking")
	Slashing = newModule("Slashing")
	Election = newModule("Election")
	Session  = newModule("Session")
	Pools    = newModule("Pools")
	Runtime  = newModule("Runtime")
)

// Modules lists every built-in module.
var Modules = []*Module{Params.Module, Balances, Staking, Slashing, Election, Session, Pools, Runtime}

// Module is a named storage space.
type Module struct {
	Name    string
	Address thor.Address
}

func newModule(name string) *Module {
	return &Module{Name: name, Address: thor.BytesToAddress([]byte(name))}
}

type paramsModule struct{ *Module }

func (p *paramsModule) WithState(state *state.State) *params.Params {
	return params.New(p.Address, state)
}
