// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slots provides typed storage cells for built-in modules. Every module
// owns a space (an address) in the state, and each cell lives at a fixed position
// inside it. Mapping entries are placed at blake2b(key, base).
package slots

import (
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/thor"
)

// Context binds a storage space to a state.
type Context struct {
	space thor.Address
	state *state.State
}

func NewContext(space thor.Address, state *state.State) *Context {
	return &Context{space: space, state: state}
}

func (c *Context) Space() thor.Address { return c.space }

func (c *Context) State() *state.State { return c.state }

// Pos derives a stable position from a name.
func Pos(name string) thor.Bytes32 {
	return thor.Blake2b([]byte(name))
}
