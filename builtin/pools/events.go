// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"math/big"

	"github.com/vechain/npos/thor"
)

const module = "pools"

type Created struct {
	PoolID    uint32       `json:"poolId"`
	Depositor thor.Address `json:"depositor"`
}

// Bonded is emitted on create, join and bond extra. Joined marks a new member.
type Bonded struct {
	Member thor.Address `json:"member"`
	PoolID uint32       `json:"poolId"`
	Amount *big.Int     `json:"amount"`
	Joined bool         `json:"joined"`
}

type Unbonded struct {
	Member  thor.Address `json:"member"`
	PoolID  uint32       `json:"poolId"`
	Points  *big.Int     `json:"points"`
	Balance *big.Int     `json:"balance"`
	Era     uint32       `json:"era"`
}

type Withdrawn struct {
	Member  thor.Address `json:"member"`
	PoolID  uint32       `json:"poolId"`
	Points  *big.Int     `json:"points"`
	Balance *big.Int     `json:"balance"`
}

type MemberRemoved struct {
	PoolID uint32       `json:"poolId"`
	Member thor.Address `json:"member"`
}

type StateChanged struct {
	PoolID uint32    `json:"poolId"`
	State  PoolState `json:"state"`
}

type Destroyed struct {
	PoolID uint32 `json:"poolId"`
}

func (*Created) Module() string          { return module }
func (*Created) Name() string            { return "Created" }
func (e *Created) Account() thor.Address { return e.Depositor }

func (*Bonded) Module() string          { return module }
func (*Bonded) Name() string            { return "Bonded" }
func (e *Bonded) Account() thor.Address { return e.Member }

func (*Unbonded) Module() string          { return module }
func (*Unbonded) Name() string            { return "Unbonded" }
func (e *Unbonded) Account() thor.Address { return e.Member }

func (*Withdrawn) Module() string          { return module }
func (*Withdrawn) Name() string            { return "Withdrawn" }
func (e *Withdrawn) Account() thor.Address { return e.Member }

func (*MemberRemoved) Module() string          { return module }
func (*MemberRemoved) Name() string            { return "MemberRemoved" }
func (e *MemberRemoved) Account() thor.Address { return e.Member }

func (*StateChanged) Module() string { return module }
func (*StateChanged) Name() string   { return "StateChanged" }

func (*Destroyed) Module() string { return module }
func (*Destroyed) Name() string   { return "Destroyed" }
