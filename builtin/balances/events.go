// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package balances

import (
	"math/big"

	"github.com/vechain/npos/thor"
)

const module = "balances"

type Transfer struct {
	From   thor.Address `json:"from"`
	To     thor.Address `json:"to"`
	Amount *big.Int     `json:"amount"`
}

type Minted struct {
	Who    thor.Address `json:"who"`
	Amount *big.Int     `json:"amount"`
}

type Burned struct {
	Who    thor.Address `json:"who"`
	Amount *big.Int     `json:"amount"`
}

func (*Transfer) Module() string { return module }
func (*Transfer) Name() string   { return "Transfer" }
func (e *Transfer) Account() thor.Address {
	return e.From
}

func (*Minted) Module() string          { return module }
func (*Minted) Name() string            { return "Minted" }
func (e *Minted) Account() thor.Address { return e.Who }

func (*Burned) Module() string          { return module }
func (*Burned) Name() string            { return "Burned" }
func (e *Burned) Account() thor.Address { return e.Who }
