// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/vechain/npos/builtin/slots"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/thor"
)

// Governance mutable parameter keys.
var (
	KeyValidatorCount   = thor.BytesToBytes32([]byte("validator-count"))
	KeyMinNominatorBond = thor.BytesToBytes32([]byte("min-nominator-bond"))
	KeyMinValidatorBond = thor.BytesToBytes32([]byte("min-validator-bond"))
	KeyMinJoinBond      = thor.BytesToBytes32([]byte("min-join-bond"))
	KeyMinCreateBond    = thor.BytesToBytes32([]byte("min-create-bond"))
)

// Params binder of the params module.
type Params struct {
	values *slots.Mapping[thor.Bytes32, *big.Int]
}

func New(addr thor.Address, state *state.State) *Params {
	return &Params{slots.NewMapping[thor.Bytes32, *big.Int](slots.NewContext(addr, state), thor.Bytes32{})}
}

// Get returns the value of key, zero if never set.
func (p *Params) Get(key thor.Bytes32) (*big.Int, error) {
	return p.values.Get(key)
}

func (p *Params) Set(key thor.Bytes32, value *big.Int) error {
	return p.values.Set(key, value)
}

// GetUint64 is Get for count like params.
func (p *Params) GetUint64(key thor.Bytes32) (uint64, error) {
	v, err := p.Get(key)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, nil
	}
	return v.Uint64(), nil
}
