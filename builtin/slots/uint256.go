// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slots

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos/thor"
)

// ErrUnderflow is returned when a Sub would take a counter below zero.
var ErrUnderflow = errors.New("uint256 underflow")

// Uint256 is a non-negative counter cell. Absent reads as zero and zero is stored as absent.
type Uint256 struct {
	ctx *Context
	pos thor.Bytes32
}

func NewUint256(ctx *Context, pos thor.Bytes32) *Uint256 {
	return &Uint256{ctx: ctx, pos: pos}
}

func (u *Uint256) Get() (*big.Int, error) {
	v, _, err := decode[*big.Int](u.ctx, u.pos)
	return v, err
}

func (u *Uint256) Set(value *big.Int) error {
	if value.Sign() < 0 {
		return ErrUnderflow
	}
	if value.Sign() == 0 {
		u.ctx.state.SetRawStorage(u.ctx.space, u.pos, nil)
		return nil
	}
	return encode(u.ctx, u.pos, value)
}

func (u *Uint256) Add(delta *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(v.Add(v, delta))
}

func (u *Uint256) Sub(delta *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	if v.Cmp(delta) < 0 {
		return errors.WithMessagef(ErrUnderflow, "%v - %v", v, delta)
	}
	return u.Set(v.Sub(v, delta))
}
