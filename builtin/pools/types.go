// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"encoding/binary"
	"math/big"

	"github.com/vechain/npos/thor"
)

type PoolState uint8

const (
	PoolOpen PoolState = iota
	PoolBlocked
	PoolDestroying
)

func (s PoolState) String() string {
	switch s {
	case PoolBlocked:
		return "Blocked"
	case PoolDestroying:
		return "Destroying"
	default:
		return "Open"
	}
}

func (s PoolState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Pool stakes the funds of its members through one bonded account.
type Pool struct {
	ID            uint32       `json:"id"`
	Depositor     thor.Address `json:"depositor"`
	Root          thor.Address `json:"root"`
	State         PoolState    `json:"state"`
	Points        *big.Int     `json:"points"`
	MemberCounter uint32       `json:"memberCounter"`
}

// BondedAccount is the stash holding the stake of the pool.
func BondedAccount(id uint32) thor.Address {
	h := thor.Blake2b([]byte("pools/bonded"), binary.BigEndian.AppendUint32(nil, id))
	return thor.BytesToAddress(h.Bytes())
}

// UnbondingEntry is a member claim on the unbond pool of an era.
type UnbondingEntry struct {
	Era    uint32   `json:"era"`
	Points *big.Int `json:"points"`
}

type Member struct {
	Account   thor.Address      `json:"account"`
	PoolID    uint32            `json:"poolId"`
	Points    *big.Int          `json:"points"`
	Unbonding []*UnbondingEntry `json:"unbonding"`
}

func (m *Member) unbondingPoints() *big.Int {
	sum := new(big.Int)
	for _, u := range m.Unbonding {
		sum.Add(sum, u.Points)
	}
	return sum
}

// UnbondPool tracks funds being unbonded. Its points are claims on Balance.
type UnbondPool struct {
	Points  *big.Int `json:"points"`
	Balance *big.Int `json:"balance"`
}

func newUnbondPool() *UnbondPool {
	return &UnbondPool{Points: new(big.Int), Balance: new(big.Int)}
}

// issue adds balance and returns the points it is worth.
func (u *UnbondPool) issue(balance *big.Int) *big.Int {
	points := new(big.Int).Set(balance)
	if u.Points.Sign() > 0 && u.Balance.Sign() > 0 {
		points.Mul(balance, u.Points).Quo(points, u.Balance)
	}
	u.Points.Add(u.Points, points)
	u.Balance.Add(u.Balance, balance)
	return points
}

// dissolve removes points and returns the balance they were worth.
func (u *UnbondPool) dissolve(points *big.Int) *big.Int {
	balance := new(big.Int)
	if u.Points.Sign() > 0 {
		balance.Mul(points, u.Balance).Quo(balance, u.Points)
	}
	u.Points.Sub(u.Points, points)
	u.Balance.Sub(u.Balance, balance)
	return balance
}

type EraUnbondPool struct {
	Era  uint32      `json:"era"`
	Pool *UnbondPool `json:"pool"`
}

// SubPools are the unbond pools of a pool. Old era pools get merged into NoEra.
type SubPools struct {
	NoEra   *UnbondPool      `json:"noEra"`
	WithEra []*EraUnbondPool `json:"withEra"`
}

func (s *SubPools) at(era uint32) *UnbondPool {
	for _, e := range s.WithEra {
		if e.Era == era {
			return e.Pool
		}
	}
	return s.NoEra
}

func (s *SubPools) forEra(era uint32) *UnbondPool {
	for _, e := range s.WithEra {
		if e.Era == era {
			return e.Pool
		}
	}
	p := newUnbondPool()
	s.WithEra = append(s.WithEra, &EraUnbondPool{Era: era, Pool: p})
	return p
}

// mergeBefore folds the era pools older than era into NoEra.
func (s *SubPools) mergeBefore(era uint32) {
	kept := s.WithEra[:0]
	for _, e := range s.WithEra {
		if e.Era < era {
			s.NoEra.Points.Add(s.NoEra.Points, e.Pool.Points)
			s.NoEra.Balance.Add(s.NoEra.Balance, e.Pool.Balance)
			continue
		}
		kept = append(kept, e)
	}
	s.WithEra = kept
}
