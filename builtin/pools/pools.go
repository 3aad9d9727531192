// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pools lets accounts stake together through a shared bonded account
// and keeps the total value locked in all pools.
package pools

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos/builtin/balances"
	"github.com/vechain/npos/builtin/params"
	"github.com/vechain/npos/builtin/reverts"
	"github.com/vechain/npos/builtin/slots"
	"github.com/vechain/npos/builtin/staking"
	"github.com/vechain/npos/events"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/metrics"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/thor"
)

var logger = log.WithContext("pkg", "pools")

var (
	ErrPoolNotFound              = reverts.New("pool not found")
	ErrPoolNotOpen               = reverts.New("pool is not open to join")
	ErrAccountBelongsToOtherPool = reverts.New("account belongs to another pool")
	ErrMinimumBondNotMet         = reverts.New("minimum bond not met")
	ErrNotEnoughPointsToUnbond   = reverts.New("not enough points to unbond")
	ErrMaxUnbondingLimit         = reverts.New("max unbonding limit reached")
	ErrCannotWithdrawAny         = reverts.New("nothing to withdraw")
	ErrPoolMemberNotFound        = reverts.New("pool member not found")
	ErrDoesNotHavePermission     = reverts.New("caller does not have permission")
	ErrCanNotChangeState         = reverts.New("pool state can not change")
	ErrPoolInsolvent             = reverts.New("pool has points but no bonded stake")
)

var metricTVL = metrics.LazyLoadGauge("pools_tvl")

var (
	slotLastPoolID = slots.Pos("last-pool-id")
	slotPools      = slots.Pos("pools")
	slotMembers    = slots.Pos("members")
	slotSubPools   = slots.Pos("sub-pools")
	slotBonded     = slots.Pos("bonded-accounts")
	slotTVL        = slots.Pos("total-value-locked")
)

type Pools struct {
	cfg      thor.Config
	params   *params.Params
	staking  *staking.Staking
	balances *balances.Balances
	emitter  events.Emitter

	lastPoolID *slots.Value[uint32]
	pools      *slots.Mapping[slots.Uint64Key, *Pool]
	members    *slots.Mapping[thor.Address, *Member]
	subPools   *slots.Mapping[slots.Uint64Key, *SubPools]
	bonded     *slots.Mapping[thor.Address, uint32] // bonded account to pool id
	tvl        *slots.Uint256
}

// New creates the pools module and subscribes it to ledger changes, which is
// the only way the total value locked moves.
func New(
	addr thor.Address,
	state *state.State,
	cfg thor.Config,
	params *params.Params,
	staking *staking.Staking,
	balances *balances.Balances,
	emitter events.Emitter,
) *Pools {
	sctx := slots.NewContext(addr, state)
	p := &Pools{
		cfg:      cfg,
		params:   params,
		staking:  staking,
		balances: balances,
		emitter:  emitter,

		lastPoolID: slots.NewValue[uint32](sctx, slotLastPoolID),
		pools:      slots.NewMapping[slots.Uint64Key, *Pool](sctx, slotPools),
		members:    slots.NewMapping[thor.Address, *Member](sctx, slotMembers),
		subPools:   slots.NewMapping[slots.Uint64Key, *SubPools](sctx, slotSubPools),
		bonded:     slots.NewMapping[thor.Address, uint32](sctx, slotBonded),
		tvl:        slots.NewUint256(sctx, slotTVL),
	}
	staking.Subscribe(p)
	return p
}

// OnLedgerChange moves the total value locked by the change of a pool bonded
// ledger. Explicit and incidental withdrawals are seen alike.
func (p *Pools) OnLedgerChange(change *staking.LedgerChange) error {
	id, found, err := p.bonded.Lookup(change.Stash)
	if err != nil || !found {
		return err
	}
	delta := change.Delta()
	switch delta.Sign() {
	case 1:
		err = p.tvl.Add(delta)
	case -1:
		err = p.tvl.Sub(delta.Neg(delta))
	}
	if err != nil {
		return err
	}
	tvl, err := p.tvl.Get()
	if err != nil {
		return err
	}
	if tvl.IsInt64() {
		metricTVL().Set(tvl.Int64())
	}
	logger.Debug("total value locked changed", "pool", id, "before", change.Before, "after", change.After, "tvl", tvl)
	return nil
}

//
// Getters - no state change
//

func (p *Pools) TotalValueLocked() (*big.Int, error) {
	return p.tvl.Get()
}

func (p *Pools) LastPoolID() (uint32, error) {
	return p.lastPoolID.Get()
}

func (p *Pools) Pool(id uint32) (*Pool, error) {
	pool, found, err := p.pools.Lookup(slots.Uint64Key(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

func (p *Pools) Member(who thor.Address) (*Member, error) {
	m, found, err := p.members.Lookup(who)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPoolMemberNotFound
	}
	return m, nil
}

func (p *Pools) SubPools(id uint32) (*SubPools, error) {
	sp, err := p.subPools.Get(slots.Uint64Key(id))
	if err != nil {
		return nil, err
	}
	if sp.NoEra == nil {
		sp.NoEra = newUnbondPool()
	}
	return sp, nil
}

// BondedBalance is the active stake of the pool bonded account, which backs
// the pool points.
func (p *Pools) BondedBalance(id uint32) (*big.Int, error) {
	l, err := p.staking.Ledger(BondedAccount(id))
	if err != nil {
		if errors.Is(err, staking.ErrNotStash) {
			return new(big.Int), nil
		}
		return nil, err
	}
	return l.Active, nil
}

// PointsToBalance converts pool points to the stake they are worth.
func (p *Pools) PointsToBalance(id uint32, points *big.Int) (*big.Int, error) {
	pool, err := p.Pool(id)
	if err != nil {
		return nil, err
	}
	active, err := p.BondedBalance(id)
	if err != nil {
		return nil, err
	}
	return pointsToBalance(pool, active, points), nil
}

func pointsToBalance(pool *Pool, active, points *big.Int) *big.Int {
	if pool.Points.Sign() == 0 {
		return new(big.Int)
	}
	b := new(big.Int).Mul(points, active)
	return b.Quo(b, pool.Points)
}

// balanceToPoints issues points 1:1 to an empty pool. Callers reject a pool
// with points but no active stake.
func balanceToPoints(pool *Pool, active, balance *big.Int) *big.Int {
	if pool.Points.Sign() == 0 || active.Sign() == 0 {
		return new(big.Int).Set(balance)
	}
	pts := new(big.Int).Mul(balance, pool.Points)
	return pts.Quo(pts, active)
}

func (p *Pools) minBond(key thor.Bytes32) (*big.Int, error) {
	floor, err := p.params.Get(key)
	if err != nil {
		return nil, err
	}
	if ed := p.cfg.ED(); floor.Cmp(ed) < 0 {
		return ed, nil
	}
	return floor, nil
}

// MinCreateBond is the least a depositor keeps bonded in an open pool.
func (p *Pools) MinCreateBond() (*big.Int, error) {
	create, err := p.minBond(params.KeyMinCreateBond)
	if err != nil {
		return nil, err
	}
	join, err := p.minBond(params.KeyMinJoinBond)
	if err != nil {
		return nil, err
	}
	if join.Cmp(create) > 0 {
		return join, nil
	}
	return create, nil
}

func (p *Pools) MinJoinBond() (*big.Int, error) {
	return p.minBond(params.KeyMinJoinBond)
}

func (p *Pools) savePool(pool *Pool) error {
	return p.pools.Set(slots.Uint64Key(pool.ID), pool)
}

func (p *Pools) poolOf(who thor.Address) (*Member, *Pool, error) {
	m, err := p.Member(who)
	if err != nil {
		return nil, nil, err
	}
	pool, err := p.Pool(m.PoolID)
	if err != nil {
		return nil, nil, err
	}
	return m, pool, nil
}
