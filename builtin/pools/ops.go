// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"math/big"
	"slices"

	"github.com/vechain/npos/builtin/balances"
	"github.com/vechain/npos/builtin/slots"
	"github.com/vechain/npos/thor"
)

//
// Setters - state change
//

// Create opens a new pool funded by depositor. Root administers it.
func (p *Pools) Create(depositor thor.Address, amount *big.Int, root thor.Address) (uint32, error) {
	logger.Debug("create pool", "depositor", depositor, "amount", amount, "root", root)

	if _, found, err := p.members.Lookup(depositor); err != nil {
		return 0, err
	} else if found {
		logger.Info("create pool failed", "depositor", depositor, "error", ErrAccountBelongsToOtherPool)
		return 0, ErrAccountBelongsToOtherPool
	}
	floor, err := p.MinCreateBond()
	if err != nil {
		return 0, err
	}
	if amount.Cmp(floor) < 0 {
		logger.Info("create pool failed", "depositor", depositor, "amount", amount, "error", ErrMinimumBondNotMet)
		return 0, ErrMinimumBondNotMet
	}

	if reducible, err := p.balances.Reducible(depositor); err != nil {
		return 0, err
	} else if reducible.Cmp(amount) < 0 {
		logger.Info("create pool failed", "depositor", depositor, "error", balances.ErrInsufficientBalance)
		return 0, balances.ErrInsufficientBalance
	}

	last, err := p.lastPoolID.Get()
	if err != nil {
		return 0, err
	}
	id := last + 1
	bonded := BondedAccount(id)
	// registered first so the observer counts the initial bond
	if err := p.bonded.Set(bonded, id); err != nil {
		return 0, err
	}
	if err := p.balances.Transfer(depositor, bonded, amount); err != nil {
		return 0, err
	}
	if err := p.staking.Bond(bonded, amount); err != nil {
		return 0, err
	}

	pool := &Pool{
		ID:            id,
		Depositor:     depositor,
		Root:          root,
		State:         PoolOpen,
		Points:        new(big.Int).Set(amount),
		MemberCounter: 1,
	}
	member := &Member{Account: depositor, PoolID: id, Points: new(big.Int).Set(amount)}
	if err := p.lastPoolID.Set(id); err != nil {
		return 0, err
	}
	if err := p.savePool(pool); err != nil {
		return 0, err
	}
	if err := p.subPools.Set(slots.Uint64Key(id), &SubPools{NoEra: newUnbondPool()}); err != nil {
		return 0, err
	}
	if err := p.members.Set(depositor, member); err != nil {
		return 0, err
	}
	p.emitter.Emit(&Created{PoolID: id, Depositor: depositor})
	p.emitter.Emit(&Bonded{Member: depositor, PoolID: id, Amount: new(big.Int).Set(amount), Joined: true})
	logger.Info("pool created", "pool", id, "depositor", depositor, "bonded", bonded)
	return id, nil
}

// Join adds who to an open pool with amount of its free balance.
func (p *Pools) Join(who thor.Address, amount *big.Int, poolID uint32) error {
	logger.Debug("join pool", "member", who, "amount", amount, "pool", poolID)

	if _, found, err := p.members.Lookup(who); err != nil {
		return err
	} else if found {
		logger.Info("join pool failed", "member", who, "error", ErrAccountBelongsToOtherPool)
		return ErrAccountBelongsToOtherPool
	}
	pool, err := p.Pool(poolID)
	if err != nil {
		return err
	}
	if pool.State != PoolOpen {
		logger.Info("join pool failed", "member", who, "pool", poolID, "error", ErrPoolNotOpen)
		return ErrPoolNotOpen
	}
	floor, err := p.MinJoinBond()
	if err != nil {
		return err
	}
	if amount.Cmp(floor) < 0 {
		logger.Info("join pool failed", "member", who, "amount", amount, "error", ErrMinimumBondNotMet)
		return ErrMinimumBondNotMet
	}

	points, err := p.bondInto(who, pool, amount)
	if err != nil {
		return err
	}
	pool.MemberCounter++
	if err := p.savePool(pool); err != nil {
		return err
	}
	if err := p.members.Set(who, &Member{Account: who, PoolID: poolID, Points: points}); err != nil {
		return err
	}
	p.emitter.Emit(&Bonded{Member: who, PoolID: poolID, Amount: new(big.Int).Set(amount), Joined: true})
	return nil
}

// BondExtra adds amount of the member free balance to its pool stake.
func (p *Pools) BondExtra(who thor.Address, amount *big.Int) error {
	logger.Debug("pool bond extra", "member", who, "amount", amount)

	m, pool, err := p.poolOf(who)
	if err != nil {
		return err
	}
	if pool.State == PoolDestroying {
		logger.Info("pool bond extra failed", "member", who, "error", ErrPoolNotOpen)
		return ErrPoolNotOpen
	}
	if amount.Sign() <= 0 {
		return ErrMinimumBondNotMet
	}
	points, err := p.bondInto(who, pool, amount)
	if err != nil {
		return err
	}
	m.Points.Add(m.Points, points)
	if err := p.savePool(pool); err != nil {
		return err
	}
	if err := p.members.Set(who, m); err != nil {
		return err
	}
	p.emitter.Emit(&Bonded{Member: who, PoolID: pool.ID, Amount: new(big.Int).Set(amount)})
	return nil
}

// bondInto moves amount to the bonded account, bonds it and issues the
// points it is worth to the pool.
func (p *Pools) bondInto(who thor.Address, pool *Pool, amount *big.Int) (*big.Int, error) {
	active, err := p.BondedBalance(pool.ID)
	if err != nil {
		return nil, err
	}
	if pool.Points.Sign() > 0 && active.Sign() == 0 {
		logger.Info("pool bond failed", "member", who, "pool", pool.ID, "error", ErrPoolInsolvent)
		return nil, ErrPoolInsolvent
	}
	points := balanceToPoints(pool, active, amount)
	bonded := BondedAccount(pool.ID)
	if err := p.balances.Transfer(who, bonded, amount); err != nil {
		return nil, err
	}
	if err := p.staking.BondExtra(bonded, amount); err != nil {
		return nil, err
	}
	pool.Points.Add(pool.Points, points)
	return points, nil
}

// Unbond starts unbonding points of the member stake. The balance they are
// worth is unbonded from the bonded account and claimable after the bonding
// duration.
func (p *Pools) Unbond(who thor.Address, points *big.Int) error {
	logger.Debug("pool unbond", "member", who, "points", points)

	m, pool, err := p.poolOf(who)
	if err != nil {
		return err
	}
	if points.Sign() <= 0 || points.Cmp(m.Points) > 0 {
		logger.Info("pool unbond failed", "member", who, "points", points, "error", ErrNotEnoughPointsToUnbond)
		return ErrNotEnoughPointsToUnbond
	}
	active, err := p.BondedBalance(pool.ID)
	if err != nil {
		return err
	}
	remaining := pointsToBalance(pool, active, new(big.Int).Sub(m.Points, points))
	if err := p.checkRemaining(m, pool, remaining); err != nil {
		logger.Info("pool unbond failed", "member", who, "remaining", remaining, "error", err)
		return err
	}

	era, err := p.staking.CurrentEra()
	if err != nil {
		return err
	}
	unlockEra := era + p.cfg.BondingDuration
	at := slices.IndexFunc(m.Unbonding, func(u *UnbondingEntry) bool { return u.Era == unlockEra })
	if at < 0 && uint32(len(m.Unbonding)) >= p.cfg.MaxPoolUnbonding {
		logger.Info("pool unbond failed", "member", who, "error", ErrMaxUnbondingLimit)
		return ErrMaxUnbondingLimit
	}

	balance := pointsToBalance(pool, active, points)
	if balance.Sign() > 0 {
		if err := p.staking.Unbond(BondedAccount(pool.ID), balance); err != nil {
			return err
		}
		// a remainder below the existential deposit is unbonded along with it
		after, err := p.BondedBalance(pool.ID)
		if err != nil {
			return err
		}
		balance.Sub(active, after)
	}

	sub, err := p.SubPools(pool.ID)
	if err != nil {
		return err
	}
	if era > p.cfg.BondingDuration {
		sub.mergeBefore(era - p.cfg.BondingDuration)
	}
	claim := sub.forEra(unlockEra).issue(balance)
	if err := p.subPools.Set(slots.Uint64Key(pool.ID), sub); err != nil {
		return err
	}

	if at < 0 {
		m.Unbonding = append(m.Unbonding, &UnbondingEntry{Era: unlockEra, Points: claim})
	} else {
		m.Unbonding[at].Points.Add(m.Unbonding[at].Points, claim)
	}
	m.Points.Sub(m.Points, points)
	pool.Points.Sub(pool.Points, points)
	if err := p.savePool(pool); err != nil {
		return err
	}
	if err := p.members.Set(who, m); err != nil {
		return err
	}
	p.emitter.Emit(&Unbonded{Member: who, PoolID: pool.ID, Points: new(big.Int).Set(points), Balance: balance, Era: unlockEra})
	return nil
}

// checkRemaining enforces the bond left to a member after an unbond. The
// depositor may only leave a destroying pool as its last member.
func (p *Pools) checkRemaining(m *Member, pool *Pool, remaining *big.Int) error {
	if m.Account == pool.Depositor {
		if pool.State == PoolDestroying && pool.MemberCounter == 1 {
			return nil
		}
		floor, err := p.MinCreateBond()
		if err != nil {
			return err
		}
		if remaining.Cmp(floor) < 0 {
			return ErrMinimumBondNotMet
		}
		return nil
	}
	if remaining.Sign() == 0 {
		return nil
	}
	floor, err := p.MinJoinBond()
	if err != nil {
		return err
	}
	if remaining.Cmp(floor) < 0 {
		return ErrMinimumBondNotMet
	}
	return nil
}

// WithdrawUnbonded pays the member its matured unbonding claims from the
// bonded account. Funds an earlier sweep already released are paid the same
// way as funds released now.
func (p *Pools) WithdrawUnbonded(who thor.Address) error {
	logger.Debug("pool withdraw unbonded", "member", who)

	m, pool, err := p.poolOf(who)
	if err != nil {
		return err
	}
	era, err := p.staking.CurrentEra()
	if err != nil {
		return err
	}
	var matured, pending []*UnbondingEntry
	for _, u := range m.Unbonding {
		if u.Era <= era {
			matured = append(matured, u)
		} else {
			pending = append(pending, u)
		}
	}
	if len(matured) == 0 {
		logger.Info("pool withdraw unbonded failed", "member", who, "error", ErrCannotWithdrawAny)
		return ErrCannotWithdrawAny
	}

	bonded := BondedAccount(pool.ID)
	if isStash, err := p.staking.IsBonded(bonded); err != nil {
		return err
	} else if isStash {
		if err := p.staking.WithdrawUnbonded(bonded); err != nil {
			return err
		}
	}

	sub, err := p.SubPools(pool.ID)
	if err != nil {
		return err
	}
	points, owed := new(big.Int), new(big.Int)
	for _, u := range matured {
		points.Add(points, u.Points)
		owed.Add(owed, sub.at(u.Era).dissolve(u.Points))
	}
	// slashes may have left the bonded account short of the claims
	reducible, err := p.balances.Reducible(bonded)
	if err != nil {
		return err
	}
	if owed.Cmp(reducible) > 0 {
		owed.Set(reducible)
	}
	if owed.Sign() > 0 {
		if err := p.balances.Transfer(bonded, who, owed); err != nil {
			return err
		}
	}
	if err := p.subPools.Set(slots.Uint64Key(pool.ID), sub); err != nil {
		return err
	}
	p.emitter.Emit(&Withdrawn{Member: who, PoolID: pool.ID, Points: points, Balance: owed})

	m.Unbonding = pending
	if m.Points.Sign() > 0 || len(m.Unbonding) > 0 {
		return p.members.Set(who, m)
	}
	return p.removeMember(m, pool)
}

func (p *Pools) removeMember(m *Member, pool *Pool) error {
	p.members.Delete(m.Account)
	pool.MemberCounter--
	p.emitter.Emit(&MemberRemoved{PoolID: pool.ID, Member: m.Account})
	if pool.MemberCounter > 0 {
		return p.savePool(pool)
	}
	p.pools.Delete(slots.Uint64Key(pool.ID))
	p.subPools.Delete(slots.Uint64Key(pool.ID))
	p.emitter.Emit(&Destroyed{PoolID: pool.ID})
	logger.Info("pool destroyed", "pool", pool.ID)
	return nil
}

func (p *Pools) checkRoot(caller thor.Address, poolID uint32) (*Pool, error) {
	pool, err := p.Pool(poolID)
	if err != nil {
		return nil, err
	}
	if caller != pool.Root {
		logger.Info("pool admin call rejected", "caller", caller, "pool", poolID, "error", ErrDoesNotHavePermission)
		return nil, ErrDoesNotHavePermission
	}
	return pool, nil
}

// Nominate makes the pool bonded account nominate targets.
func (p *Pools) Nominate(caller thor.Address, poolID uint32, targets []thor.Address) error {
	logger.Debug("pool nominate", "caller", caller, "pool", poolID, "targets", len(targets))
	if _, err := p.checkRoot(caller, poolID); err != nil {
		return err
	}
	return p.staking.Nominate(BondedAccount(poolID), targets)
}

func (p *Pools) Chill(caller thor.Address, poolID uint32) error {
	logger.Debug("pool chill", "caller", caller, "pool", poolID)
	if _, err := p.checkRoot(caller, poolID); err != nil {
		return err
	}
	return p.staking.Chill(BondedAccount(poolID))
}

// SetState changes the pool state. Destroying is final.
func (p *Pools) SetState(caller thor.Address, poolID uint32, state PoolState) error {
	logger.Debug("pool set state", "caller", caller, "pool", poolID, "state", state)
	pool, err := p.checkRoot(caller, poolID)
	if err != nil {
		return err
	}
	if pool.State == PoolDestroying || pool.State == state || state > PoolDestroying {
		logger.Info("pool set state failed", "pool", poolID, "from", pool.State, "to", state, "error", ErrCanNotChangeState)
		return ErrCanNotChangeState
	}
	pool.State = state
	if err := p.savePool(pool); err != nil {
		return err
	}
	p.emitter.Emit(&StateChanged{PoolID: poolID, State: state})
	return nil
}
