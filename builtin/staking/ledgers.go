// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos/builtin/balances"
	"github.com/vechain/npos/builtin/staking/ledger"
	"github.com/vechain/npos/thor"
)

// A ledger mutation is staged on an in-memory copy and only written by commit,
// so a rejected call leaves storage untouched.
type staged struct {
	l         *ledger.Ledger
	before    *big.Int
	withdrawn *big.Int
}

func (s *Staking) stage(stash thor.Address) (*staged, error) {
	l, err := s.Ledger(stash)
	if err != nil {
		return nil, err
	}
	return &staged{l: l, before: new(big.Int).Set(l.Total), withdrawn: new(big.Int)}, nil
}

// sweep is the maturity sweep run at the top of every caller facing entry
// point touching a ledger: chunks payable at the current era leave the ledger.
func (s *Staking) sweep(st *staged) error {
	era, err := s.CurrentEra()
	if err != nil {
		return err
	}
	st.withdrawn.Add(st.withdrawn, st.l.ConsolidateUnlocked(era))
	return nil
}

func (s *Staking) commit(st *staged) error {
	l := st.l
	if err := l.Check(); err != nil {
		return err
	}
	if err := s.ledgers.Set(l.Stash, l); err != nil {
		return err
	}
	if err := s.balances.SetLock(LockID, l.Stash, l.Total); err != nil {
		return err
	}
	if err := s.applyTotal(st.before, l.Total); err != nil {
		return err
	}
	s.emitWithdrawn(l.Stash, st.withdrawn)
	return s.notify(l.Stash, st.before, l.Total)
}

// kill deletes the ledger and everything hanging on it.
func (s *Staking) kill(st *staged) error {
	stash := st.l.Stash
	s.ledgers.Delete(stash)
	if err := s.balances.RemoveLock(LockID, stash); err != nil {
		return err
	}
	if err := s.applyTotal(st.before, new(big.Int)); err != nil {
		return err
	}
	n, err := s.ledgerCount.Get()
	if err != nil {
		return err
	}
	if n > 0 {
		if err := s.ledgerCount.Set(n - 1); err != nil {
			return err
		}
	}
	s.emitWithdrawn(stash, st.withdrawn)
	s.emitter.Emit(&Killed{Stash: stash, Dust: new(big.Int).Set(st.l.Total)})
	logger.Info("stash killed", "stash", stash)
	return s.notify(stash, st.before, new(big.Int))
}

func (s *Staking) applyTotal(before, after *big.Int) error {
	switch d := new(big.Int).Sub(after, before); d.Sign() {
	case 1:
		return s.totalStaked.Add(d)
	case -1:
		return s.totalStaked.Sub(d.Neg(d))
	}
	return nil
}

func (s *Staking) emitWithdrawn(stash thor.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	s.emitter.Emit(&Withdrawn{Stash: stash, Amount: new(big.Int).Set(amount)})
	if amount.IsInt64() {
		metricWithdrawnTotal().Add(amount.Int64())
	}
}

func (s *Staking) notify(stash thor.Address, before, after *big.Int) error {
	if before.Cmp(after) == 0 {
		return nil
	}
	change := &LedgerChange{Stash: stash, Before: new(big.Int).Set(before), After: new(big.Int).Set(after)}
	for _, o := range s.observers {
		if err := o.OnLedgerChange(change); err != nil {
			return err
		}
	}
	return nil
}

//
// Setters - state change
//

// Bond creates the ledger of stash with value locked from its free balance.
func (s *Staking) Bond(stash thor.Address, value *big.Int) error {
	logger.Debug("bond", "stash", stash, "value", value)

	if bonded, err := s.IsBonded(stash); err != nil {
		return err
	} else if bonded {
		logger.Info("bond failed", "stash", stash, "error", ErrAlreadyBonded)
		return ErrAlreadyBonded
	}
	if value.Cmp(s.cfg.ED()) < 0 {
		logger.Info("bond failed", "stash", stash, "error", ErrInsufficientBond)
		return ErrInsufficientBond
	}
	reducible, err := s.balances.Reducible(stash)
	if err != nil {
		return err
	}
	if reducible.Cmp(value) < 0 {
		logger.Info("bond failed", "stash", stash, "error", balances.ErrInsufficientBalance)
		return balances.ErrInsufficientBalance
	}

	n, err := s.ledgerCount.Get()
	if err != nil {
		return err
	}
	if err := s.ledgerCount.Set(n + 1); err != nil {
		return err
	}
	st := &staged{l: ledger.New(stash, value), before: new(big.Int), withdrawn: new(big.Int)}
	if err := s.commit(st); err != nil {
		return err
	}
	s.emitter.Emit(&Bonded{Stash: stash, Amount: new(big.Int).Set(value)})
	return nil
}

// BondExtra adds up to limit of the free balance to the active stake.
func (s *Staking) BondExtra(stash thor.Address, limit *big.Int) error {
	logger.Debug("bond extra", "stash", stash, "limit", limit)

	st, err := s.stage(stash)
	if err != nil {
		return err
	}
	reducible, err := s.balances.Reducible(stash)
	if err != nil {
		return err
	}
	if err := s.sweep(st); err != nil {
		return err
	}
	// value released by the sweep becomes free again
	extra := reducible.Add(reducible, st.withdrawn)
	if extra.Cmp(limit) > 0 {
		extra.Set(limit)
	}
	if extra.Sign() > 0 && new(big.Int).Add(st.l.Active, extra).Cmp(s.cfg.ED()) < 0 {
		logger.Info("bond extra failed", "stash", stash, "error", ErrInsufficientBond)
		return ErrInsufficientBond
	}
	if extra.Sign() == 0 && st.withdrawn.Sign() == 0 {
		return nil
	}

	st.l.BondExtra(extra)
	if err := s.commit(st); err != nil {
		return err
	}
	if extra.Sign() > 0 {
		s.emitter.Emit(&Bonded{Stash: stash, Amount: extra})
	}
	return nil
}

// Unbond schedules value of the active stake for withdrawal after the bonding
// duration. Value is clamped to the active stake, and a remainder below the
// existential deposit is unbonded too.
func (s *Staking) Unbond(stash thor.Address, value *big.Int) error {
	logger.Debug("unbond", "stash", stash, "value", value)

	st, err := s.stage(stash)
	if err != nil {
		return err
	}
	role, err := s.Role(stash)
	if err != nil {
		return err
	}
	if err := s.sweep(st); err != nil {
		return err
	}

	l := st.l
	amount := new(big.Int).Set(value)
	if amount.Cmp(l.Active) > 0 {
		amount.Set(l.Active)
	}
	remaining := new(big.Int).Sub(l.Active, amount)
	if remaining.Sign() > 0 && remaining.Cmp(s.cfg.ED()) < 0 {
		amount.Set(l.Active)
		remaining.SetUint64(0)
	}
	// the floor only binds stashes that validate or nominate
	if role.IsActive() {
		floor, err := s.MinBond(role.Kind)
		if err != nil {
			return err
		}
		if remaining.Cmp(floor) < 0 {
			logger.Info("unbond failed", "stash", stash, "role", role.Kind, "error", ErrInsufficientBond)
			return ErrInsufficientBond
		}
	}

	if amount.Sign() > 0 {
		era, err := s.CurrentEra()
		if err != nil {
			return err
		}
		if err := l.Unbond(amount, era+s.cfg.BondingDuration, s.cfg.MaxUnlockingChunks); err != nil {
			logger.Info("unbond failed", "stash", stash, "error", err)
			return err
		}
	} else if st.withdrawn.Sign() == 0 {
		return nil
	}

	if err := s.commit(st); err != nil {
		return err
	}
	if amount.Sign() > 0 {
		s.emitter.Emit(&Unbonded{Stash: stash, Amount: amount})
		metricUnbondCount().Add(1)
	}
	return nil
}

// Rebond moves up to value of unlocking funds back to active, latest chunks first.
func (s *Staking) Rebond(stash thor.Address, value *big.Int) error {
	logger.Debug("rebond", "stash", stash, "value", value)

	st, err := s.stage(stash)
	if err != nil {
		return err
	}
	if err := s.sweep(st); err != nil {
		return err
	}
	if len(st.l.Unlocking) == 0 {
		logger.Info("rebond failed", "stash", stash, "error", ErrNoUnlockChunk)
		return ErrNoUnlockChunk
	}
	moved := st.l.Rebond(value)
	if err := s.commit(st); err != nil {
		return err
	}
	s.emitter.Emit(&Bonded{Stash: stash, Amount: moved})
	return nil
}

// WithdrawUnbonded removes matured chunks. A stash left with nothing and no
// role is deleted. Without matured chunks, or once the stash is gone, it
// changes nothing.
func (s *Staking) WithdrawUnbonded(stash thor.Address) error {
	logger.Debug("withdraw unbonded", "stash", stash)

	st, err := s.stage(stash)
	if err != nil {
		if errors.Is(err, ErrNotStash) {
			return nil
		}
		return err
	}
	role, err := s.Role(stash)
	if err != nil {
		return err
	}
	if err := s.sweep(st); err != nil {
		return err
	}
	if st.l.Total.Sign() == 0 && !role.IsActive() {
		return s.kill(st)
	}
	if st.withdrawn.Sign() == 0 {
		return nil
	}
	return s.commit(st)
}

// ReapStash deletes a stash holding no more than the existential deposit.
// Anyone may call it.
func (s *Staking) ReapStash(caller, stash thor.Address) error {
	logger.Debug("reap stash", "caller", caller, "stash", stash)

	st, err := s.stage(stash)
	if err != nil {
		return err
	}
	if st.l.Total.Cmp(s.cfg.ED()) > 0 {
		logger.Info("reap stash failed", "stash", stash, "total", st.l.Total, "error", ErrFundedTarget)
		return ErrFundedTarget
	}
	role, err := s.Role(stash)
	if err != nil {
		return err
	}
	if role.IsActive() {
		if err := s.chill(stash, role); err != nil {
			return err
		}
	}
	return s.kill(st)
}

// Slash takes fraction of the ledger total, burning it from the stash balance.
// Chunks already payable at the current era are spared.
func (s *Staking) Slash(stash thor.Address, fraction thor.Perbill) (*big.Int, error) {
	st, err := s.stage(stash)
	if err != nil {
		return nil, err
	}
	amount := fraction.MulBig(st.l.Total)
	if amount.Sign() == 0 {
		return amount, nil
	}
	era, err := s.CurrentEra()
	if err != nil {
		return nil, err
	}
	slashed := st.l.Slash(amount, era)
	if _, err := s.balances.Burn(stash, slashed); err != nil {
		return nil, err
	}
	if err := s.commit(st); err != nil {
		return nil, err
	}
	s.emitter.Emit(&Slashed{Stash: stash, Amount: new(big.Int).Set(slashed)})
	logger.Info("stash slashed", "stash", stash, "fraction", fraction, "amount", slashed)
	return slashed, nil
}
