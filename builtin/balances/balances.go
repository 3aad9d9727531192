// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package balances keeps the raw free balance of accounts and the named locks
// staking places on them.
package balances

import (
	"math/big"

	"github.com/vechain/npos/builtin/reverts"
	"github.com/vechain/npos/builtin/slots"
	"github.com/vechain/npos/events"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/thor"
)

var logger = log.WithContext("pkg", "balances")

var (
	ErrInsufficientBalance = reverts.New("insufficient balance")
	ErrExistentialDeposit  = reverts.New("value below existential deposit")
	ErrZeroAmount          = reverts.New("amount must be positive")
)

var (
	slotAccounts = slots.Pos("accounts")
	slotIssuance = slots.Pos("total-issuance")
)

// Lock reserves part of the free balance. Locks with different ids overlap,
// the locked amount of an account is the largest of them.
type Lock struct {
	ID     string
	Amount *big.Int
}

type account struct {
	Free  *big.Int
	Locks []Lock
}

func (a *account) locked() *big.Int {
	highest := new(big.Int)
	for _, l := range a.Locks {
		if l.Amount.Cmp(highest) > 0 {
			highest.Set(l.Amount)
		}
	}
	return highest
}

func (a *account) reducible() *big.Int {
	r := new(big.Int).Sub(a.Free, a.locked())
	if r.Sign() < 0 {
		return r.SetUint64(0)
	}
	return r
}

type Balances struct {
	accounts *slots.Mapping[thor.Address, *account]
	issuance *slots.Uint256
	ed       *big.Int
	emitter  events.Emitter
}

func New(addr thor.Address, state *state.State, existentialDeposit *big.Int, emitter events.Emitter) *Balances {
	ctx := slots.NewContext(addr, state)
	return &Balances{
		accounts: slots.NewMapping[thor.Address, *account](ctx, slotAccounts),
		issuance: slots.NewUint256(ctx, slotIssuance),
		ed:       new(big.Int).Set(existentialDeposit),
		emitter:  emitter,
	}
}

func (b *Balances) get(who thor.Address) (*account, error) {
	acc, err := b.accounts.Get(who)
	if err != nil {
		return nil, err
	}
	if acc.Free == nil {
		acc.Free = new(big.Int)
	}
	return acc, nil
}

func (b *Balances) put(who thor.Address, acc *account) error {
	if acc.Free.Sign() == 0 && len(acc.Locks) == 0 {
		b.accounts.Delete(who)
		return nil
	}
	return b.accounts.Set(who, acc)
}

func (b *Balances) ExistentialDeposit() *big.Int {
	return new(big.Int).Set(b.ed)
}

// Free returns the whole balance including the locked part.
func (b *Balances) Free(who thor.Address) (*big.Int, error) {
	acc, err := b.get(who)
	if err != nil {
		return nil, err
	}
	return acc.Free, nil
}

func (b *Balances) Locked(who thor.Address) (*big.Int, error) {
	acc, err := b.get(who)
	if err != nil {
		return nil, err
	}
	return acc.locked(), nil
}

// Reducible is the part of the free balance not held by any lock.
func (b *Balances) Reducible(who thor.Address) (*big.Int, error) {
	acc, err := b.get(who)
	if err != nil {
		return nil, err
	}
	return acc.reducible(), nil
}

func (b *Balances) TotalIssuance() (*big.Int, error) {
	return b.issuance.Get()
}

// Mint credits new funds. Used by genesis and tests.
func (b *Balances) Mint(who thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	acc, err := b.get(who)
	if err != nil {
		return err
	}
	acc.Free.Add(acc.Free, amount)
	if err := b.put(who, acc); err != nil {
		return err
	}
	if err := b.issuance.Add(amount); err != nil {
		return err
	}
	b.emitter.Emit(&Minted{Who: who, Amount: new(big.Int).Set(amount)})
	return nil
}

// Transfer moves amount from the reducible balance of from to to. Creating
// an account with less than the existential deposit is rejected.
func (b *Balances) Transfer(from, to thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	src, err := b.get(from)
	if err != nil {
		return err
	}
	if src.reducible().Cmp(amount) < 0 {
		logger.Debug("transfer rejected", "from", from, "amount", amount, "reducible", src.reducible())
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	dst, err := b.get(to)
	if err != nil {
		return err
	}
	if dst.Free.Sign() == 0 && amount.Cmp(b.ed) < 0 {
		return ErrExistentialDeposit
	}
	src.Free.Sub(src.Free, amount)
	dst.Free.Add(dst.Free, amount)
	if err := b.put(from, src); err != nil {
		return err
	}
	if err := b.put(to, dst); err != nil {
		return err
	}
	b.emitter.Emit(&Transfer{From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

// SetLock creates or replaces the lock id. A zero amount removes it.
func (b *Balances) SetLock(id string, who thor.Address, amount *big.Int) error {
	acc, err := b.get(who)
	if err != nil {
		return err
	}
	locks := acc.Locks[:0]
	for _, l := range acc.Locks {
		if l.ID != id {
			locks = append(locks, l)
		}
	}
	if amount.Sign() > 0 {
		locks = append(locks, Lock{ID: id, Amount: new(big.Int).Set(amount)})
	}
	acc.Locks = locks
	return b.put(who, acc)
}

func (b *Balances) RemoveLock(id string, who thor.Address) error {
	return b.SetLock(id, who, new(big.Int))
}

// Burn destroys up to amount of the free balance regardless of locks and
// returns what was actually burned.
func (b *Balances) Burn(who thor.Address, amount *big.Int) (*big.Int, error) {
	acc, err := b.get(who)
	if err != nil {
		return nil, err
	}
	burned := new(big.Int).Set(amount)
	if burned.Cmp(acc.Free) > 0 {
		burned.Set(acc.Free)
	}
	if burned.Sign() == 0 {
		return burned, nil
	}
	acc.Free.Sub(acc.Free, burned)
	if err := b.put(who, acc); err != nil {
		return nil, err
	}
	if err := b.issuance.Sub(burned); err != nil {
		return nil, err
	}
	b.emitter.Emit(&Burned{Who: who, Amount: new(big.Int).Set(burned)})
	return burned, nil
}
