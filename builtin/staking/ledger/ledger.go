// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger holds the per stash bonding ledger and its pure transition
// rules. It knows nothing about storage, roles or scheduling.
package ledger

import (
	"math/big"
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/npos/builtin/reverts"
	"github.com/vechain/npos/thor"
)

var (
	ErrNoMoreChunks  = reverts.New("no more unlocking chunks")
	ErrNoUnlockChunk = reverts.New("no unlocking chunk to rebond")
)

// UnlockChunk is value that becomes withdrawable once the era reaches Era.
type UnlockChunk struct {
	Value *big.Int `json:"value"`
	Era   uint32   `json:"era"`
}

// Ledger tracks the bonded funds of a stash.
// Total always equals Active plus the sum of Unlocking values, and chunk eras are strictly ascending.
type Ledger struct {
	Stash     thor.Address   `json:"stash"`
	Total     *big.Int       `json:"total"`
	Active    *big.Int       `json:"active"`
	Unlocking []*UnlockChunk `json:"unlocking"`
}

func New(stash thor.Address, value *big.Int) *Ledger {
	return &Ledger{
		Stash:  stash,
		Total:  new(big.Int).Set(value),
		Active: new(big.Int).Set(value),
	}
}

// IsEmpty reports whether the ledger was never written.
func (l *Ledger) IsEmpty() bool {
	return l == nil || l.Total == nil
}

func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		Stash:     l.Stash,
		Total:     new(big.Int).Set(l.Total),
		Active:    new(big.Int).Set(l.Active),
		Unlocking: make([]*UnlockChunk, 0, len(l.Unlocking)),
	}
	for _, ch := range l.Unlocking {
		c.Unlocking = append(c.Unlocking, &UnlockChunk{Value: new(big.Int).Set(ch.Value), Era: ch.Era})
	}
	return c
}

// Unlocked sums the unlocking values.
func (l *Ledger) Unlocked() *big.Int {
	sum := new(big.Int)
	for _, ch := range l.Unlocking {
		sum.Add(sum, ch.Value)
	}
	return sum
}

// Check verifies the structural invariants.
func (l *Ledger) Check() error {
	if l.Active.Sign() < 0 {
		return errors.Errorf("ledger %v: negative active %v", l.Stash, l.Active)
	}
	if sum := new(big.Int).Add(l.Active, l.Unlocked()); sum.Cmp(l.Total) != 0 {
		return errors.Errorf("ledger %v: total %v != active+unlocking %v", l.Stash, l.Total, sum)
	}
	for i := 1; i < len(l.Unlocking); i++ {
		if l.Unlocking[i].Era <= l.Unlocking[i-1].Era {
			return errors.Errorf("ledger %v: unlocking eras not ascending", l.Stash)
		}
	}
	return nil
}

func (l *Ledger) BondExtra(value *big.Int) {
	l.Total.Add(l.Total, value)
	l.Active.Add(l.Active, value)
}

// Unbond moves value from active into a chunk payable at era, merging with an
// existing chunk of the same era. The caller clamps value to Active.
func (l *Ledger) Unbond(value *big.Int, era uint32, maxChunks uint32) error {
	if n := len(l.Unlocking); n > 0 && l.Unlocking[n-1].Era == era {
		l.Unlocking[n-1].Value.Add(l.Unlocking[n-1].Value, value)
	} else {
		if uint32(n) >= maxChunks {
			return ErrNoMoreChunks
		}
		l.Unlocking = append(l.Unlocking, &UnlockChunk{Value: new(big.Int).Set(value), Era: era})
	}
	l.Active.Sub(l.Active, value)
	return nil
}

// ConsolidateUnlocked drops every chunk payable at or before era and returns
// the amount removed from Total.
func (l *Ledger) ConsolidateUnlocked(era uint32) *big.Int {
	removed := new(big.Int)
	l.Unlocking = slices.DeleteFunc(l.Unlocking, func(ch *UnlockChunk) bool {
		if ch.Era <= era {
			removed.Add(removed, ch.Value)
			return true
		}
		return false
	})
	if len(l.Unlocking) == 0 {
		l.Unlocking = nil
	}
	l.Total.Sub(l.Total, removed)
	return removed
}

// Rebond moves up to value from the latest chunks back into active and returns
// the amount moved.
func (l *Ledger) Rebond(value *big.Int) *big.Int {
	left := new(big.Int).Set(value)
	for len(l.Unlocking) > 0 && left.Sign() > 0 {
		last := l.Unlocking[len(l.Unlocking)-1]
		if last.Value.Cmp(left) <= 0 {
			left.Sub(left, last.Value)
			l.Active.Add(l.Active, last.Value)
			l.Unlocking = l.Unlocking[:len(l.Unlocking)-1]
		} else {
			last.Value.Sub(last.Value, left)
			l.Active.Add(l.Active, left)
			left.SetUint64(0)
		}
	}
	if len(l.Unlocking) == 0 {
		l.Unlocking = nil
	}
	return new(big.Int).Sub(value, left)
}

// Slash removes up to amount, first from active and then from chunks not yet
// payable at era, latest first. It returns the amount actually removed.
func (l *Ledger) Slash(amount *big.Int, era uint32) *big.Int {
	left := new(big.Int).Set(amount)
	take := func(from *big.Int) {
		cut := new(big.Int).Set(left)
		if cut.Cmp(from) > 0 {
			cut.Set(from)
		}
		from.Sub(from, cut)
		left.Sub(left, cut)
	}

	take(l.Active)
	for i := len(l.Unlocking) - 1; i >= 0 && left.Sign() > 0; i-- {
		if l.Unlocking[i].Era > era {
			take(l.Unlocking[i].Value)
		}
	}
	l.Unlocking = slices.DeleteFunc(l.Unlocking, func(ch *UnlockChunk) bool { return ch.Value.Sign() == 0 })
	if len(l.Unlocking) == 0 {
		l.Unlocking = nil
	}

	slashed := new(big.Int).Sub(amount, left)
	l.Total.Sub(l.Total, slashed)
	return slashed
}
