// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events carries the typed notifications emitted by built-in modules on
// successful operations.
package events

import "github.com/vechain/npos/thor"

// Event is implemented by every module event. Implementations must be JSON
// serializable.
type Event interface {
	Module() string
	Name() string
}

// Accounted is implemented by events that concern a single account, which makes
// them filterable by account.
type Accounted interface {
	Account() thor.Address
}

// AccountOf returns the account of ev, or the zero address.
func AccountOf(ev Event) thor.Address {
	if a, ok := ev.(Accounted); ok {
		return a.Account()
	}
	return thor.Address{}
}

type Emitter interface {
	Emit(Event)
}

// Discard drops everything.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}
