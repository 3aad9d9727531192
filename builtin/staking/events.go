// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/npos/thor"
)

const module = "staking"

type Bonded struct {
	Stash  thor.Address `json:"stash"`
	Amount *big.Int     `json:"amount"`
}

type Unbonded struct {
	Stash  thor.Address `json:"stash"`
	Amount *big.Int     `json:"amount"`
}

// Withdrawn is emitted whenever matured chunks leave a ledger, whichever call triggered it.
type Withdrawn struct {
	Stash  thor.Address `json:"stash"`
	Amount *big.Int     `json:"amount"`
}

type Chilled struct {
	Stash thor.Address `json:"stash"`
}

// Killed is emitted when a ledger is deleted. Dust is what was left on it.
type Killed struct {
	Stash thor.Address `json:"stash"`
	Dust  *big.Int     `json:"dust"`
}

type Slashed struct {
	Stash  thor.Address `json:"stash"`
	Amount *big.Int     `json:"amount"`
}

type ValidatorPrefsSet struct {
	Stash thor.Address   `json:"stash"`
	Prefs ValidatorPrefs `json:"prefs"`
}

type Nominated struct {
	Stash   thor.Address   `json:"stash"`
	Targets []thor.Address `json:"targets"`
}

type EraStarted struct {
	Era          uint32 `json:"era"`
	StartSession uint32 `json:"startSession"`
	Validators   uint32 `json:"validators"`
}

type ForceEraChanged struct {
	Mode Forcing `json:"mode"`
}

func (*Bonded) Module() string                     { return module }
func (*Bonded) Name() string                       { return "Bonded" }
func (e *Bonded) Account() thor.Address            { return e.Stash }
func (*Unbonded) Module() string                   { return module }
func (*Unbonded) Name() string                     { return "Unbonded" }
func (e *Unbonded) Account() thor.Address          { return e.Stash }
func (*Withdrawn) Module() string                  { return module }
func (*Withdrawn) Name() string                    { return "Withdrawn" }
func (e *Withdrawn) Account() thor.Address         { return e.Stash }
func (*Chilled) Module() string                    { return module }
func (*Chilled) Name() string                      { return "Chilled" }
func (e *Chilled) Account() thor.Address           { return e.Stash }
func (*Killed) Module() string                     { return module }
func (*Killed) Name() string                       { return "Killed" }
func (e *Killed) Account() thor.Address            { return e.Stash }
func (*Slashed) Module() string                    { return module }
func (*Slashed) Name() string                      { return "Slashed" }
func (e *Slashed) Account() thor.Address           { return e.Stash }
func (*ValidatorPrefsSet) Module() string          { return module }
func (*ValidatorPrefsSet) Name() string            { return "ValidatorPrefsSet" }
func (e *ValidatorPrefsSet) Account() thor.Address { return e.Stash }
func (*Nominated) Module() string                  { return module }
func (*Nominated) Name() string                    { return "Nominated" }
func (e *Nominated) Account() thor.Address         { return e.Stash }
func (*EraStarted) Module() string                 { return module }
func (*EraStarted) Name() string                   { return "EraStarted" }
func (*ForceEraChanged) Module() string            { return module }
func (*ForceEraChanged) Name() string              { return "ForceEraChanged" }
