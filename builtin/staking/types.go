// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/npos/thor"
)

type RoleKind uint8

const (
	RoleIdle RoleKind = iota // chilled
	RoleValidator
	RoleNominator
)

func (k RoleKind) String() string {
	switch k {
	case RoleValidator:
		return "validator"
	case RoleNominator:
		return "nominator"
	default:
		return "idle"
	}
}

func (k RoleKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type ValidatorPrefs struct {
	Commission thor.Perbill `json:"commission"`
	Blocked    bool         `json:"blocked"`
}

type Nominations struct {
	Targets     []thor.Address `json:"targets"`
	SubmittedIn uint32         `json:"submittedIn"`
}

// Role is what a stash currently does with its active stake.
type Role struct {
	Kind        RoleKind       `json:"kind"`
	Prefs       ValidatorPrefs `json:"prefs"`
	Nominations Nominations    `json:"nominations"`
}

// IsActive reports whether the stash validates or nominates.
func (r *Role) IsActive() bool {
	return r.Kind != RoleIdle
}

// Forcing tells the session clock whether to rotate eras early or never.
type Forcing uint8

const (
	NotForcing Forcing = iota
	ForceNew
	ForceNone
)

func (f Forcing) String() string {
	switch f {
	case ForceNew:
		return "ForceNew"
	case ForceNone:
		return "ForceNone"
	default:
		return "NotForcing"
	}
}

func (f Forcing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Exposure is an elected validator with the stake backing it for the era.
type Exposure struct {
	Validator thor.Address `json:"validator"`
	Total     *big.Int     `json:"total"`
}

// Voter is a stash taking part in an election with its active stake.
// Validators vote for themselves.
type Voter struct {
	Who     thor.Address   `json:"who"`
	Stake   *big.Int       `json:"stake"`
	Targets []thor.Address `json:"targets"`
}
