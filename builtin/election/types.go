// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"math/big"

	"github.com/vechain/npos/builtin/staking"
	"github.com/vechain/npos/thor"
)

type PhaseKind uint8

const (
	PhaseOff PhaseKind = iota
	PhaseSigned
	PhaseUnsigned
	PhaseEmergency
)

func (k PhaseKind) String() string {
	switch k {
	case PhaseSigned:
		return "Signed"
	case PhaseUnsigned:
		return "Unsigned"
	case PhaseEmergency:
		return "Emergency"
	default:
		return "Off"
	}
}

func (k PhaseKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Phase is the state of the election cycle. Remaining counts the blocks left
// in the current window, SubmissionsOpen only matters for Unsigned.
type Phase struct {
	Kind            PhaseKind `json:"kind"`
	Remaining       uint32    `json:"remaining"`
	SubmissionsOpen bool      `json:"submissionsOpen"`
}

func (p *Phase) IsOff() bool       { return p.Kind == PhaseOff }
func (p *Phase) IsSigned() bool    { return p.Kind == PhaseSigned }
func (p *Phase) IsUnsigned() bool  { return p.Kind == PhaseUnsigned }
func (p *Phase) IsEmergency() bool { return p.Kind == PhaseEmergency }

// Backing is the part of a voter's stake assigned to a winner.
type Backing struct {
	Who   thor.Address `json:"who"`
	Stake *big.Int     `json:"stake"`
}

// Support is an elected target with the stake backing it.
type Support struct {
	Who     thor.Address `json:"who"`
	Total   *big.Int     `json:"total"`
	Backers []*Backing   `json:"backers"`
}

// Solution is a candidate election outcome for a round.
type Solution struct {
	Round   uint32     `json:"round"`
	Score   Score      `json:"score"`
	Winners []*Support `json:"winners"`
}

// Snapshot freezes the election input when the submission windows open.
type Snapshot struct {
	Voters         []*staking.Voter `json:"voters"`
	Targets        []thor.Address   `json:"targets"`
	DesiredTargets uint32           `json:"desiredTargets"`
}

func (s *Snapshot) voter(who thor.Address) *staking.Voter {
	for _, v := range s.Voters {
		if v.Who == who {
			return v
		}
	}
	return nil
}

// Compute names the producer an outcome came from. The set is closed.
type Compute uint8

const (
	ComputeQueued Compute = iota
	ComputeFallback
	ComputeEmergency
)

func (c Compute) String() string {
	switch c {
	case ComputeFallback:
		return "fallback"
	case ComputeEmergency:
		return "emergency"
	default:
		return "queued"
	}
}

func (c Compute) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Solver computes a solution from a snapshot. It backs the on-chain fallback.
type Solver func(snapshot *Snapshot, round uint32) (*Solution, error)

// DataProvider supplies the election input.
type DataProvider interface {
	Voters() ([]*staking.Voter, error)
	Targets() ([]thor.Address, error)
	DesiredTargets() (uint32, error)
}
