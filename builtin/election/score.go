// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Score ranks solutions: a higher minimal stake wins, then a higher sum, then
// a lower sum of squares.
type Score struct {
	MinimalStake    uint256.Int `json:"minimalStake"`
	SumStake        uint256.Int `json:"sumStake"`
	SumStakeSquared uint256.Int `json:"sumStakeSquared"`
}

// Better reports whether s is strictly better than o. Equal scores are not better.
func (s *Score) Better(o *Score) bool {
	if c := s.MinimalStake.Cmp(&o.MinimalStake); c != 0 {
		return c > 0
	}
	if c := s.SumStake.Cmp(&o.SumStake); c != 0 {
		return c > 0
	}
	return s.SumStakeSquared.Lt(&o.SumStakeSquared)
}

func (s *Score) Equal(o *Score) bool {
	return s.MinimalStake.Eq(&o.MinimalStake) &&
		s.SumStake.Eq(&o.SumStake) &&
		s.SumStakeSquared.Eq(&o.SumStakeSquared)
}

var (
	errScoreOverflow = errors.New("score overflows 256 bits")
	errNoTotal       = errors.New("winner without total")
)

// ComputeScore derives the score of a set of winners from their totals.
func ComputeScore(winners []*Support) (*Score, error) {
	var score Score
	for i, w := range winners {
		if w == nil || w.Total == nil {
			return nil, errNoTotal
		}
		total, overflow := uint256.FromBig(w.Total)
		if overflow || w.Total.Sign() < 0 {
			return nil, errScoreOverflow
		}
		if i == 0 || total.Lt(&score.MinimalStake) {
			score.MinimalStake.Set(total)
		}
		if _, overflow := score.SumStake.AddOverflow(&score.SumStake, total); overflow {
			return nil, errScoreOverflow
		}
		sq, overflow := new(uint256.Int).MulOverflow(total, total)
		if overflow {
			return nil, errScoreOverflow
		}
		if _, overflow := score.SumStakeSquared.AddOverflow(&score.SumStakeSquared, sq); overflow {
			return nil, errScoreOverflow
		}
	}
	return &score, nil
}

// NewScore builds a score from small numbers, mostly for tests and governance input.
func NewScore(minimal, sum, sumSquared *big.Int) (*Score, error) {
	var s Score
	for _, p := range []struct {
		dst *uint256.Int
		src *big.Int
	}{{&s.MinimalStake, minimal}, {&s.SumStake, sum}, {&s.SumStakeSquared, sumSquared}} {
		if p.dst.SetFromBig(p.src) {
			return nil, errScoreOverflow
		}
	}
	return &s, nil
}
