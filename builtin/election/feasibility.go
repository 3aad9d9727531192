// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"math/big"
	"slices"

	"github.com/vechain/npos/builtin/reverts"
	"github.com/vechain/npos/thor"
)

// CheckFeasibility verifies a solution against the snapshot it claims to be
// computed from. The claimed score must equal the score recomputed from the
// supports.
func CheckFeasibility(sol *Solution, snapshot *Snapshot, round uint32) error {
	if sol.Round != round {
		return reverts.Wrap(ErrMalformed, "round %d, want %d", sol.Round, round)
	}
	if snapshot.DesiredTargets == 0 || uint32(len(sol.Winners)) != snapshot.DesiredTargets {
		return reverts.Wrap(ErrMalformed, "%d winners, want %d", len(sol.Winners), snapshot.DesiredTargets)
	}

	spent := make(map[thor.Address]*big.Int)
	seen := make(map[thor.Address]bool, len(sol.Winners))
	for i, w := range sol.Winners {
		if w == nil {
			return reverts.Wrap(ErrMalformed, "winner %d is empty", i)
		}
		if seen[w.Who] {
			return reverts.Wrap(ErrMalformed, "duplicate winner %v", w.Who)
		}
		seen[w.Who] = true
		if !slices.Contains(snapshot.Targets, w.Who) {
			return reverts.Wrap(ErrMalformed, "winner %v is not a target", w.Who)
		}
		if w.Total == nil {
			return reverts.Wrap(ErrMalformed, "winner %v has no total", w.Who)
		}

		sum := new(big.Int)
		for _, b := range w.Backers {
			if b == nil {
				return reverts.Wrap(ErrMalformed, "empty backer of %v", w.Who)
			}
			if b.Stake == nil || b.Stake.Sign() <= 0 {
				return reverts.Wrap(ErrMalformed, "backer %v of %v has no stake", b.Who, w.Who)
			}
			voter := snapshot.voter(b.Who)
			if voter == nil {
				return reverts.Wrap(ErrMalformed, "backer %v is not a voter", b.Who)
			}
			if !slices.Contains(voter.Targets, w.Who) {
				return reverts.Wrap(ErrMalformed, "backer %v does not vote for %v", b.Who, w.Who)
			}
			used, ok := spent[b.Who]
			if !ok {
				used = new(big.Int)
				spent[b.Who] = used
			}
			if used.Add(used, b.Stake).Cmp(voter.Stake) > 0 {
				return reverts.Wrap(ErrMalformed, "backer %v exceeds its stake", b.Who)
			}
			sum.Add(sum, b.Stake)
		}
		if sum.Cmp(w.Total) != 0 {
			return reverts.Wrap(ErrMalformed, "support of %v does not add up", w.Who)
		}
	}

	score, err := ComputeScore(sol.Winners)
	if err != nil {
		return reverts.Wrap(ErrMalformed, "%v", err)
	}
	if !score.Equal(&sol.Score) {
		return reverts.Wrap(ErrMalformed, "claimed score does not match")
	}
	return nil
}

// checkFloor rejects a score below the minimum untrusted score. Equal passes.
func (e *Election) checkFloor(score *Score) error {
	floor, found, err := e.minScore.Lookup()
	if err != nil {
		return err
	}
	if found && floor.Better(score) {
		return reverts.Wrap(ErrScoreTooLow, "below the minimum untrusted score")
	}
	return nil
}
