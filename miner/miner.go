// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package miner computes election solutions from a snapshot. It is a plain
// approval stake heuristic: good enough to keep the chain electing, not an
// optimizer.
package miner

import (
	"bytes"
	"math/big"
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/npos/builtin/election"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/thor"
)

var logger = log.WithContext("pkg", "miner")

// Mine picks the DesiredTargets targets with the most approval stake and
// spreads every voter's stake evenly over the winners it voted for.
func Mine(snapshot *election.Snapshot, round uint32) (*election.Solution, error) {
	desired := int(snapshot.DesiredTargets)
	if desired == 0 {
		return nil, errors.New("no targets desired")
	}
	if len(snapshot.Targets) < desired {
		return nil, errors.Errorf("%d targets, %d desired", len(snapshot.Targets), desired)
	}

	approval := make(map[thor.Address]*big.Int, len(snapshot.Targets))
	for _, t := range snapshot.Targets {
		approval[t] = new(big.Int)
	}
	for _, v := range snapshot.Voters {
		for _, t := range dedup(v.Targets) {
			if a, ok := approval[t]; ok {
				a.Add(a, v.Stake)
			}
		}
	}

	ranked := slices.Clone(snapshot.Targets)
	slices.SortStableFunc(ranked, func(a, b thor.Address) int {
		if c := approval[b].Cmp(approval[a]); c != 0 {
			return c
		}
		return bytes.Compare(a[:], b[:])
	})
	ranked = ranked[:desired]

	supports := make(map[thor.Address]*election.Support, desired)
	winners := make([]*election.Support, 0, desired)
	for _, w := range ranked {
		s := &election.Support{Who: w, Total: new(big.Int)}
		supports[w] = s
		winners = append(winners, s)
	}

	for _, v := range snapshot.Voters {
		var elected []thor.Address
		for _, t := range dedup(v.Targets) {
			if _, ok := supports[t]; ok {
				elected = append(elected, t)
			}
		}
		if len(elected) == 0 || v.Stake.Sign() <= 0 {
			continue
		}
		share, rem := new(big.Int).QuoRem(v.Stake, big.NewInt(int64(len(elected))), new(big.Int))
		for i, t := range elected {
			stake := new(big.Int).Set(share)
			if i == 0 {
				stake.Add(stake, rem)
			}
			if stake.Sign() == 0 {
				continue
			}
			s := supports[t]
			s.Backers = append(s.Backers, &election.Backing{Who: v.Who, Stake: stake})
			s.Total.Add(s.Total, stake)
		}
	}

	score, err := election.ComputeScore(winners)
	if err != nil {
		return nil, err
	}
	logger.Debug("solution mined", "round", round, "winners", len(winners), "minimalStake", &score.MinimalStake)
	return &election.Solution{Round: round, Score: *score, Winners: winners}, nil
}

func dedup(targets []thor.Address) []thor.Address {
	out := make([]thor.Address, 0, len(targets))
	for _, t := range targets {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
