// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"slices"

	"github.com/vechain/npos/builtin/params"
	"github.com/vechain/npos/thor"
)

// Targets lists the validator candidates an election may pick from.
func (s *Staking) Targets() ([]thor.Address, error) {
	return s.validators.All()
}

// Voters lists every nominator with its active stake and the targets that are
// still candidates, followed by the validators voting for themselves.
// Voters left without any target are omitted.
func (s *Staking) Voters() ([]*Voter, error) {
	candidates, err := s.validators.All()
	if err != nil {
		return nil, err
	}
	nominators, err := s.nominators.All()
	if err != nil {
		return nil, err
	}

	voters := make([]*Voter, 0, len(nominators)+len(candidates))
	for _, who := range nominators {
		l, err := s.Ledger(who)
		if err != nil {
			return nil, err
		}
		role, err := s.Role(who)
		if err != nil {
			return nil, err
		}
		var targets []thor.Address
		for _, t := range role.Nominations.Targets {
			if slices.Contains(candidates, t) {
				targets = append(targets, t)
			}
		}
		if len(targets) == 0 {
			continue
		}
		voters = append(voters, &Voter{Who: who, Stake: l.Active, Targets: targets})
	}
	for _, who := range candidates {
		l, err := s.Ledger(who)
		if err != nil {
			return nil, err
		}
		voters = append(voters, &Voter{Who: who, Stake: l.Active, Targets: []thor.Address{who}})
	}
	return voters, nil
}

// DesiredTargets is the configured validator count, capped by the number of candidates.
func (s *Staking) DesiredTargets() (uint32, error) {
	n, err := s.params.GetUint64(params.KeyValidatorCount)
	if err != nil {
		return 0, err
	}
	count, err := s.validators.Len()
	if err != nil {
		return 0, err
	}
	if n == 0 || n > count {
		n = count
	}
	return uint32(n), nil
}
