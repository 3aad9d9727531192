// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds block zero of a chain from a Config.
package genesis

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos/builtin/election"
	"github.com/vechain/npos/builtin/params"
	"github.com/vechain/npos/builtin/staking"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/miner"
	"github.com/vechain/npos/runtime"
	"github.com/vechain/npos/thor"
)

var logger = log.WithContext("pkg", "genesis")

// Build writes the genesis accounts, ledgers and pools and starts era zero
// with the set the miner elects among the genesis validators.
func Build(rt *runtime.Runtime, cfg *Config) error {
	return rt.Genesis(func(m *runtime.Modules) error {
		if err := setParams(m.Params, &cfg.Params); err != nil {
			return errors.Wrap(err, "params")
		}
		for _, acc := range cfg.Accounts {
			if err := m.Balances.Mint(acc.Address, acc.Balance.Big()); err != nil {
				return errors.Wrapf(err, "account %v", acc.Address)
			}
		}
		for _, v := range cfg.Validators {
			if err := m.Staking.Bond(v.Stash, v.Bond.Big()); err != nil {
				return errors.Wrapf(err, "validator %v bond", v.Stash)
			}
			if err := m.Staking.Validate(v.Stash, staking.ValidatorPrefs{Commission: v.Commission}); err != nil {
				return errors.Wrapf(err, "validator %v", v.Stash)
			}
		}
		for _, n := range cfg.Nominators {
			if err := m.Staking.Bond(n.Stash, n.Bond.Big()); err != nil {
				return errors.Wrapf(err, "nominator %v bond", n.Stash)
			}
			if err := m.Staking.Nominate(n.Stash, n.Targets); err != nil {
				return errors.Wrapf(err, "nominator %v", n.Stash)
			}
		}
		for _, p := range cfg.Pools {
			id, err := m.Pools.Create(p.Depositor, p.Amount.Big(), p.Depositor)
			if err != nil {
				return errors.Wrapf(err, "pool of %v", p.Depositor)
			}
			if len(p.Targets) > 0 {
				if err := m.Pools.Nominate(p.Depositor, id, p.Targets); err != nil {
					return errors.Wrapf(err, "pool %d nominate", id)
				}
			}
		}

		exposures, err := genesisSet(m.Staking)
		if err != nil {
			return errors.Wrap(err, "genesis set")
		}
		if err := m.Session.StartGenesisEra(exposures); err != nil {
			return err
		}

		if s := cfg.MinimumUntrustedScore; s != nil {
			score, err := election.NewScore(s.MinimalStake.Big(), s.SumStake.Big(), s.SumStakeSquared.Big())
			if err != nil {
				return errors.Wrap(err, "minimum untrusted score")
			}
			if err := m.Election.SetMinimumUntrustedScore(score); err != nil {
				return err
			}
		}
		logger.Info("genesis built",
			"accounts", len(cfg.Accounts),
			"validators", len(exposures),
			"nominators", len(cfg.Nominators),
			"pools", len(cfg.Pools))
		return nil
	})
}

func setParams(p *params.Params, cfg *Params) error {
	if cfg.ValidatorCount != nil {
		if err := p.Set(params.KeyValidatorCount, new(big.Int).SetUint64(*cfg.ValidatorCount)); err != nil {
			return err
		}
	}
	for _, kv := range []struct {
		key   thor.Bytes32
		value *HexOrDecimal256
	}{
		{params.KeyMinNominatorBond, cfg.MinNominatorBond},
		{params.KeyMinValidatorBond, cfg.MinValidatorBond},
		{params.KeyMinJoinBond, cfg.MinJoinBond},
		{params.KeyMinCreateBond, cfg.MinCreateBond},
	} {
		if kv.value == nil {
			continue
		}
		if err := p.Set(kv.key, kv.value.Big()); err != nil {
			return err
		}
	}
	return nil
}

func genesisSet(stk *staking.Staking) ([]*staking.Exposure, error) {
	voters, err := stk.Voters()
	if err != nil {
		return nil, err
	}
	targets, err := stk.Targets()
	if err != nil {
		return nil, err
	}
	desired, err := stk.DesiredTargets()
	if err != nil {
		return nil, err
	}
	if desired == 0 {
		return nil, nil
	}
	sol, err := miner.Mine(&election.Snapshot{Voters: voters, Targets: targets, DesiredTargets: desired}, 0)
	if err != nil {
		return nil, err
	}
	exposures := make([]*staking.Exposure, 0, len(sol.Winners))
	for _, w := range sol.Winners {
		exposures = append(exposures, &staking.Exposure{Validator: w.Who, Total: w.Total})
	}
	return exposures, nil
}
