// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/binary"

	"github.com/vechain/npos/thor"
)

const (
	devBalance       = 1_000_000
	devValidatorBond = 10_000
	devNominatorBond = 5_000
	devPoolDeposit   = 2_000
)

// DevAccount returns the i-th well known development account.
func DevAccount(i int) thor.Address {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(i))
	return thor.BytesToAddress(thor.Blake2b([]byte("npos/dev"), b[:]).Bytes())
}

// DevConfig returns a development network: the first validators accounts
// validate, the next nominators accounts nominate all of them and one more
// account runs a pool.
func DevConfig(validators, nominators int) *Config {
	chain := thor.DefaultConfig()
	chain.Fallback = thor.FallbackOnChain
	count := uint64(validators)

	cfg := &Config{
		Chain: &chain,
		Params: Params{
			ValidatorCount:   &count,
			MinNominatorBond: NewHexOrDecimal256(1_000),
			MinValidatorBond: NewHexOrDecimal256(5_000),
			MinJoinBond:      NewHexOrDecimal256(100),
			MinCreateBond:    NewHexOrDecimal256(1_000),
		},
	}

	total := validators + nominators + 1
	for i := range total {
		cfg.Accounts = append(cfg.Accounts, Account{
			Address: DevAccount(i),
			Balance: NewHexOrDecimal256(devBalance),
		})
	}

	targets := make([]thor.Address, 0, validators)
	for i := range validators {
		targets = append(targets, DevAccount(i))
		cfg.Validators = append(cfg.Validators, Validator{
			Stash:      DevAccount(i),
			Bond:       NewHexOrDecimal256(devValidatorBond),
			Commission: thor.PerbillFromPercent(5),
		})
	}
	if len(targets) > int(chain.MaxNominations) {
		targets = targets[:chain.MaxNominations]
	}
	for i := range nominators {
		cfg.Nominators = append(cfg.Nominators, Nominator{
			Stash:   DevAccount(validators + i),
			Bond:    NewHexOrDecimal256(devNominatorBond),
			Targets: targets,
		})
	}
	cfg.Pools = append(cfg.Pools, Pool{
		Depositor: DevAccount(total - 1),
		Amount:    NewHexOrDecimal256(devPoolDeposit),
		Targets:   targets,
	})
	return cfg
}
