// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/builtin/pools"
	"github.com/vechain/npos/genesis"
	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/logdb"
	"github.com/vechain/npos/runtime"
	"github.com/vechain/npos/thor"
)

const genesisYAML = `
chain:
  sessionLength: 5
  sessionsPerEra: 2
  signedPhase: 2
  unsignedPhase: 3
  fallback: onchain
params:
  validatorCount: 2
  minValidatorBond: 500
  minNominatorBond: 100
accounts:
  - address: "0x000000000000000000000000000000000000a001"
    balance: 10000
  - address: "0x000000000000000000000000000000000000a002"
    balance: "0x2710"
  - address: "0x000000000000000000000000000000000000a003"
    balance: 10000
validators:
  - stash: "0x000000000000000000000000000000000000a001"
    bond: 1000
    commission: 50000000
  - stash: "0x000000000000000000000000000000000000a002"
    bond: 800
nominators:
  - stash: "0x000000000000000000000000000000000000a003"
    bond: 300
    targets:
      - "0x000000000000000000000000000000000000a002"
minimumUntrustedScore:
  minimalStake: 100
  sumStake: 0
  sumStakeSquared: 0
`

func addr(s string) thor.Address {
	a, err := thor.ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return *a
}

func TestLoadAndBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(genesisYAML), 0o600))

	cfg, err := genesis.Load(path)
	require.NoError(t, err)
	chain := cfg.ChainConfig()
	assert.Equal(t, uint32(5), chain.SessionLength)
	assert.Equal(t, thor.FallbackOnChain, chain.Fallback)
	assert.Equal(t, uint32(3), chain.BondingDuration, "defaults fill the rest")
	assert.Equal(t, big.NewInt(10000), cfg.Accounts[1].Balance.Big())
	assert.Equal(t, thor.Perbill(50000000), cfg.Validators[0].Commission)

	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	rt, err := runtime.New(kv.NewMem(), db, chain)
	require.NoError(t, err)
	require.NoError(t, genesis.Build(rt, cfg))
	assert.ErrorIs(t, genesis.Build(rt, cfg), runtime.ErrGenesisDone)

	head, err := rt.Head()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), head)

	a1 := addr("0x000000000000000000000000000000000000a001")
	a2 := addr("0x000000000000000000000000000000000000a002")
	require.NoError(t, rt.View(func(m *runtime.Modules) error {
		active, err := m.Session.ActiveValidators()
		require.NoError(t, err)
		assert.ElementsMatch(t, []thor.Address{a1, a2}, active)

		set, err := m.Staking.ActiveSet()
		require.NoError(t, err)
		totals := map[thor.Address]*big.Int{}
		for _, e := range set {
			totals[e.Validator] = e.Total
		}
		assert.Equal(t, big.NewInt(1000), totals[a1])
		assert.Equal(t, big.NewInt(1100), totals[a2])

		score, found, err := m.Election.MinimumUntrustedScore()
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint64(100), score.MinimalStake.Uint64())
		return nil
	}))

	evs, err := db.FilterEvents(context.Background(), &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{{Module: "staking", Name: "Bonded"}},
	})
	require.NoError(t, err)
	assert.Len(t, evs, 3)
	for _, ev := range evs {
		assert.Equal(t, uint32(0), ev.BlockNumber)
	}
}

func TestDevConfig(t *testing.T) {
	cfg := genesis.DevConfig(4, 3)
	rt, err := runtime.New(kv.NewMem(), nil, cfg.ChainConfig())
	require.NoError(t, err)
	require.NoError(t, genesis.Build(rt, cfg))

	require.NoError(t, rt.View(func(m *runtime.Modules) error {
		active, err := m.Session.ActiveValidators()
		require.NoError(t, err)
		assert.Len(t, active, 4)

		tvl, err := m.Pools.TotalValueLocked()
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(2000), tvl)

		bonded, err := m.Pools.BondedBalance(1)
		require.NoError(t, err)
		assert.Equal(t, tvl, bonded)

		l, err := m.Staking.Ledger(pools.BondedAccount(1))
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(2000), l.Total)
		return nil
	}))

	assert.NotEqual(t, genesis.DevAccount(0), genesis.DevAccount(1))
}
