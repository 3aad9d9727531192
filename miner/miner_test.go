// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package miner

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/builtin/election"
	"github.com/vechain/npos/builtin/staking"
	"github.com/vechain/npos/test/datagen"
	"github.com/vechain/npos/thor"
)

func TestMine(t *testing.T) {
	targets := datagen.RandAddresses(3)
	voters := datagen.RandAddresses(3)
	snapshot := &election.Snapshot{
		Targets:        targets,
		DesiredTargets: 2,
		Voters: []*staking.Voter{
			{Who: voters[0], Stake: big.NewInt(100), Targets: []thor.Address{targets[0]}},
			{Who: voters[1], Stake: big.NewInt(301), Targets: []thor.Address{targets[1], targets[2], targets[1]}},
			{Who: voters[2], Stake: big.NewInt(50), Targets: []thor.Address{targets[0], targets[2]}},
		},
	}

	sol, err := Mine(snapshot, 7)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), sol.Round)

	// approvals: t0 150, t1 301, t2 351
	require.Len(t, sol.Winners, 2)
	assert.Equal(t, targets[2], sol.Winners[0].Who)
	assert.Equal(t, targets[1], sol.Winners[1].Who)

	// voter 1 splits 301 over its two winners, the odd unit goes to the one it listed first
	assert.Equal(t, "150", sol.Winners[0].Backers[0].Stake.String())
	assert.Equal(t, "151", sol.Winners[1].Backers[0].Stake.String())
	assert.Equal(t, "200", sol.Winners[0].Total.String())
	assert.Equal(t, "151", sol.Winners[1].Total.String())
	assert.Equal(t, uint64(151), sol.Score.MinimalStake.Uint64())

	assert.NoError(t, election.CheckFeasibility(sol, snapshot, 7))
}

func TestMineInfeasible(t *testing.T) {
	snapshot := &election.Snapshot{Targets: datagen.RandAddresses(1), DesiredTargets: 2}
	_, err := Mine(snapshot, 0)
	assert.Error(t, err)

	snapshot.DesiredTargets = 0
	_, err = Mine(snapshot, 0)
	assert.Error(t, err)
}
