// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/cmd/npos/node"
	"github.com/vechain/npos/genesis"
	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/runtime"
	"github.com/vechain/npos/test"
)

func newRuntime(t *testing.T) *runtime.Runtime {
	cfg := genesis.DevConfig(3, 1)
	cfg.Chain.SessionLength = 5
	cfg.Chain.SessionsPerEra = 2
	cfg.Chain.SignedPhase = 0
	cfg.Chain.UnsignedPhase = 3
	rt, err := runtime.New(kv.NewMem(), nil, cfg.ChainConfig())
	require.NoError(t, err)
	require.NoError(t, genesis.Build(rt, cfg))
	return rt
}

func processTo(t *testing.T, rt *runtime.Runtime, block uint32) {
	for {
		head, err := rt.Head()
		require.NoError(t, err)
		if head >= block {
			return
		}
		_, err = rt.ProcessBlock()
		require.NoError(t, err)
	}
}

func TestMineOnce(t *testing.T) {
	rt := newRuntime(t)
	n := node.New(rt, node.Options{Mine: true})

	// submissions are closed before the unsigned window
	ok, err := n.MineOnce()
	require.NoError(t, err)
	assert.False(t, ok)

	processTo(t, rt, 7)
	ok, err = n.MineOnce()
	require.NoError(t, err)
	assert.True(t, ok)

	// once per round
	ok, err = n.MineOnce()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rt.View(func(m *runtime.Modules) error {
		has, err := m.Election.HasQueuedSolution()
		require.NoError(t, err)
		assert.True(t, has)
		return nil
	}))
}

func TestRunProducesBlocks(t *testing.T) {
	rt := newRuntime(t)
	n := node.New(rt, node.Options{BlockInterval: 5 * time.Millisecond, Mine: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	require.NoError(t, test.Retry(func() error {
		head, err := rt.Head()
		if err != nil {
			return err
		}
		if head < 12 {
			return errors.Errorf("head %d", head)
		}
		return nil
	}, 5*time.Millisecond, 10*time.Second))
	cancel()
	require.NoError(t, <-done)

	require.NoError(t, rt.View(func(m *runtime.Modules) error {
		era, err := m.Staking.CurrentEra()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, era, uint32(1))
		return nil
	}))
}
