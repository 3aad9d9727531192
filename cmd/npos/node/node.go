// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vechain/npos/builtin/election"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/metrics"
	"github.com/vechain/npos/miner"
	"github.com/vechain/npos/runtime"
)

var logger = log.WithContext("pkg", "node")

var metricMinedCount = metrics.LazyLoadCounterVec("node_mined_solutions_count", []string{"result"})

type Options struct {
	BlockInterval time.Duration
	// Mine enables the off-chain miner, which submits a solution once per
	// round while a submission window is open.
	Mine bool
}

// Node produces blocks on a fixed interval and optionally mines election
// solutions.
type Node struct {
	rt      *runtime.Runtime
	options Options

	minedRound uint32
	mined      bool
}

func New(rt *runtime.Runtime, options Options) *Node {
	if options.BlockInterval <= 0 {
		options.BlockInterval = time.Second
	}
	return &Node{rt: rt, options: options}
}

// Run blocks until ctx is done or a loop fails.
func (n *Node) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.blockLoop(ctx) })
	if n.options.Mine {
		g.Go(func() error { return n.minerLoop(ctx) })
	}
	logger.Info("node started", "interval", n.options.BlockInterval, "mine", n.options.Mine)
	return g.Wait()
}

func (n *Node) blockLoop(ctx context.Context) error {
	ticker := time.NewTicker(n.options.BlockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping block loop")
			return nil
		case <-ticker.C:
			block, err := n.rt.ProcessBlock()
			if err != nil {
				return err
			}
			logger.Debug("block processed", "block", block)
		}
	}
}

func (n *Node) minerLoop(ctx context.Context) error {
	waiter := n.rt.NewBlockWaiter()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-waiter.C():
			if _, err := n.MineOnce(); err != nil {
				// a rejected solution is not fatal, the next window gets another try
				logger.Info("mine solution failed", "err", err)
			}
		}
	}
}

// MineOnce submits a solution for the current round if a submission window
// is open and nothing was submitted for the round yet. It reports whether a
// solution was accepted.
func (n *Node) MineOnce() (bool, error) {
	var (
		sol  *election.Solution
		open bool
	)
	err := n.rt.View(func(m *runtime.Modules) error {
		phase, err := m.Election.Phase()
		if err != nil {
			return err
		}
		open = phase.IsSigned() || (phase.IsUnsigned() && phase.SubmissionsOpen)
		if !open {
			return nil
		}
		round, err := m.Election.Round()
		if err != nil {
			return err
		}
		if n.mined && n.minedRound == round {
			open = false
			return nil
		}
		snapshot, found, err := m.Election.Snapshot()
		if err != nil || !found {
			open = false
			return err
		}
		sol, err = miner.Mine(snapshot, round)
		return err
	})
	if err != nil || !open {
		return false, err
	}

	n.mined, n.minedRound = true, sol.Round
	err = n.rt.Call("election.submit", func(m *runtime.Modules) error {
		return m.Election.Submit(sol)
	})
	if err != nil {
		metricMinedCount().AddWithLabel(1, map[string]string{"result": "rejected"})
		return false, err
	}
	metricMinedCount().AddWithLabel(1, map[string]string{"result": "accepted"})
	logger.Debug("solution submitted", "round", sol.Round, "winners", len(sol.Winners))
	return true, nil
}
