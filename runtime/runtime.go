// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime owns the chain state and the built-in modules, and drives
// them block by block. Every external call is atomic: a failed call leaves
// neither state changes nor events behind.
package runtime

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/npos/builtin"
	"github.com/vechain/npos/builtin/balances"
	"github.com/vechain/npos/builtin/election"
	"github.com/vechain/npos/builtin/params"
	"github.com/vechain/npos/builtin/pools"
	"github.com/vechain/npos/builtin/reverts"
	"github.com/vechain/npos/builtin/session"
	"github.com/vechain/npos/builtin/slashing"
	"github.com/vechain/npos/builtin/slots"
	"github.com/vechain/npos/builtin/staking"
	"github.com/vechain/npos/co"
	"github.com/vechain/npos/events"
	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/logdb"
	"github.com/vechain/npos/metrics"
	"github.com/vechain/npos/miner"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/thor"
)

var logger = log.WithContext("pkg", "runtime")

var (
	ErrGenesisDone    = errors.New("genesis already built")
	ErrGenesisMissing = errors.New("genesis not built")
)

var (
	metricBlockDuration = metrics.LazyLoadHistogram("runtime_block_duration_ms", metrics.BucketHTTPReqs)
	metricCallCount     = metrics.LazyLoadCounterVec("runtime_call_count", []string{"call", "result"})
	metricHead          = metrics.LazyLoadGauge("runtime_head_block")
)

var slotHead = slots.Pos("head")

// Modules groups the built-in modules bound to the runtime state.
type Modules struct {
	Params   *params.Params
	Balances *balances.Balances
	Staking  *staking.Staking
	Slashing *slashing.Slashing
	Election *election.Election
	Session  *session.Clock
	Pools    *pools.Pools
}

// Runtime serializes every access to the state. Calls made between two blocks
// are sealed into the next processed block.
type Runtime struct {
	mu sync.Mutex

	cfg    thor.Config
	state  *state.State
	buffer *events.Buffer
	logDB  *logdb.LogDB
	writer *logdb.Writer
	head   *slots.Value[uint32]
	mods   *Modules

	blockSignal co.Signal
}

// New binds the modules to a state over store. logDB may be nil, events are
// then dropped once the block is sealed.
func New(store kv.Store, logDB *logdb.LogDB, cfg thor.Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	st := state.New(store)
	buf := &events.Buffer{}

	prms := builtin.Params.WithState(st)
	bals := balances.New(builtin.Balances.Address, st, cfg.ED(), buf)
	stk := staking.New(builtin.Staking.Address, st, cfg, prms, bals, buf)
	slh := slashing.New(builtin.Slashing.Address, st, cfg, stk, buf)
	elc := election.New(builtin.Election.Address, st, cfg, stk, miner.Mine, buf)
	clk := session.New(builtin.Session.Address, st, cfg, elc, stk, slh, buf)
	pls := pools.New(builtin.Pools.Address, st, cfg, prms, stk, bals, buf)

	rt := &Runtime{
		cfg:    cfg,
		state:  st,
		buffer: buf,
		logDB:  logDB,
		head:   slots.NewValue[uint32](slots.NewContext(builtin.Runtime.Address, st), slotHead),
		mods: &Modules{
			Params:   prms,
			Balances: bals,
			Staking:  stk,
			Slashing: slh,
			Election: elc,
			Session:  clk,
			Pools:    pls,
		},
	}
	if logDB != nil {
		rt.writer = logDB.NewWriter()
	}
	return rt, nil
}

func (rt *Runtime) Config() thor.Config { return rt.cfg }

func (rt *Runtime) LogDB() *logdb.LogDB { return rt.logDB }

// NewBlockWaiter fires after every sealed block.
func (rt *Runtime) NewBlockWaiter() co.Waiter {
	return rt.blockSignal.NewWaiter()
}

// Head returns the number of the last sealed block.
func (rt *Runtime) Head() (uint32, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	head, found, err := rt.head.Lookup()
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrGenesisMissing
	}
	return head, nil
}

// View runs fn against the modules without any write intent.
func (rt *Runtime) View(fn func(m *Modules) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return fn(rt.mods)
}

// Call runs an external operation atomically. On error every state write and
// event of fn is discarded.
func (rt *Runtime) Call(name string, fn func(m *Modules) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, found, err := rt.head.Lookup(); err != nil {
		return err
	} else if !found {
		return ErrGenesisMissing
	}
	return rt.callLocked(name, fn)
}

func (rt *Runtime) callLocked(name string, fn func(m *Modules) error) error {
	revision := rt.state.NewCheckpoint()
	evCheckpoint := rt.buffer.Checkpoint()

	if err := fn(rt.mods); err != nil {
		rt.state.RevertTo(revision)
		rt.buffer.RevertTo(evCheckpoint)
		result := "error"
		if reverts.IsRevertErr(err) {
			result = "reverted"
		}
		metricCallCount().AddWithLabel(1, map[string]string{"call": name, "result": result})
		logger.Debug("call failed", "call", name, "error", err)
		return err
	}
	metricCallCount().AddWithLabel(1, map[string]string{"call": name, "result": "ok"})
	return nil
}

// Genesis builds block zero with fn and seals it.
func (rt *Runtime) Genesis(fn func(m *Modules) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, found, err := rt.head.Lookup(); err != nil {
		return err
	} else if found {
		return ErrGenesisDone
	}
	if err := rt.callLocked("genesis", fn); err != nil {
		return errors.Wrap(err, "build genesis")
	}
	if err := rt.sealLocked(0); err != nil {
		return err
	}
	logger.Info("genesis sealed")
	return nil
}

// ProcessBlock opens the block after head: it runs the session clock and the
// election phase controller, then seals the block with the calls made since
// the previous one.
func (rt *Runtime) ProcessBlock() (uint32, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	start := time.Now()
	head, found, err := rt.head.Lookup()
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrGenesisMissing
	}
	block := head + 1

	err = rt.callLocked("initialize", func(m *Modules) error {
		if err := m.Session.OnInitialize(block); err != nil {
			return errors.Wrap(err, "session")
		}
		next, err := m.Session.NextElectionPrediction(block)
		if err != nil {
			return errors.Wrap(err, "election prediction")
		}
		if _, err := m.Election.Advance(block, next); err != nil {
			return errors.Wrap(err, "election phase")
		}
		return nil
	})
	if err != nil {
		logger.Info("process block failed", "block", block, "error", err)
		return 0, err
	}
	if err := rt.sealLocked(block); err != nil {
		return 0, err
	}
	metricBlockDuration().Observe(time.Since(start).Milliseconds())
	return block, nil
}

// sealLocked commits the state and flushes the buffered events as block events.
func (rt *Runtime) sealLocked(block uint32) error {
	if err := rt.head.Set(block); err != nil {
		return err
	}
	evs := rt.buffer.Drain()
	written, err := rt.state.Commit()
	if err != nil {
		return errors.Wrap(err, "commit state")
	}
	if rt.writer != nil {
		if err := rt.writer.Write(block, evs); err != nil {
			return errors.Wrap(err, "write events")
		}
		if err := rt.writer.Commit(); err != nil {
			return errors.Wrap(err, "commit events")
		}
	}
	metricHead().Set(int64(block))
	logger.Debug("block sealed", "block", block, "keys", written, "events", len(evs))
	rt.blockSignal.Broadcast()
	return nil
}
