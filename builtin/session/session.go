// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package session counts sessions and rotates the validator set at era
// boundaries using the election outcome.
package session

import (
	"math"

	"github.com/pkg/errors"

	"github.com/vechain/npos/builtin/election"
	"github.com/vechain/npos/builtin/slots"
	"github.com/vechain/npos/builtin/staking"
	"github.com/vechain/npos/events"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/thor"
)

var logger = log.WithContext("pkg", "session")

var (
	slotCurrentSession = slots.Pos("current-session")
	slotValidators     = slots.Pos("validators")
)

type Election interface {
	Elect() ([]*election.Support, error)
}

type Staking interface {
	CurrentEra() (uint32, error)
	ErasStartSessionIndex(era uint32) (uint32, bool, error)
	ForceEra() (staking.Forcing, error)
	StartEra(session uint32, exposures []*staking.Exposure) (uint32, error)
	ClearForcing() error
}

type Slashing interface {
	OnEraStart(activeSetSize uint32) error
}

// Clock ends a session every SessionLength blocks. Session k covers the
// blocks [k*SessionLength, (k+1)*SessionLength).
type Clock struct {
	cfg      thor.Config
	election Election
	staking  Staking
	slashing Slashing
	emitter  events.Emitter

	currentSession *slots.Value[uint32]
	validators     *slots.Value[[]thor.Address]
}

func New(
	addr thor.Address,
	state *state.State,
	cfg thor.Config,
	election Election,
	staking Staking,
	slashing Slashing,
	emitter events.Emitter,
) *Clock {
	sctx := slots.NewContext(addr, state)
	return &Clock{
		cfg:            cfg,
		election:       election,
		staking:        staking,
		slashing:       slashing,
		emitter:        emitter,
		currentSession: slots.NewValue[uint32](sctx, slotCurrentSession),
		validators:     slots.NewValue[[]thor.Address](sctx, slotValidators),
	}
}

func (c *Clock) CurrentSession() (uint32, error) {
	return c.currentSession.Get()
}

// ActiveValidators is the validator set of the current session.
func (c *Clock) ActiveValidators() ([]thor.Address, error) {
	return c.validators.Get()
}

// EraStartSession is the session the current era started at.
func (c *Clock) EraStartSession() (uint32, bool, error) {
	era, err := c.staking.CurrentEra()
	if err != nil {
		return 0, false, err
	}
	return c.staking.ErasStartSessionIndex(era)
}

// StartGenesisEra installs the initial validator set as era 0 at session 0.
func (c *Clock) StartGenesisEra(exposures []*staking.Exposure) error {
	return c.startEra(0, exposures)
}

// OnInitialize is called at the start of every block.
func (c *Clock) OnInitialize(block uint32) error {
	if block == 0 || block%c.cfg.SessionLength != 0 {
		return nil
	}
	session := block / c.cfg.SessionLength

	due, err := c.rotationDue(session)
	if err != nil {
		return err
	}
	if due {
		if err := c.rotate(session); err != nil {
			return err
		}
	}
	if err := c.currentSession.Set(session); err != nil {
		return err
	}
	c.emitter.Emit(&NewSession{Index: session})
	logger.Debug("new session", "session", session, "block", block)
	return nil
}

func (c *Clock) rotationDue(session uint32) (bool, error) {
	forcing, err := c.staking.ForceEra()
	if err != nil {
		return false, err
	}
	switch forcing {
	case staking.ForceNone:
		return false, nil
	case staking.ForceNew:
		return true, nil
	}
	start, started, err := c.EraStartSession()
	if err != nil {
		return false, err
	}
	return !started || session >= start+c.cfg.SessionsPerEra, nil
}

// rotate elects and starts a new era at session. A failed election keeps the
// current era and set; sessions keep going while the election is in emergency.
func (c *Clock) rotate(session uint32) error {
	winners, err := c.election.Elect()
	if err != nil {
		if errors.Is(err, election.ErrElectionFailed) {
			logger.Warn("era rotation skipped, election failed", "session", session)
			return nil
		}
		return err
	}
	exposures := make([]*staking.Exposure, 0, len(winners))
	for _, w := range winners {
		exposures = append(exposures, &staking.Exposure{Validator: w.Who, Total: w.Total})
	}
	if err := c.startEra(session, exposures); err != nil {
		return err
	}
	return c.staking.ClearForcing()
}

func (c *Clock) startEra(session uint32, exposures []*staking.Exposure) error {
	if _, err := c.staking.StartEra(session, exposures); err != nil {
		return err
	}
	validators := make([]thor.Address, 0, len(exposures))
	for _, e := range exposures {
		validators = append(validators, e.Validator)
	}
	if err := c.validators.Set(validators); err != nil {
		return err
	}
	return c.slashing.OnEraStart(uint32(len(exposures)))
}

// NextElectionPrediction returns the block at which the next rotation is
// expected, as seen from block. It is MaxUint32 while eras are not forced.
func (c *Clock) NextElectionPrediction(block uint32) (uint32, error) {
	forcing, err := c.staking.ForceEra()
	if err != nil {
		return 0, err
	}
	length := c.cfg.SessionLength
	nextSessionEnd := (block/length + 1) * length
	switch forcing {
	case staking.ForceNone:
		return math.MaxUint32, nil
	case staking.ForceNew:
		return nextSessionEnd, nil
	}
	start, started, err := c.EraStartSession()
	if err != nil {
		return 0, err
	}
	if !started {
		return nextSessionEnd, nil
	}
	if at := (start + c.cfg.SessionsPerEra) * length; at > block {
		return at, nil
	}
	// overdue, the rotation is retried every session end
	return nextSessionEnd, nil
}
