// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package election drives the per era election cycle: the submission windows,
// the acceptance of candidate solutions and the final choice of an outcome.
package election

import (
	"github.com/pkg/errors"

	"github.com/vechain/npos/builtin/reverts"
	"github.com/vechain/npos/builtin/slots"
	"github.com/vechain/npos/events"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/metrics"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/thor"
)

var logger = log.WithContext("pkg", "election")

var (
	ErrPhaseClosed        = reverts.New("submissions are closed")
	ErrScoreTooLow        = reverts.New("score too low")
	ErrMalformed          = reverts.New("malformed solution")
	ErrQueueFull          = reverts.New("signed submission queue is full")
	ErrNotEmergency       = reverts.New("election is not in emergency")
	ErrEmergencyThrottled = reverts.New("emergency retry is throttled")
	ErrInvalidResult      = reverts.New("invalid emergency result")

	// ErrElectionFailed is returned by Elect when no producer yields an
	// acceptable outcome. The controller is left in Emergency.
	ErrElectionFailed = errors.New("election failed")
	// ErrInfeasible is what a producer returns when it has no outcome.
	ErrInfeasible = errors.New("no feasible outcome")
)

var (
	metricPhase            = metrics.LazyLoadGauge("election_phase")
	metricSubmissionsCount = metrics.LazyLoadCounterVec("election_submissions_count", []string{"result"})
	metricEmergencyCount   = metrics.LazyLoadCounter("election_emergency_count")
)

var (
	slotPhase           = slots.Pos("phase")
	slotRound           = slots.Pos("round")
	slotSnapshot        = slots.Pos("snapshot")
	slotQueued          = slots.Pos("queued-solution")
	slotSigned          = slots.Pos("signed-submissions")
	slotMinScore        = slots.Pos("minimum-untrusted-score")
	slotEmergencyResult = slots.Pos("emergency-result")
)

// Election owns the phase, the queued solution and everything needed to
// decide the next validator set.
type Election struct {
	cfg      thor.Config
	provider DataProvider
	solver   Solver
	emitter  events.Emitter

	phase           *slots.Value[*Phase]
	round           *slots.Value[uint32]
	snapshot        *slots.Value[*Snapshot]
	queued          *slots.Value[*Solution]
	signed          *slots.Value[[]*Solution] // best first
	minScore        *slots.Value[*Score]
	emergencyResult *slots.Value[[]*Support]
}

// New creates the controller. The solver backs the on-chain fallback and
// GovernanceFallback; it may be nil when neither is used.
func New(
	addr thor.Address,
	state *state.State,
	cfg thor.Config,
	provider DataProvider,
	solver Solver,
	emitter events.Emitter,
) *Election {
	sctx := slots.NewContext(addr, state)
	return &Election{
		cfg:      cfg,
		provider: provider,
		solver:   solver,
		emitter:  emitter,

		phase:           slots.NewValue[*Phase](sctx, slotPhase),
		round:           slots.NewValue[uint32](sctx, slotRound),
		snapshot:        slots.NewValue[*Snapshot](sctx, slotSnapshot),
		queued:          slots.NewValue[*Solution](sctx, slotQueued),
		signed:          slots.NewValue[[]*Solution](sctx, slotSigned),
		minScore:        slots.NewValue[*Score](sctx, slotMinScore),
		emergencyResult: slots.NewValue[[]*Support](sctx, slotEmergencyResult),
	}
}

//
// Getters - no state change
//

func (e *Election) Phase() (*Phase, error) {
	return e.phase.Get()
}

// Round is the number of the election in progress. It grows by one on every
// successful Elect.
func (e *Election) Round() (uint32, error) {
	return e.round.Get()
}

// QueuedSolution returns the solution Elect would commit, if any.
func (e *Election) QueuedSolution() (*Solution, bool, error) {
	return e.queued.Lookup()
}

func (e *Election) HasQueuedSolution() (bool, error) {
	_, found, err := e.queued.Lookup()
	return found, err
}

// SignedSubmissions lists the signed queue, best first.
func (e *Election) SignedSubmissions() ([]*Solution, error) {
	return e.signed.Get()
}

func (e *Election) MinimumUntrustedScore() (*Score, bool, error) {
	return e.minScore.Lookup()
}

func (e *Election) Snapshot() (*Snapshot, bool, error) {
	return e.snapshot.Lookup()
}

func (e *Election) EmergencyResult() ([]*Support, bool, error) {
	return e.emergencyResult.Lookup()
}

//
// Phase machine
//

// Advance moves the phase according to the blocks left until nextElection,
// the block at which Elect will be called.
func (e *Election) Advance(block, nextElection uint32) (*Phase, error) {
	current, err := e.phase.Get()
	if err != nil {
		return nil, err
	}
	if current.IsEmergency() {
		return current, nil
	}

	var remaining uint32
	if nextElection > block {
		remaining = nextElection - block
	}
	signedLen, unsignedLen := e.cfg.SignedPhase, e.cfg.UnsignedPhase
	next := &Phase{Kind: current.Kind}

	switch current.Kind {
	case PhaseOff:
		switch {
		case signedLen > 0 && remaining <= signedLen+unsignedLen && remaining > unsignedLen:
			if err := e.takeSnapshot(); err != nil {
				return nil, err
			}
			next = &Phase{Kind: PhaseSigned, Remaining: remaining - unsignedLen}
		case unsignedLen > 0 && remaining <= unsignedLen:
			if err := e.takeSnapshot(); err != nil {
				return nil, err
			}
			next = e.unsignedPhase(remaining)
		}
	case PhaseSigned:
		if remaining > unsignedLen {
			next.Remaining = remaining - unsignedLen
			break
		}
		if err := e.promoteSigned(); err != nil {
			return nil, err
		}
		next = e.unsignedPhase(remaining)
	case PhaseUnsigned:
		next = e.unsignedPhase(remaining)
	}

	if err := e.setPhase(current, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (e *Election) unsignedPhase(remaining uint32) *Phase {
	return &Phase{Kind: PhaseUnsigned, Remaining: remaining, SubmissionsOpen: e.cfg.IsUnsignedAccepted()}
}

func (e *Election) setPhase(from, to *Phase) error {
	if *from == *to {
		return nil
	}
	if from.Kind != to.Kind {
		round, err := e.round.Get()
		if err != nil {
			return err
		}
		logger.Info("election phase changed", "from", from.Kind, "to", to.Kind, "round", round)
		e.emitter.Emit(&PhaseTransitioned{From: from.Kind, To: to.Kind, Round: round})
		metricPhase().Set(int64(to.Kind))
	}
	return e.phase.Set(to)
}

func (e *Election) takeSnapshot() error {
	voters, err := e.provider.Voters()
	if err != nil {
		return err
	}
	targets, err := e.provider.Targets()
	if err != nil {
		return err
	}
	desired, err := e.provider.DesiredTargets()
	if err != nil {
		return err
	}
	logger.Debug("election snapshot taken", "voters", len(voters), "targets", len(targets), "desired", desired)
	return e.snapshot.Set(&Snapshot{Voters: voters, Targets: targets, DesiredTargets: desired})
}

// promoteSigned moves the best signed submission that clears the floor into
// the queue. The signed queue is emptied either way.
func (e *Election) promoteSigned() error {
	signed, err := e.signed.Get()
	if err != nil {
		return err
	}
	e.signed.Delete()
	for _, sol := range signed {
		if err := e.checkFloor(&sol.Score); err != nil {
			continue
		}
		logger.Debug("signed submission promoted", "round", sol.Round, "winners", len(sol.Winners))
		return e.queued.Set(sol)
	}
	return nil
}

// clearRound drops everything tied to the round in progress.
func (e *Election) clearRound() {
	e.queued.Delete()
	e.signed.Delete()
	e.snapshot.Delete()
	e.emergencyResult.Delete()
}
