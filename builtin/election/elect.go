// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/npos/builtin/reverts"
	"github.com/vechain/npos/thor"
)

var producers = []Compute{ComputeQueued, ComputeFallback, ComputeEmergency}

// Elect decides the outcome of the round. Producers are tried in a fixed
// order; the first acceptable outcome ends the round and turns the phase Off.
// When none is acceptable the controller enters Emergency and
// ErrElectionFailed is returned, nothing else is changed.
func (e *Election) Elect() ([]*Support, error) {
	current, err := e.phase.Get()
	if err != nil {
		return nil, err
	}
	round, err := e.round.Get()
	if err != nil {
		return nil, err
	}
	logger.Debug("electing", "round", round, "phase", current.Kind)

	if current.IsSigned() {
		if err := e.promoteSigned(); err != nil {
			return nil, err
		}
	}

	for _, c := range producers {
		winners, err := e.produce(c, current, round)
		if err != nil {
			if errors.Is(err, ErrInfeasible) || reverts.IsRevertErr(err) {
				logger.Debug("producer yields nothing", "compute", c, "error", err)
				continue
			}
			return nil, err
		}

		e.clearRound()
		if err := e.round.Set(round + 1); err != nil {
			return nil, err
		}
		if err := e.setPhase(current, &Phase{Kind: PhaseOff}); err != nil {
			return nil, err
		}
		logger.Info("election finalized", "round", round, "compute", c, "winners", len(winners))
		e.emitter.Emit(&ElectionFinalized{Round: round, Compute: c, Winners: len(winners)})
		return winners, nil
	}

	// no queued solution survives in Emergency
	e.queued.Delete()
	e.signed.Delete()
	if err := e.setPhase(current, &Phase{Kind: PhaseEmergency}); err != nil {
		return nil, err
	}
	if !current.IsEmergency() {
		metricEmergencyCount().Add(1)
		e.emitter.Emit(&ElectionFailed{Round: round})
	}
	logger.Warn("election failed, entering emergency", "round", round)
	return nil, ErrElectionFailed
}

// produce runs one producer of the closed set.
func (e *Election) produce(c Compute, current *Phase, round uint32) ([]*Support, error) {
	switch c {
	case ComputeQueued:
		sol, found, err := e.queued.Lookup()
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrInfeasible
		}
		if err := e.checkFloor(&sol.Score); err != nil {
			return nil, err
		}
		return sol.Winners, nil
	case ComputeFallback:
		if e.cfg.Fallback != thor.FallbackOnChain {
			return nil, ErrInfeasible
		}
		sol, err := e.mine(round)
		if err != nil {
			return nil, err
		}
		return sol.Winners, nil
	case ComputeEmergency:
		if !current.IsEmergency() {
			return nil, ErrInfeasible
		}
		result, found, err := e.emergencyResult.Lookup()
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrInfeasible
		}
		return result, nil
	}
	return nil, ErrInfeasible
}

// mine runs the solver over the snapshot, taking one if the round has none.
// The result must be feasible and clear the floor like any submission.
func (e *Election) mine(round uint32) (*Solution, error) {
	if e.solver == nil {
		return nil, ErrInfeasible
	}
	snapshot, found, err := e.snapshot.Lookup()
	if err != nil {
		return nil, err
	}
	if !found {
		if err := e.takeSnapshot(); err != nil {
			return nil, err
		}
		if snapshot, err = e.snapshot.Get(); err != nil {
			return nil, err
		}
	}
	sol, err := e.solver(snapshot, round)
	if err != nil {
		return nil, errors.Wrap(ErrInfeasible, err.Error())
	}
	if err := CheckFeasibility(sol, snapshot, round); err != nil {
		return nil, err
	}
	if err := e.checkFloor(&sol.Score); err != nil {
		return nil, err
	}
	return sol, nil
}

//
// Governance
//

// SetMinimumUntrustedScore sets the floor every outcome must reach. Nil clears it.
func (e *Election) SetMinimumUntrustedScore(score *Score) error {
	if score == nil {
		e.minScore.Delete()
		logger.Info("minimum untrusted score cleared")
		return nil
	}
	logger.Info("minimum untrusted score set", "minimalStake", &score.MinimalStake, "sumStake", &score.SumStake)
	return e.minScore.Set(score)
}

// SetEmergencyResult provides the outcome the next Elect uses while in Emergency.
func (e *Election) SetEmergencyResult(supports []*Support) error {
	phase, err := e.phase.Get()
	if err != nil {
		return err
	}
	if !phase.IsEmergency() {
		return ErrNotEmergency
	}
	if len(supports) == 0 {
		return reverts.Wrap(ErrInvalidResult, "empty")
	}
	desired, err := e.desiredTargets()
	if err != nil {
		return err
	}
	if uint32(len(supports)) > desired {
		return reverts.Wrap(ErrInvalidResult, "%d winners, at most %d", len(supports), desired)
	}
	seen := make(map[thor.Address]bool, len(supports))
	for i, s := range supports {
		if s == nil {
			return reverts.Wrap(ErrInvalidResult, "support %d is empty", i)
		}
		if seen[s.Who] || s.Total == nil || s.Total.Sign() < 0 {
			return reverts.Wrap(ErrInvalidResult, "bad support for %v", s.Who)
		}
		if slices.Contains(s.Backers, nil) {
			return reverts.Wrap(ErrInvalidResult, "empty backer of %v", s.Who)
		}
		seen[s.Who] = true
	}
	logger.Info("emergency result set", "winners", len(supports))
	return e.emergencyResult.Set(supports)
}

func (e *Election) desiredTargets() (uint32, error) {
	snapshot, found, err := e.snapshot.Lookup()
	if err != nil {
		return 0, err
	}
	if found {
		return snapshot.DesiredTargets, nil
	}
	return e.provider.DesiredTargets()
}

// GovernanceFallback runs the on-chain solver and stores its outcome as the
// emergency result, whatever the configured fallback is.
func (e *Election) GovernanceFallback() error {
	phase, err := e.phase.Get()
	if err != nil {
		return err
	}
	if !phase.IsEmergency() {
		return ErrNotEmergency
	}
	round, err := e.round.Get()
	if err != nil {
		return err
	}
	sol, err := e.mine(round)
	if err != nil {
		if errors.Is(err, ErrInfeasible) {
			return reverts.Wrap(ErrInvalidResult, "fallback found nothing")
		}
		return err
	}
	return e.SetEmergencyResult(sol.Winners)
}

// ForceRetry leaves Emergency without an outcome so the next cycle runs a
// fresh election. It is refused while emergency throttling is on.
func (e *Election) ForceRetry() error {
	phase, err := e.phase.Get()
	if err != nil {
		return err
	}
	if !phase.IsEmergency() {
		return ErrNotEmergency
	}
	if e.cfg.IsEmergencyThrottled() {
		return ErrEmergencyThrottled
	}
	e.clearRound()
	logger.Info("emergency retry forced")
	return e.setPhase(phase, &Phase{Kind: PhaseOff})
}
