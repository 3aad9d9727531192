// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"slices"

	"github.com/vechain/npos/builtin/reverts"
)

// Submit offers a candidate solution. During Signed it joins the bounded
// signed queue, during Unsigned it replaces the queued solution if it beats it.
func (e *Election) Submit(sol *Solution) (err error) {
	if sol == nil {
		return reverts.Wrap(ErrMalformed, "empty solution")
	}
	defer func() {
		result := "accepted"
		if err != nil {
			result = "rejected"
			logger.Info("submit solution failed", "round", sol.Round, "error", err)
		}
		metricSubmissionsCount().AddWithLabel(1, map[string]string{"result": result})
	}()
	logger.Debug("submitting solution", "round", sol.Round, "winners", len(sol.Winners))

	phase, err := e.phase.Get()
	if err != nil {
		return err
	}
	switch {
	case phase.IsSigned():
		return e.submitSigned(sol)
	case phase.IsUnsigned() && phase.SubmissionsOpen:
		return e.submitUnsigned(sol)
	default:
		return reverts.Wrap(ErrPhaseClosed, "phase %v", phase.Kind)
	}
}

func (e *Election) verify(sol *Solution) error {
	if err := e.checkFloor(&sol.Score); err != nil {
		return err
	}
	snapshot, found, err := e.snapshot.Lookup()
	if err != nil {
		return err
	}
	if !found {
		return reverts.Wrap(ErrPhaseClosed, "no snapshot")
	}
	round, err := e.round.Get()
	if err != nil {
		return err
	}
	return CheckFeasibility(sol, snapshot, round)
}

func (e *Election) submitSigned(sol *Solution) error {
	if err := e.verify(sol); err != nil {
		return err
	}
	queue, err := e.signed.Get()
	if err != nil {
		return err
	}
	if uint32(len(queue)) >= e.cfg.MaxSignedSubmissions {
		weakest := queue[len(queue)-1]
		if !sol.Score.Better(&weakest.Score) {
			return ErrQueueFull
		}
		logger.Debug("weakest signed submission evicted", "round", weakest.Round)
		queue = queue[:len(queue)-1]
	}
	// keep best first, a newcomer goes after the ones it does not beat
	at := slices.IndexFunc(queue, func(s *Solution) bool { return sol.Score.Better(&s.Score) })
	if at < 0 {
		at = len(queue)
	}
	queue = slices.Insert(queue, at, sol)
	if err := e.signed.Set(queue); err != nil {
		return err
	}
	e.emitter.Emit(&SolutionStored{Round: sol.Round, Signed: true, Score: sol.Score})
	return nil
}

func (e *Election) submitUnsigned(sol *Solution) error {
	queued, found, err := e.queued.Lookup()
	if err != nil {
		return err
	}
	if found && !sol.Score.Better(&queued.Score) {
		return reverts.Wrap(ErrScoreTooLow, "does not beat the queued solution")
	}
	if err := e.verify(sol); err != nil {
		return err
	}
	if err := e.queued.Set(sol); err != nil {
		return err
	}
	e.emitter.Emit(&SolutionStored{Round: sol.Round, Signed: false, Score: sol.Score})
	return nil
}
