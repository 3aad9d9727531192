// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/npos/api/utils"
	"github.com/vechain/npos/builtin/election"
	"github.com/vechain/npos/runtime"
)

type Election struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Election {
	return &Election{rt}
}

// Phase is the phase of the controller with the election round.
type Phase struct {
	*election.Phase
	Round uint32 `json:"round"`
}

func (e *Election) handleGetPhase(w http.ResponseWriter, _ *http.Request) error {
	var phase Phase
	err := e.rt.View(func(m *runtime.Modules) (err error) {
		if phase.Phase, err = m.Election.Phase(); err != nil {
			return err
		}
		phase.Round, err = m.Election.Round()
		return err
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &phase)
}

func (e *Election) handleGetQueued(w http.ResponseWriter, _ *http.Request) error {
	var (
		sol   *election.Solution
		found bool
	)
	err := e.rt.View(func(m *runtime.Modules) (err error) {
		sol, found, err = m.Election.QueuedSolution()
		return err
	})
	if err != nil {
		return err
	}
	if !found {
		return utils.NotFound(errors.New("no queued solution"))
	}
	return utils.WriteJSON(w, sol)
}

func (e *Election) handleGetSigned(w http.ResponseWriter, _ *http.Request) error {
	var signed []*election.Solution
	err := e.rt.View(func(m *runtime.Modules) (err error) {
		signed, err = m.Election.SignedSubmissions()
		return err
	})
	if err != nil {
		return err
	}
	if signed == nil {
		signed = []*election.Solution{}
	}
	return utils.WriteJSON(w, signed)
}

func (e *Election) handleGetSnapshot(w http.ResponseWriter, _ *http.Request) error {
	var (
		snapshot *election.Snapshot
		found    bool
	)
	err := e.rt.View(func(m *runtime.Modules) (err error) {
		snapshot, found, err = m.Election.Snapshot()
		return err
	})
	if err != nil {
		return err
	}
	if !found {
		return utils.NotFound(errors.New("no snapshot"))
	}
	return utils.WriteJSON(w, snapshot)
}

func (e *Election) handleGetMinimumScore(w http.ResponseWriter, _ *http.Request) error {
	var (
		score *election.Score
		found bool
	)
	err := e.rt.View(func(m *runtime.Modules) (err error) {
		score, found, err = m.Election.MinimumUntrustedScore()
		return err
	})
	if err != nil {
		return err
	}
	if !found {
		return utils.NotFound(errors.New("no minimum untrusted score"))
	}
	return utils.WriteJSON(w, score)
}

func (e *Election) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	var sol election.Solution
	if err := utils.ParseJSON(req.Body, &sol); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	err := e.rt.Call("election.submit", func(m *runtime.Modules) error {
		return m.Election.Submit(&sol)
	})
	if err != nil {
		return utils.Rejected(err)
	}
	return utils.WriteJSON(w, utils.M{"round": sol.Round, "score": &sol.Score})
}

func (e *Election) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/phase").
		Methods(http.MethodGet).
		Name("GET /phase").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetPhase))
	sub.Path("/election/queued").
		Methods(http.MethodGet).
		Name("GET /election/queued").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetQueued))
	sub.Path("/election/signed").
		Methods(http.MethodGet).
		Name("GET /election/signed").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetSigned))
	sub.Path("/election/snapshot").
		Methods(http.MethodGet).
		Name("GET /election/snapshot").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetSnapshot))
	sub.Path("/election/minimum-score").
		Methods(http.MethodGet).
		Name("GET /election/minimum-score").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetMinimumScore))
	sub.Path("/election/solutions").
		Methods(http.MethodPost).
		Name("POST /election/solutions").
		HandlerFunc(utils.WrapHandlerFunc(e.handleSubmit))
}
