// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/npos/api/utils"
	"github.com/vechain/npos/builtin/staking"
	"github.com/vechain/npos/builtin/staking/ledger"
	"github.com/vechain/npos/runtime"
)

type Staking struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Staking {
	return &Staking{rt}
}

// Ledger is a stash ledger with its role and account balances.
type Ledger struct {
	*ledger.Ledger
	Role      *staking.Role `json:"role"`
	Free      *big.Int      `json:"free"`
	Reducible *big.Int      `json:"reducible"`
}

// Era describes the current era.
type Era struct {
	Index        uint32              `json:"index"`
	StartSession uint32              `json:"startSession"`
	Session      uint32              `json:"session"`
	Forcing      staking.Forcing     `json:"forcing"`
	ActiveSet    []*staking.Exposure `json:"activeSet"`
}

func (s *Staking) handleGetLedger(w http.ResponseWriter, req *http.Request) error {
	stash, err := utils.AddressVar(req, "stash")
	if err != nil {
		return err
	}
	var res Ledger
	err = s.rt.View(func(m *runtime.Modules) (err error) {
		if res.Ledger, err = m.Staking.Ledger(stash); err != nil {
			return err
		}
		if res.Role, err = m.Staking.Role(stash); err != nil {
			return err
		}
		if res.Free, err = m.Balances.Free(stash); err != nil {
			return err
		}
		res.Reducible, err = m.Balances.Reducible(stash)
		return err
	})
	if err != nil {
		if errors.Is(err, staking.ErrNotStash) {
			return utils.NotFound(err)
		}
		return err
	}
	return utils.WriteJSON(w, &res)
}

func (s *Staking) handleGetForceEra(w http.ResponseWriter, _ *http.Request) error {
	var forcing staking.Forcing
	err := s.rt.View(func(m *runtime.Modules) (err error) {
		forcing, err = m.Staking.ForceEra()
		return err
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"mode": forcing})
}

func (s *Staking) handleGetEra(w http.ResponseWriter, _ *http.Request) error {
	var era Era
	err := s.rt.View(func(m *runtime.Modules) (err error) {
		if era.Index, err = m.Staking.CurrentEra(); err != nil {
			return err
		}
		if era.StartSession, _, err = m.Session.EraStartSession(); err != nil {
			return err
		}
		if era.Session, err = m.Session.CurrentSession(); err != nil {
			return err
		}
		if era.Forcing, err = m.Staking.ForceEra(); err != nil {
			return err
		}
		era.ActiveSet, err = m.Staking.ActiveSet()
		return err
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &era)
}

func (s *Staking) handleGetValidators(w http.ResponseWriter, _ *http.Request) error {
	var res struct {
		Candidates []string `json:"candidates"`
		Total      *big.Int `json:"totalStaked"`
	}
	err := s.rt.View(func(m *runtime.Modules) error {
		validators, err := m.Staking.Validators()
		if err != nil {
			return err
		}
		res.Candidates = make([]string, 0, len(validators))
		for _, v := range validators {
			res.Candidates = append(res.Candidates, v.String())
		}
		res.Total, err = m.Staking.TotalStaked()
		return err
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &res)
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/ledgers/{stash}").
		Methods(http.MethodGet).
		Name("GET /ledgers/{stash}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetLedger))
	sub.Path("/staking/force-era").
		Methods(http.MethodGet).
		Name("GET /staking/force-era").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetForceEra))
	sub.Path("/staking/era").
		Methods(http.MethodGet).
		Name("GET /staking/era").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetEra))
	sub.Path("/staking/validators").
		Methods(http.MethodGet).
		Name("GET /staking/validators").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetValidators))
}
