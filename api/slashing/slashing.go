// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/npos/api/utils"
	"github.com/vechain/npos/runtime"
	"github.com/vechain/npos/thor"
)

type Slashing struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Slashing {
	return &Slashing{rt}
}

// Disabled is a disabled validator of the current era.
type Disabled struct {
	Index     uint32       `json:"index"`
	Validator thor.Address `json:"validator"`
	Fraction  thor.Perbill `json:"fraction"`
}

func (s *Slashing) handleGetDisabled(w http.ResponseWriter, _ *http.Request) error {
	res := []*Disabled{}
	err := s.rt.View(func(m *runtime.Modules) error {
		list, err := m.Slashing.Disabled()
		if err != nil {
			return err
		}
		active, err := m.Staking.ActiveValidators()
		if err != nil {
			return err
		}
		for _, d := range list {
			entry := &Disabled{Index: d.Index, Fraction: d.Fraction}
			if int(d.Index) < len(active) {
				entry.Validator = active[d.Index]
			}
			res = append(res, entry)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (s *Slashing) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/disabled").
		Methods(http.MethodGet).
		Name("GET /slashing/disabled").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDisabled))
}
