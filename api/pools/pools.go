// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/npos/api/utils"
	"github.com/vechain/npos/builtin/pools"
	"github.com/vechain/npos/runtime"
	"github.com/vechain/npos/thor"
)

type Pools struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Pools {
	return &Pools{rt}
}

// Pool is a pool with its bonded account and unbonding pools.
type Pool struct {
	*pools.Pool
	BondedAccount thor.Address    `json:"bondedAccount"`
	Bonded        *big.Int        `json:"bonded"`
	SubPools      *pools.SubPools `json:"subPools"`
}

// Member is a pool member with the stake its points are worth.
type Member struct {
	*pools.Member
	Balance *big.Int `json:"balance"`
}

func notFound(err error) error {
	if errors.Is(err, pools.ErrPoolNotFound) || errors.Is(err, pools.ErrPoolMemberNotFound) {
		return utils.NotFound(err)
	}
	return err
}

func (p *Pools) handleGetTVL(w http.ResponseWriter, _ *http.Request) error {
	var (
		tvl  *big.Int
		last uint32
	)
	err := p.rt.View(func(m *runtime.Modules) (err error) {
		if tvl, err = m.Pools.TotalValueLocked(); err != nil {
			return err
		}
		last, err = m.Pools.LastPoolID()
		return err
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"tvl": tvl, "lastPoolId": last})
}

func (p *Pools) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Uint32Var(req, "id")
	if err != nil {
		return err
	}
	res := Pool{BondedAccount: pools.BondedAccount(id)}
	err = p.rt.View(func(m *runtime.Modules) (err error) {
		if res.Pool, err = m.Pools.Pool(id); err != nil {
			return err
		}
		if res.Bonded, err = m.Pools.BondedBalance(id); err != nil {
			return err
		}
		res.SubPools, err = m.Pools.SubPools(id)
		return err
	})
	if err != nil {
		return notFound(err)
	}
	return utils.WriteJSON(w, &res)
}

func (p *Pools) handleGetMember(w http.ResponseWriter, req *http.Request) error {
	who, err := utils.AddressVar(req, "account")
	if err != nil {
		return err
	}
	var res Member
	err = p.rt.View(func(m *runtime.Modules) (err error) {
		if res.Member, err = m.Pools.Member(who); err != nil {
			return err
		}
		res.Balance, err = m.Pools.PointsToBalance(res.PoolID, res.Points)
		return err
	})
	if err != nil {
		return notFound(err)
	}
	return utils.WriteJSON(w, &res)
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/tvl").
		Methods(http.MethodGet).
		Name("GET /pools/tvl").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetTVL))
	sub.Path("/members/{account}").
		Methods(http.MethodGet).
		Name("GET /pools/members/{account}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetMember))
	sub.Path("/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /pools/{id}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
}
