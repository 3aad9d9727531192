// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/builtin/balances"
	"github.com/vechain/npos/builtin/params"
	"github.com/vechain/npos/builtin/staking"
	"github.com/vechain/npos/events"
	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/test/datagen"
	"github.com/vechain/npos/thor"
)

type testPools struct {
	*Pools
	staking  *staking.Staking
	balances *balances.Balances
	rec      *events.Recorder
}

func newTestPools(t *testing.T, override func(*thor.Config)) *testPools {
	cfg := thor.DefaultConfig()
	cfg.BondingDuration = 3
	cfg.ExistentialDeposit = 10
	cfg.MaxPoolUnbonding = 4
	override(&cfg)

	st := state.New(kv.NewMem())
	rec := &events.Recorder{}
	p := params.New(thor.BytesToAddress([]byte("params")), st)
	require.NoError(t, p.Set(params.KeyMinValidatorBond, big.NewInt(500)))
	require.NoError(t, p.Set(params.KeyMinNominatorBond, big.NewInt(100)))
	require.NoError(t, p.Set(params.KeyMinJoinBond, big.NewInt(50)))
	require.NoError(t, p.Set(params.KeyMinCreateBond, big.NewInt(200)))

	b := balances.New(thor.BytesToAddress([]byte("balances")), st, cfg.ED(), rec)
	s := staking.New(thor.BytesToAddress([]byte("staking")), st, cfg, p, b, rec)
	_, err := s.StartEra(0, nil)
	require.NoError(t, err)

	pools := New(thor.BytesToAddress([]byte("pools")), st, cfg, p, s, b, rec)
	return &testPools{Pools: pools, staking: s, balances: b, rec: rec}
}

func (tp *testPools) fund(t *testing.T, amount int64) thor.Address {
	who := datagen.RandAddress()
	require.NoError(t, tp.balances.Mint(who, big.NewInt(amount)))
	return who
}

func (tp *testPools) free(t *testing.T, who thor.Address) int64 {
	free, err := tp.balances.Free(who)
	require.NoError(t, err)
	return free.Int64()
}

func (tp *testPools) tvl(t *testing.T) int64 {
	tvl, err := tp.TotalValueLocked()
	require.NoError(t, err)
	return tvl.Int64()
}

func (tp *testPools) advanceEras(t *testing.T, n int) {
	for range n {
		era, err := tp.staking.CurrentEra()
		require.NoError(t, err)
		_, err = tp.staking.StartEra(era*3+3, nil)
		require.NoError(t, err)
	}
}

// assertTVL checks the counter against the bonded ledgers of every pool.
func (tp *testPools) assertTVL(t *testing.T) {
	last, err := tp.LastPoolID()
	require.NoError(t, err)
	sum := new(big.Int)
	for id := uint32(1); id <= last; id++ {
		l, err := tp.staking.Ledger(BondedAccount(id))
		if err == staking.ErrNotStash {
			continue
		}
		require.NoError(t, err)
		sum.Add(sum, l.Total)
	}
	tvl, err := tp.TotalValueLocked()
	require.NoError(t, err)
	assert.Equal(t, sum.String(), tvl.String())
}

func points(n int64) *big.Int { return big.NewInt(n) }

func TestBondedAccount(t *testing.T) {
	assert.Equal(t, BondedAccount(1), BondedAccount(1))
	assert.NotEqual(t, BondedAccount(1), BondedAccount(2))
}

func TestCreateAndJoin(t *testing.T) {
	tp := newTestPools(t, func(*thor.Config) {})
	depositor := tp.fund(t, 2000)
	joiner := tp.fund(t, 500)

	id, err := tp.Create(depositor, big.NewInt(1000), depositor)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)
	assert.Equal(t, int64(1000), tp.tvl(t))

	require.NoError(t, tp.Join(joiner, big.NewInt(100), id))
	require.NoError(t, tp.BondExtra(joiner, big.NewInt(50)))
	assert.Equal(t, int64(1150), tp.tvl(t))
	assert.Equal(t, int64(350), tp.free(t, joiner))
	tp.assertTVL(t)

	pool, err := tp.Pool(id)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), pool.MemberCounter)
	assert.Equal(t, "1150", pool.Points.String())

	m, err := tp.Member(joiner)
	require.NoError(t, err)
	assert.Equal(t, "150", m.Points.String())

	balance, err := tp.PointsToBalance(id, m.Points)
	require.NoError(t, err)
	assert.Equal(t, "150", balance.String())
}

func TestTVLReturnsAfterFullExit(t *testing.T) {
	tp := newTestPools(t, func(*thor.Config) {})
	depositor := tp.fund(t, 2000)
	id, err := tp.Create(depositor, big.NewInt(1000), depositor)
	require.NoError(t, err)
	t0 := tp.tvl(t)

	a, b, c := tp.fund(t, 500), tp.fund(t, 500), tp.fund(t, 1000)
	require.NoError(t, tp.Join(a, big.NewInt(100), id))
	require.NoError(t, tp.Join(b, big.NewInt(200), id))
	require.NoError(t, tp.Join(c, big.NewInt(300), id))
	assert.Equal(t, t0+600, tp.tvl(t))
	tp.assertTVL(t)

	// unbonding leaves the total and the TVL alone
	require.NoError(t, tp.Unbond(a, points(100)))
	assert.Equal(t, t0+600, tp.tvl(t))
	tp.advanceEras(t, 1)
	require.NoError(t, tp.Unbond(b, points(200)))
	tp.assertTVL(t)

	// a's chunk matures; c's unbond sweeps it out of the bonded ledger
	tp.advanceEras(t, 2)
	tp.rec.Reset()
	require.NoError(t, tp.Unbond(c, points(300)))
	assert.Contains(t, tp.rec.Names(), "Withdrawn")
	assert.Equal(t, t0+500, tp.tvl(t))
	tp.assertTVL(t)

	// the swept funds are still paid to a
	require.NoError(t, tp.WithdrawUnbonded(a))
	assert.Equal(t, int64(500), tp.free(t, a))
	assert.ErrorIs(t, tp.WithdrawUnbonded(b), ErrCannotWithdrawAny)
	_, err = tp.Member(a)
	assert.ErrorIs(t, err, ErrPoolMemberNotFound)

	tp.advanceEras(t, 3)
	require.NoError(t, tp.WithdrawUnbonded(b))
	tp.assertTVL(t)
	require.NoError(t, tp.WithdrawUnbonded(c))

	assert.Equal(t, t0, tp.tvl(t))
	tp.assertTVL(t)
	assert.Equal(t, int64(500), tp.free(t, a))
	assert.Equal(t, int64(500), tp.free(t, b))
	assert.Equal(t, int64(1000), tp.free(t, c))

	pool, err := tp.Pool(id)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), pool.MemberCounter)
}

func TestDepositorLeavesDestroyingPool(t *testing.T) {
	tp := newTestPools(t, func(*thor.Config) {})
	depositor, joiner := tp.fund(t, 2000), tp.fund(t, 500)
	id, err := tp.Create(depositor, big.NewInt(1000), depositor)
	require.NoError(t, err)
	require.NoError(t, tp.Join(joiner, big.NewInt(100), id))

	assert.ErrorIs(t, tp.Unbond(depositor, points(1000)), ErrMinimumBondNotMet)
	require.NoError(t, tp.Unbond(depositor, points(800)))
	require.NoError(t, tp.SetState(depositor, id, PoolDestroying))
	assert.ErrorIs(t, tp.Unbond(depositor, points(200)), ErrMinimumBondNotMet)
	assert.ErrorIs(t, tp.Join(tp.fund(t, 500), big.NewInt(100), id), ErrPoolNotOpen)
	assert.ErrorIs(t, tp.BondExtra(joiner, big.NewInt(100)), ErrPoolNotOpen)

	require.NoError(t, tp.Unbond(joiner, points(100)))
	tp.advanceEras(t, 3)
	require.NoError(t, tp.WithdrawUnbonded(joiner))
	assert.Equal(t, int64(500), tp.free(t, joiner))

	require.NoError(t, tp.Unbond(depositor, points(200)))
	tp.advanceEras(t, 3)
	require.NoError(t, tp.WithdrawUnbonded(depositor))
	assert.Equal(t, int64(2000), tp.free(t, depositor))

	_, err = tp.Pool(id)
	assert.ErrorIs(t, err, ErrPoolNotFound)
	assert.Equal(t, int64(0), tp.tvl(t))
	bonded, err := tp.staking.IsBonded(BondedAccount(id))
	require.NoError(t, err)
	assert.False(t, bonded)
	assert.Contains(t, tp.rec.Names(), "Destroyed")
}

func TestPoolErrors(t *testing.T) {
	tp := newTestPools(t, func(c *thor.Config) { c.MaxPoolUnbonding = 2 })
	depositor, joiner := tp.fund(t, 2000), tp.fund(t, 1000)
	stranger := tp.fund(t, 1000)

	_, err := tp.Create(depositor, big.NewInt(100), depositor)
	assert.ErrorIs(t, err, ErrMinimumBondNotMet)
	_, err = tp.Create(depositor, big.NewInt(5000), depositor)
	assert.ErrorIs(t, err, balances.ErrInsufficientBalance)

	id, err := tp.Create(depositor, big.NewInt(1000), depositor)
	require.NoError(t, err)

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unknown pool", tp.Join(joiner, big.NewInt(100), id+1), ErrPoolNotFound},
		{"join below minimum", tp.Join(joiner, big.NewInt(10), id), ErrMinimumBondNotMet},
		{"depositor joins", tp.Join(depositor, big.NewInt(100), id), ErrAccountBelongsToOtherPool},
		{"unbond non member", tp.Unbond(stranger, points(1)), ErrPoolMemberNotFound},
		{"withdraw non member", tp.WithdrawUnbonded(stranger), ErrPoolMemberNotFound},
		{"nominate without permission", tp.Nominate(stranger, id, nil), ErrDoesNotHavePermission},
		{"chill without permission", tp.Chill(stranger, id), ErrDoesNotHavePermission},
		{"state without permission", tp.SetState(stranger, id, PoolBlocked), ErrDoesNotHavePermission},
		{"same state", tp.SetState(depositor, id, PoolOpen), ErrCanNotChangeState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.want)
		})
	}

	require.NoError(t, tp.Join(joiner, big.NewInt(300), id))
	assert.ErrorIs(t, tp.Join(joiner, big.NewInt(100), id), ErrAccountBelongsToOtherPool)
	assert.ErrorIs(t, tp.Unbond(joiner, points(301)), ErrNotEnoughPointsToUnbond)
	assert.ErrorIs(t, tp.Unbond(joiner, points(0)), ErrNotEnoughPointsToUnbond)
	assert.ErrorIs(t, tp.Unbond(joiner, points(260)), ErrMinimumBondNotMet)
	assert.ErrorIs(t, tp.WithdrawUnbonded(joiner), ErrCannotWithdrawAny)

	require.NoError(t, tp.Unbond(joiner, points(60)))
	tp.advanceEras(t, 1)
	require.NoError(t, tp.Unbond(joiner, points(60)))
	tp.advanceEras(t, 1)
	assert.ErrorIs(t, tp.Unbond(joiner, points(60)), ErrMaxUnbondingLimit)

	require.NoError(t, tp.SetState(depositor, id, PoolBlocked))
	assert.ErrorIs(t, tp.Join(stranger, big.NewInt(100), id), ErrPoolNotOpen)
	require.NoError(t, tp.SetState(depositor, id, PoolDestroying))
	assert.ErrorIs(t, tp.SetState(depositor, id, PoolOpen), ErrCanNotChangeState)
	tp.assertTVL(t)
}

func TestNominateAndChill(t *testing.T) {
	tp := newTestPools(t, func(*thor.Config) {})
	validator := tp.fund(t, 1000)
	require.NoError(t, tp.staking.Bond(validator, big.NewInt(600)))
	require.NoError(t, tp.staking.Validate(validator, staking.ValidatorPrefs{}))

	depositor, root := tp.fund(t, 2000), datagen.RandAddress()
	id, err := tp.Create(depositor, big.NewInt(1000), root)
	require.NoError(t, err)

	assert.ErrorIs(t, tp.Nominate(depositor, id, []thor.Address{validator}), ErrDoesNotHavePermission)
	require.NoError(t, tp.Nominate(root, id, []thor.Address{validator}))
	role, err := tp.staking.Role(BondedAccount(id))
	require.NoError(t, err)
	assert.Equal(t, staking.RoleNominator, role.Kind)

	require.NoError(t, tp.Chill(root, id))
	role, err = tp.staking.Role(BondedAccount(id))
	require.NoError(t, err)
	assert.Equal(t, staking.RoleIdle, role.Kind)
}

func TestSlashKeepsTVL(t *testing.T) {
	tp := newTestPools(t, func(*thor.Config) {})
	depositor, joiner := tp.fund(t, 2000), tp.fund(t, 1000)
	id, err := tp.Create(depositor, big.NewInt(1000), depositor)
	require.NoError(t, err)
	require.NoError(t, tp.Join(joiner, big.NewInt(1000), id))
	require.NoError(t, tp.Unbond(joiner, points(500)))

	slashed, err := tp.staking.Slash(BondedAccount(id), thor.PerbillFromPercent(10))
	require.NoError(t, err)
	assert.Equal(t, "200", slashed.String())
	assert.Equal(t, int64(1800), tp.tvl(t))
	tp.assertTVL(t)

	// points are worth less once the active stake is slashed
	balance, err := tp.PointsToBalance(id, points(1000))
	require.NoError(t, err)
	assert.Equal(t, "866", balance.String())
}

func TestUnbondTakesDustRemainder(t *testing.T) {
	tp := newTestPools(t, func(c *thor.Config) { c.ExistentialDeposit = 100 })
	depositor, joiner := tp.fund(t, 2000), tp.fund(t, 500)
	id, err := tp.Create(depositor, big.NewInt(1000), depositor)
	require.NoError(t, err)
	require.NoError(t, tp.Join(joiner, big.NewInt(100), id))

	_, err = tp.staking.Slash(BondedAccount(id), thor.PerbillFromPercent(95))
	require.NoError(t, err)
	active, err := tp.BondedBalance(id)
	require.NoError(t, err)
	require.Equal(t, "55", active.String())

	// the 5 the points are worth would leave 50 bonded, below the existential deposit
	require.NoError(t, tp.Unbond(joiner, points(100)))

	l, err := tp.staking.Ledger(BondedAccount(id))
	require.NoError(t, err)
	assert.Equal(t, 0, l.Active.Sign())
	unlocking := new(big.Int).Sub(l.Total, l.Active)
	assert.Equal(t, "55", unlocking.String())

	sub, err := tp.SubPools(id)
	require.NoError(t, err)
	era, err := tp.staking.CurrentEra()
	require.NoError(t, err)
	claimable := sub.at(era + 3)
	require.NotNil(t, claimable)
	assert.Equal(t, unlocking.String(), claimable.Balance.String())
	tp.assertTVL(t)
}

func TestInsolventPoolRejectsBonds(t *testing.T) {
	tp := newTestPools(t, func(*thor.Config) {})
	depositor, joiner := tp.fund(t, 2000), tp.fund(t, 500)
	id, err := tp.Create(depositor, big.NewInt(1000), depositor)
	require.NoError(t, err)

	_, err = tp.staking.Slash(BondedAccount(id), thor.PerbillFromPercent(100))
	require.NoError(t, err)
	active, err := tp.BondedBalance(id)
	require.NoError(t, err)
	require.Equal(t, 0, active.Sign())

	assert.ErrorIs(t, tp.Join(joiner, big.NewInt(100), id), ErrPoolInsolvent)
	assert.ErrorIs(t, tp.BondExtra(depositor, big.NewInt(100)), ErrPoolInsolvent)
	assert.Equal(t, int64(500), tp.free(t, joiner))
	_, err = tp.Member(joiner)
	assert.ErrorIs(t, err, ErrPoolMemberNotFound)

	pool, err := tp.Pool(id)
	require.NoError(t, err)
	assert.Equal(t, "1000", pool.Points.String())
	assert.Equal(t, uint32(1), pool.MemberCounter)
}
