// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package balances

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/events"
	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/test/datagen"
	"github.com/vechain/npos/thor"
)

func M(a ...any) []any {
	return a
}

func newBalances(t *testing.T) (*Balances, *events.Recorder) {
	rec := &events.Recorder{}
	b := New(thor.BytesToAddress([]byte("balances")), state.New(kv.NewMem()), big.NewInt(10), rec)
	return b, rec
}

func TestTransfer(t *testing.T) {
	b, rec := newBalances(t)
	alice, bob, carol := datagen.RandAddress(), datagen.RandAddress(), datagen.RandAddress()
	require.NoError(t, b.Mint(alice, big.NewInt(100)))

	tests := []struct {
		ret      []any
		expected []any
	}{
		{M(b.Transfer(alice, bob, big.NewInt(5))), M(ErrExistentialDeposit)},
		{M(b.Transfer(alice, bob, big.NewInt(0))), M(ErrZeroAmount)},
		{M(b.Transfer(alice, bob, big.NewInt(101))), M(ErrInsufficientBalance)},
		{M(b.Transfer(alice, bob, big.NewInt(40))), M(nil)},
		{M(b.Transfer(alice, bob, big.NewInt(5))), M(nil)},
		{M(b.Transfer(bob, carol, big.NewInt(45))), M(nil)},
		{M(b.Free(alice)), M(big.NewInt(55), nil)},
		{M(b.Free(bob)), M(new(big.Int), nil)},
		{M(b.Free(carol)), M(big.NewInt(45), nil)},
		{M(b.TotalIssuance()), M(big.NewInt(100), nil)},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.expected, tt.ret, "case #%d", i)
	}
	assert.Equal(t, []string{"Minted", "Transfer", "Transfer", "Transfer"}, rec.Names())
}

func TestLocks(t *testing.T) {
	b, _ := newBalances(t)
	who, to := datagen.RandAddress(), datagen.RandAddress()
	require.NoError(t, b.Mint(who, big.NewInt(100)))

	require.NoError(t, b.SetLock("staking", who, big.NewInt(60)))
	require.NoError(t, b.SetLock("other", who, big.NewInt(30)))

	locked, err := b.Locked(who)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), locked)

	reducible, err := b.Reducible(who)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(40), reducible)

	assert.ErrorIs(t, b.Transfer(who, to, big.NewInt(41)), ErrInsufficientBalance)

	require.NoError(t, b.SetLock("staking", who, big.NewInt(20)))
	require.NoError(t, b.Transfer(who, to, big.NewInt(70)))

	require.NoError(t, b.RemoveLock("other", who))
	locked, err = b.Locked(who)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), locked)
}

func TestBurn(t *testing.T) {
	b, rec := newBalances(t)
	who := datagen.RandAddress()
	require.NoError(t, b.Mint(who, big.NewInt(50)))
	require.NoError(t, b.SetLock("staking", who, big.NewInt(50)))
	rec.Reset()

	burned, err := b.Burn(who, big.NewInt(20))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), burned)

	burned, err = b.Burn(who, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(30), burned)

	free, err := b.Free(who)
	require.NoError(t, err)
	assert.Equal(t, 0, free.Sign())

	issuance, err := b.TotalIssuance()
	require.NoError(t, err)
	assert.Equal(t, 0, issuance.Sign())
	assert.Equal(t, []string{"Burned", "Burned"}, rec.Names())
}
