// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slots

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/test/datagen"
	"github.com/vechain/npos/thor"
)

type record struct {
	Owner  thor.Address
	Amount *big.Int
	Era    uint64
}

func newTestContext() *Context {
	return NewContext(thor.BytesToAddress([]byte("slots")), state.New(kv.NewMem()))
}

func TestValue(t *testing.T) {
	ctx := newTestContext()
	v := NewValue[*record](ctx, Pos("record"))

	got, found, err := v.Lookup()
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotNil(t, got)

	rec := &record{Owner: datagen.RandAddress(), Amount: big.NewInt(42), Era: 3}
	require.NoError(t, v.Set(rec))
	got, err = v.Get()
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	v.Delete()
	_, found, err = v.Lookup()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUint256(t *testing.T) {
	ctx := newTestContext()
	u := NewUint256(ctx, Pos("total"))

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, u.Add(big.NewInt(100)))
	require.NoError(t, u.Sub(big.NewInt(30)))
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(70), v)

	assert.ErrorIs(t, u.Sub(big.NewInt(71)), ErrUnderflow)

	require.NoError(t, u.Sub(big.NewInt(70)))
	raw, err := ctx.State().GetRawStorage(ctx.Space(), Pos("total"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestMapping(t *testing.T) {
	ctx := newTestContext()
	byAddr := NewMapping[thor.Address, *record](ctx, Pos("byAddr"))
	byID := NewMapping[Uint64Key, uint64](ctx, Pos("byID"))

	a, b := datagen.RandAddress(), datagen.RandAddress()
	require.NoError(t, byAddr.Set(a, &record{Owner: a, Amount: big.NewInt(1)}))

	got, found, err := byAddr.Lookup(a)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, a, got.Owner)

	_, found, err = byAddr.Lookup(b)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, byID.Set(7, 49))
	n, err := byID.Get(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(49), n)
	n, err = byID.Get(8)
	require.NoError(t, err)
	assert.Zero(t, n)

	byAddr.Delete(a)
	_, found, err = byAddr.Lookup(a)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMappingSurvivesCommitAndRevert(t *testing.T) {
	ctx := newTestContext()
	m := NewMapping[Uint64Key, uint64](ctx, Pos("m"))

	require.NoError(t, m.Set(1, 10))
	_, err := ctx.State().Commit()
	require.NoError(t, err)

	rev := ctx.State().NewCheckpoint()
	require.NoError(t, m.Set(1, 20))
	ctx.State().RevertTo(rev)

	v, err := m.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), v)
}

func TestAddressSet(t *testing.T) {
	set := NewAddressSet(newTestContext(), Pos("set"))
	addrs := datagen.RandAddresses(4)

	for _, a := range addrs {
		added, err := set.Add(a)
		require.NoError(t, err)
		assert.True(t, added)
	}
	added, err := set.Add(addrs[0])
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := set.Remove(addrs[1])
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = set.Remove(addrs[1])
	require.NoError(t, err)
	assert.False(t, removed)

	all, err := set.All()
	require.NoError(t, err)
	assert.ElementsMatch(t, []thor.Address{addrs[0], addrs[2], addrs[3]}, all)

	for _, a := range all {
		ok, err := set.Contains(a)
		require.NoError(t, err)
		assert.True(t, ok)
		_, err = set.Remove(a)
		require.NoError(t, err)
	}
	n, err := set.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}
