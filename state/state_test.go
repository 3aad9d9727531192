// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/thor"
)

func setBig(st *State, space thor.Address, key thor.Bytes32, v *big.Int) {
	raw, _ := rlp.EncodeToBytes(v)
	st.SetRawStorage(space, key, raw)
}

func getBig(t *testing.T, st *State, space thor.Address, key thor.Bytes32) *big.Int {
	v := new(big.Int)
	err := st.DecodeStorage(space, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, v)
	})
	require.NoError(t, err)
	return v
}

func TestCheckpointRevert(t *testing.T) {
	st := New(kv.NewMem())
	space := thor.BytesToAddress([]byte("staking"))
	key := thor.BytesToBytes32([]byte("total"))

	setBig(st, space, key, big.NewInt(1))

	rev := st.NewCheckpoint()
	setBig(st, space, key, big.NewInt(2))
	assert.Equal(t, big.NewInt(2), getBig(t, st, space, key))

	st.RevertTo(rev)
	assert.Equal(t, big.NewInt(1), getBig(t, st, space, key))

	// reverting below the base level keeps the base
	st.RevertTo(0)
	assert.Equal(t, big.NewInt(1), getBig(t, st, space, key))
}

func TestCommit(t *testing.T) {
	store := kv.NewMem()
	st := New(store)
	space := thor.BytesToAddress([]byte("pools"))
	a := thor.BytesToBytes32([]byte("a"))
	b := thor.BytesToBytes32([]byte("b"))

	setBig(st, space, a, big.NewInt(10))
	setBig(st, space, b, big.NewInt(20))
	setBig(st, space, a, big.NewInt(11))

	n, err := st.Commit()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// a fresh state over the same store sees committed values
	st2 := New(store)
	assert.Equal(t, big.NewInt(11), getBig(t, st2, space, a))
	assert.Equal(t, big.NewInt(20), getBig(t, st2, space, b))

	// deletion
	st2.SetRawStorage(space, b, nil)
	_, err = st2.Commit()
	require.NoError(t, err)
	has, err := store.Has(append(space.Bytes(), b.Bytes()...))
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, 0, getBig(t, st2, space, b).Sign())
}

func TestDecodeError(t *testing.T) {
	st := New(kv.NewMem())
	space := thor.BytesToAddress([]byte("x"))
	key := thor.BytesToBytes32([]byte("bad"))
	st.SetRawStorage(space, key, rlp.RawValue{0xFF})

	err := st.DecodeStorage(space, key, func(raw []byte) error {
		var v big.Int
		return rlp.DecodeBytes(raw, &v)
	})
	assert.Error(t, err)
	var se *Error
	assert.ErrorAs(t, err, &se)
}
