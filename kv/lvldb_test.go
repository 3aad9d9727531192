// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	store := NewMem()
	defer store.Close()

	_, err := store.Get([]byte("missing"))
	assert.True(t, store.IsNotFound(err))

	assert.NoError(t, store.Put([]byte("a1"), []byte("v1")))
	assert.NoError(t, store.Put([]byte("a2"), []byte("v2")))
	assert.NoError(t, store.Put([]byte("b1"), []byte("v3")))

	v, err := store.Get([]byte("a1"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	has, err := store.Has([]byte("b1"))
	assert.NoError(t, err)
	assert.True(t, has)

	it := store.Iterate(Range{Start: []byte("a"), Limit: []byte("b")})
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	it.Release()
	assert.NoError(t, it.Error())
	assert.Equal(t, []string{"a1", "a2"}, keys)
}

func TestBulk(t *testing.T) {
	store := NewMem()
	defer store.Close()

	bulk := store.Bulk()
	assert.NoError(t, bulk.Put([]byte("k"), []byte("v")))
	assert.NoError(t, bulk.Delete([]byte("gone")))
	assert.Equal(t, 2, bulk.Len())

	// nothing visible before write
	has, err := store.Has([]byte("k"))
	assert.NoError(t, err)
	assert.False(t, has)

	assert.NoError(t, bulk.Write())
	v, err := store.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestPersistentStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	store, err := Open(path, 16, 64)
	require.NoError(t, err)
	require.NoError(t, store.Put([]byte("era"), []byte{3}))

	_, err = Open(path, 16, 64)
	assert.Error(t, err, "locked while open")
	require.NoError(t, store.Close())

	store, err = Open(path, 16, 64)
	require.NoError(t, err)
	defer store.Close()
	v, err := store.Get([]byte("era"))
	assert.NoError(t, err)
	assert.Equal(t, []byte{3}, v)
}
