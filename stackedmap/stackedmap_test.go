// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func M(a ...any) []any {
	return a
}

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := map[string]string{"foo": "bar"}

	sm := New(func(key any) (any, bool, error) {
		v, r := src[key.(string)]
		return v, r, nil
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []any
	}{
		{func() { sm.Push() }, 1, "", "", "foo", M("bar", true, nil)},
		{func() { sm.Push() }, 2, "foo", "baz", "foo", M("baz", true, nil)},
		{func() {}, 2, "foo", "baz1", "foo", M("baz1", true, nil)},
		{func() { sm.Push() }, 3, "foo", "qux", "foo", M("qux", true, nil)},
		{func() { sm.Pop() }, 2, "", "", "foo", M("baz1", true, nil)},
		{func() { sm.Pop() }, 1, "", "", "foo", M("bar", true, nil)},
		{func() { sm.Push(); sm.Push() }, 3, "", "", "", nil},
		{func() { sm.PopTo(0) }, 0, "", "", "foo", M("bar", true, nil)},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			assert.Equal(test.getReturn, M(sm.Get(test.getKey)))
		}
	}
}

func TestStackedMapJournal(t *testing.T) {
	assert := assert.New(t)
	sm := New(func(key any) (any, bool, error) {
		return nil, false, nil
	})

	kvs := []struct {
		k, v string
	}{
		{"a", "b"},
		{"a", "b"},
		{"a1", "b1"},
		{"a2", "b2"},
	}

	for _, kv := range kvs {
		sm.Push()
		sm.Put(kv.k, kv.v)
	}
	i := 0
	sm.Journal(func(k, v any) bool {
		assert.Equal(kvs[i].k, k)
		assert.Equal(kvs[i].v, v)
		i++
		return true
	})
	assert.Equal(len(kvs), i)

	i = 0
	sm.Journal(func(k, v any) bool {
		i++
		return false
	})
	assert.Equal(1, i, "Journal traverse should abort")
}

func TestStackedMapSourceError(t *testing.T) {
	boom := errors.New("boom")
	sm := New(func(key any) (any, bool, error) {
		return nil, false, boom
	})
	sm.Push()

	_, _, err := sm.Get("x")
	assert.Equal(t, boom, err)

	sm.Put("x", 1)
	v, ok, err := sm.Get("x")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
