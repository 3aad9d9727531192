// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slots

import (
	"encoding/binary"

	"github.com/vechain/npos/thor"
)

type Key interface {
	Bytes() []byte
}

// Uint64Key keys a mapping by an integer id such as an era or a pool id.
type Uint64Key uint64

func (k Uint64Key) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

// Mapping is a keyed family of cells sharing a base position.
type Mapping[K Key, V any] struct {
	ctx  *Context
	base thor.Bytes32
}

func NewMapping[K Key, V any](ctx *Context, base thor.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{ctx: ctx, base: base}
}

func (m *Mapping[K, V]) position(key K) thor.Bytes32 {
	return thor.Blake2b(key.Bytes(), m.base.Bytes())
}

func (m *Mapping[K, V]) Get(key K) (V, error) {
	value, _, err := decode[V](m.ctx, m.position(key))
	return value, err
}

func (m *Mapping[K, V]) Lookup(key K) (V, bool, error) {
	return decode[V](m.ctx, m.position(key))
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return encode(m.ctx, m.position(key), value)
}

func (m *Mapping[K, V]) Delete(key K) {
	m.ctx.state.SetRawStorage(m.ctx.space, m.position(key), nil)
}
