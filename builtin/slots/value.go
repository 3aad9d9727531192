// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slots

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/npos/thor"
)

func decode[V any](ctx *Context, pos thor.Bytes32) (value V, found bool, err error) {
	err = ctx.state.DecodeStorage(ctx.space, pos, func(raw []byte) error {
		if t := reflect.TypeOf(value); t != nil && t.Kind() == reflect.Pointer {
			value = reflect.New(t.Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		found = true
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

func encode[V any](ctx *Context, pos thor.Bytes32, value V) error {
	return ctx.state.EncodeStorage(ctx.space, pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Value is a single rlp encoded cell. Pointer typed values are never nil on
// Get: an absent cell yields a freshly allocated zero value.
type Value[V any] struct {
	ctx *Context
	pos thor.Bytes32
}

func NewValue[V any](ctx *Context, pos thor.Bytes32) *Value[V] {
	return &Value[V]{ctx: ctx, pos: pos}
}

func (v *Value[V]) Get() (V, error) {
	value, _, err := decode[V](v.ctx, v.pos)
	return value, err
}

// Lookup is Get that also reports presence.
func (v *Value[V]) Lookup() (V, bool, error) {
	return decode[V](v.ctx, v.pos)
}

func (v *Value[V]) Set(value V) error {
	return encode(v.ctx, v.pos, value)
}

func (v *Value[V]) Delete() {
	v.ctx.state.SetRawStorage(v.ctx.space, v.pos, nil)
}
