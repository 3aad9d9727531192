// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state holds the process-wide chain state as rlp values addressed by (space, key).
// Writes are journaled in a stacked map so every call can be reverted as a whole, and
// flushed to the kv store in one bulk at block commit.
package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/npos/cache"
	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/stackedmap"
	"github.com/vechain/npos/thor"
)

const committedCacheSize = 4096

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return "state: " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	space thor.Address
	key   thor.Bytes32
}

func (k storageKey) bytes() []byte {
	return append(k.space.Bytes(), k.key.Bytes()...)
}

// State manages the keyed storage of all built-in modules.
type State struct {
	store     kv.Store
	committed *cache.LRU
	sm        *stackedmap.StackedMap
}

// New create a state object over the given store.
func New(store kv.Store) *State {
	committed, _ := cache.NewLRU(committedCacheSize)
	s := &State{
		store:     store,
		committed: committed,
	}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(s.committedGetter)
	// base level, never popped by RevertTo
	s.sm.Push()
}

// committedGetter implements stackedmap.MapGetter.
func (s *State) committedGetter(key any) (any, bool, error) {
	sk := key.(storageKey)
	v, err := s.committed.GetOrLoad(sk, func(any) (any, error) {
		data, err := s.store.Get(sk.bytes())
		if err != nil {
			if s.store.IsNotFound(err) {
				return rlp.RawValue(nil), nil
			}
			return nil, err
		}
		return rlp.RawValue(data), nil
	})
	if err != nil {
		return nil, false, err
	}
	raw := v.(rlp.RawValue)
	return raw, len(raw) > 0, nil
}

// GetRawStorage returns storage value in rlp raw for given space and key.
// Absent values are returned as empty raw.
func (s *State) GetRawStorage(space thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{space, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw. Empty raw deletes the value.
func (s *State) SetRawStorage(space thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{space, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(space thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(space, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// dec receives an empty slice when the value is absent.
func (s *State) DecodeStorage(space thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(space, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 1 {
		revision = 1
	}
	s.sm.PopTo(revision)
}

// Commit flushes every change made since the last commit into the kv store
// and returns the number of written keys.
func (s *State) Commit() (int, error) {
	changes := make(map[storageKey]rlp.RawValue)
	var order []storageKey
	s.sm.Journal(func(k, v any) bool {
		sk := k.(storageKey)
		if _, ok := changes[sk]; !ok {
			order = append(order, sk)
		}
		changes[sk] = v.(rlp.RawValue)
		return true
	})

	bulk := s.store.Bulk()
	for _, sk := range order {
		raw := changes[sk]
		var err error
		if len(raw) == 0 {
			err = bulk.Delete(sk.bytes())
		} else {
			err = bulk.Put(sk.bytes(), raw)
		}
		if err != nil {
			return 0, errors.Wrap(err, "stage change")
		}
	}
	if err := bulk.Write(); err != nil {
		return 0, errors.Wrap(err, "commit state")
	}
	for _, sk := range order {
		s.committed.Add(sk, changes[sk])
	}
	s.reset()
	return len(order), nil
}
