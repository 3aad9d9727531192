// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slots

import "github.com/vechain/npos/thor"

// AddressSet is an enumerable set of addresses. Removal swaps the last member
// into the hole, so iteration order is insertion order only until the first removal.
type AddressSet struct {
	size    *Value[uint64]
	members *Mapping[Uint64Key, thor.Address]
	index   *Mapping[thor.Address, uint64] // 1-based, 0 means absent
}

func NewAddressSet(ctx *Context, base thor.Bytes32) *AddressSet {
	return &AddressSet{
		size:    NewValue[uint64](ctx, base),
		members: NewMapping[Uint64Key, thor.Address](ctx, thor.Blake2b(base.Bytes(), []byte("members"))),
		index:   NewMapping[thor.Address, uint64](ctx, thor.Blake2b(base.Bytes(), []byte("index"))),
	}
}

func (s *AddressSet) Len() (uint64, error) {
	return s.size.Get()
}

func (s *AddressSet) Contains(addr thor.Address) (bool, error) {
	i, err := s.index.Get(addr)
	return i != 0, err
}

// Add reports whether addr was newly inserted.
func (s *AddressSet) Add(addr thor.Address) (bool, error) {
	if ok, err := s.Contains(addr); err != nil || ok {
		return false, err
	}
	n, err := s.size.Get()
	if err != nil {
		return false, err
	}
	if err := s.members.Set(Uint64Key(n), addr); err != nil {
		return false, err
	}
	if err := s.index.Set(addr, n+1); err != nil {
		return false, err
	}
	return true, s.size.Set(n + 1)
}

// Remove reports whether addr was present.
func (s *AddressSet) Remove(addr thor.Address) (bool, error) {
	i, err := s.index.Get(addr)
	if err != nil || i == 0 {
		return false, err
	}
	n, err := s.size.Get()
	if err != nil {
		return false, err
	}
	last := n - 1
	if i-1 != last {
		moved, err := s.members.Get(Uint64Key(last))
		if err != nil {
			return false, err
		}
		if err := s.members.Set(Uint64Key(i-1), moved); err != nil {
			return false, err
		}
		if err := s.index.Set(moved, i); err != nil {
			return false, err
		}
	}
	s.members.Delete(Uint64Key(last))
	s.index.Delete(addr)
	if last == 0 {
		s.size.Delete()
		return true, nil
	}
	return true, s.size.Set(last)
}

func (s *AddressSet) All() ([]thor.Address, error) {
	n, err := s.size.Get()
	if err != nil {
		return nil, err
	}
	out := make([]thor.Address, 0, n)
	for i := range n {
		addr, err := s.members.Get(Uint64Key(i))
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
