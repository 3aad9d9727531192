// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"github.com/ethereum/go-ethereum/common"
)

// Bytes32 array of 32 bytes. Used as storage position and parameter key.
type Bytes32 [32]byte

func (b Bytes32) String() string { return common.Hash(b).Hex() }
func (b Bytes32) Bytes() []byte  { return b[:] }
func (b Bytes32) IsZero() bool   { return b == Bytes32{} }

// MarshalText encodes b as 0x prefixed hex, which also serves json and yaml.
func (b Bytes32) MarshalText() ([]byte, error) {
	return common.Hash(b).MarshalText()
}

// UnmarshalText accepts 0x prefixed hex of exactly 32 bytes.
func (b *Bytes32) UnmarshalText(input []byte) error {
	return (*common.Hash)(b).UnmarshalText(input)
}

// BytesToBytes32 converts bytes slice into Bytes32.
// If b is larger than Bytes32 legnth, b will be cropped (from the left).
// If b is smaller than Bytes32 length, b will be extended (from the left).
func BytesToBytes32(b []byte) Bytes32 {
	return Bytes32(common.BytesToHash(b))
}
