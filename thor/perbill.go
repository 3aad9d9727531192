// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"fmt"
	"math/big"
)

// PerbillOne is the number of parts in one whole.
const PerbillOne = 1_000_000_000

// Perbill is a fraction expressed in parts per billion.
type Perbill uint32

// PerbillFromPercent returns p/100, saturating at one.
func PerbillFromPercent(p uint32) Perbill {
	if p >= 100 {
		return PerbillOne
	}
	return Perbill(p * (PerbillOne / 100))
}

// MulFloor returns floor(p * n).
func (p Perbill) MulFloor(n uint64) uint64 {
	v := new(big.Int).SetUint64(n)
	v.Mul(v, big.NewInt(int64(p)))
	v.Quo(v, big.NewInt(PerbillOne))
	return v.Uint64()
}

// MulBig returns floor(p * n) for a big number.
func (p Perbill) MulBig(n *big.Int) *big.Int {
	v := new(big.Int).Mul(n, big.NewInt(int64(p)))
	return v.Quo(v, big.NewInt(PerbillOne))
}

// Exceeded reports whether count / total is strictly greater than p.
// The comparison is done on integers so no rounding takes place.
func (p Perbill) Exceeded(count, total uint64) bool {
	lhs := new(big.Int).Mul(new(big.Int).SetUint64(count), big.NewInt(PerbillOne))
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(total), big.NewInt(int64(p)))
	return lhs.Cmp(rhs) > 0
}

func (p Perbill) String() string {
	return fmt.Sprintf("%d.%07d%%", uint32(p)/(PerbillOne/100), uint32(p)%(PerbillOne/100))
}
