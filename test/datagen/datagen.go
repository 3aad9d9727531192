// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package datagen produces random fixtures for tests.
package datagen

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"

	"github.com/vechain/npos/thor"
)

func RandAddress() (addr thor.Address) {
	rand.Read(addr[:])
	return
}

func RandAddresses(n int) []thor.Address {
	out := make([]thor.Address, n)
	for i := range out {
		out[i] = RandAddress()
	}
	return out
}

func RandBytes32() (b thor.Bytes32) {
	rand.Read(b[:])
	return
}

func RandInt() int {
	return mathrand.Int() //#nosec G404
}

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}

// RandAmount returns a value in [min, max).
func RandAmount(min, max int64) *big.Int {
	return big.NewInt(min + mathrand.Int64N(max-min)) //#nosec G404
}
